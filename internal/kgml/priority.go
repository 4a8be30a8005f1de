package kgml

import (
	"sort"
	"strings"

	"github.com/merenlab/anvigo/internal/colors"
)

const (
	white = "#ffffff"
	black = "#000000"
)

// PriorityOptions control how SetColorPriority treats elements without a
// priority.
type PriorityOptions struct {
	// Backdrop recolors unprioritized ortholog graphics. Lines take it as
	// foreground on white; boxes keep a black outline over it. Empty leaves
	// them untouched.
	Backdrop string
	// Compounds recolors each compound after the highest priority ortholog
	// whose reaction consumes or produces it.
	Compounds bool
}

// SetColorPriority reorders ortholog entries so that those whose graphics
// color pair has a higher priority are drawn later, on top of the rest.
// Color pairs are compared case-insensitively.
func (p *Pathway) SetColorPriority(priorities map[colors.Pair]float64, opts PriorityOptions) {
	lookup := make(map[colors.Pair]float64, len(priorities))
	for pair, v := range priorities {
		lookup[normPair(pair.Fg, pair.Bg)] = v
	}

	prio := make(map[int]float64)
	var others, unprioritized, prioritized, compounds []int
	for i, e := range p.Entries {
		switch e.Type {
		case "compound":
			compounds = append(compounds, i)
			continue
		case "ortholog":
		default:
			others = append(others, i)
			continue
		}

		best, found := 0.0, false
		for _, gi := range e.Graphics {
			g := &p.Graphics[gi]
			if v, ok := lookup[normPair(g.FgColor, g.BgColor)]; ok && (!found || v > best) {
				best, found = v, true
			}
		}
		if !found {
			unprioritized = append(unprioritized, i)
			continue
		}
		prio[i] = best
		prioritized = append(prioritized, i)
	}
	sort.SliceStable(prioritized, func(a, b int) bool {
		return prio[prioritized[a]] < prio[prioritized[b]]
	})

	if opts.Backdrop != "" {
		for _, i := range unprioritized {
			p.paintBackdrop(p.Entries[i], opts.Backdrop)
		}
	}
	if opts.Compounds {
		p.colorCompounds(compounds, prioritized, opts.Backdrop)
	}

	order := make([]int, 0, len(p.Entries))
	order = append(order, others...)
	order = append(order, unprioritized...)
	order = append(order, prioritized...)
	order = append(order, compounds...)
	p.order = order
}

func (p *Pathway) paintBackdrop(e *Entry, shade string) {
	for _, gi := range e.Graphics {
		g := &p.Graphics[gi]
		if g.Type == "line" {
			g.FgColor, g.BgColor = shade, white
		} else {
			g.FgColor, g.BgColor = black, shade
		}
	}
}

// colorCompounds gives each compound the color of the highest priority
// ortholog entry adjacent to it through a reaction. prioritized is in
// ascending priority order.
func (p *Pathway) colorCompounds(compounds, prioritized []int, backdrop string) {
	adjacent := make(map[string]map[string]bool)
	for _, r := range p.Reactions {
		for _, c := range append(append([]string(nil), r.Substrates...), r.Products...) {
			if adjacent[c] == nil {
				adjacent[c] = make(map[string]bool)
			}
			adjacent[c][r.ID] = true
		}
	}

	for _, ci := range compounds {
		c := p.Entries[ci]
		shade := backdrop
		for k := len(prioritized) - 1; k >= 0; k-- {
			o := p.Entries[prioritized[k]]
			if adjacent[c.ID][o.ID] {
				shade = p.entryColor(o)
				break
			}
		}
		if shade == "" {
			continue
		}
		for _, gi := range c.Graphics {
			p.Graphics[gi].FgColor = shade
			p.Graphics[gi].BgColor = shade
		}
	}
}

// entryColor is the highlight color of an entry: the stroke of a line or the
// fill of a box.
func (p *Pathway) entryColor(e *Entry) string {
	if len(e.Graphics) == 0 {
		return ""
	}
	g := p.Graphics[e.Graphics[0]]
	if g.Type == "line" {
		return g.FgColor
	}
	return g.BgColor
}

func normPair(fg, bg string) colors.Pair {
	return colors.Pair{Fg: strings.ToLower(fg), Bg: strings.ToLower(bg)}
}
