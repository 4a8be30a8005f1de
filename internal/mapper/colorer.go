package mapper

import (
	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/kgml"
	"github.com/merenlab/anvigo/internal/membership"
)

const (
	white = "#ffffff"
	black = "#000000"

	// overviewLineWidth widens highlighted arrows of overview maps, whose
	// base width is 1.
	overviewLineWidth = 5.0
)

// Backdrop is the shade given to ortholog elements without a highlight.
type Backdrop struct {
	Global string
	Other  string
}

// DefaultBackdrop shades global map reactions pale green and leaves other
// maps white.
var DefaultBackdrop = Backdrop{Global: "#d5e8d4", Other: white}

// For returns the shade for a map kind.
func (b Backdrop) For(k kgml.Kind) string {
	if k == kgml.Global {
		return b.Global
	}
	return b.Other
}

// ColorPathway highlights the ortholog entries of p that represent any
// identifier in mem, coloring each according to a. It returns false without
// touching p when nothing matches and drawLacking is false.
//
// Highlighted lines of global and overview maps take the color as
// foreground on white; boxes of standard maps keep a black outline over the
// color. Other ortholog graphics get the kgml.NoMatch foreground before the
// backdrop is applied.
func ColorPathway(p *kgml.Pathway, mem membership.Map, a *colors.Assignment, drawLacking bool, backdrop Backdrop) (bool, error) {
	selected := p.SelectEntries(mem.Has)
	if len(selected) == 0 && !drawLacking {
		return false, nil
	}
	if a.Mode() == colors.Original {
		colorOriginal(p, selected, backdrop)
		return true, nil
	}

	hexes := make([]string, len(selected))
	for k, ei := range selected {
		e := p.Entries[ei]
		union := mem.Union(e.IDs())
		if len(union) == 0 {
			return false, anvierr.Membership("entry %s of map %s has no contributing sources", e.ID, p.Number)
		}
		hex, err := a.ColorFor(union)
		if err != nil {
			return false, err
		}
		hexes[k] = hex
	}

	isSelected := make(map[int]bool, len(selected))
	for k, ei := range selected {
		isSelected[ei] = true
		for _, gi := range p.Entries[ei].Graphics {
			highlight(&p.Graphics[gi], p.Kind, hexes[k])
		}
	}
	clearUnselected(p, isSelected)

	priorities := make(map[colors.Pair]float64, a.Len())
	for i := 0; i < a.Len(); i++ {
		priorities[pairFor(p.Kind, a.Color(i))] = a.Priority(i)
	}
	p.SetColorPriority(priorities, kgml.PriorityOptions{
		Backdrop:  backdrop.For(p.Kind),
		Compounds: p.Kind != kgml.Standard,
	})
	return true, nil
}

// colorOriginal keeps the reference colors of selected entries. Distinct
// color pairs declared later in the map outrank earlier ones.
func colorOriginal(p *kgml.Pathway, selected []int, backdrop Backdrop) {
	isSelected := make(map[int]bool, len(selected))
	var pairs []colors.Pair
	for _, ei := range selected {
		isSelected[ei] = true
		for _, gi := range p.Entries[ei].Graphics {
			g := &p.Graphics[gi]
			switch p.Kind {
			case kgml.Global:
				g.BgColor = white
			case kgml.Overview:
				g.BgColor = white
				g.Width = overviewLineWidth
			default:
				g.FgColor = black
			}
			pairs = append(pairs, colors.Pair{Fg: g.FgColor, Bg: g.BgColor})
		}
	}
	clearUnselected(p, isSelected)

	p.SetColorPriority(colors.OriginalPriorities(pairs), kgml.PriorityOptions{
		Backdrop:  backdrop.For(p.Kind),
		Compounds: p.Kind != kgml.Standard,
	})
}

func highlight(g *kgml.Graphics, kind kgml.Kind, hex string) {
	switch kind {
	case kgml.Global:
		g.FgColor, g.BgColor = hex, white
	case kgml.Overview:
		g.FgColor, g.BgColor = hex, white
		g.Width = overviewLineWidth
	default:
		g.FgColor, g.BgColor = black, hex
	}
}

func clearUnselected(p *kgml.Pathway, isSelected map[int]bool) {
	for _, ei := range p.OrthologEntries() {
		if isSelected[ei] {
			continue
		}
		for _, gi := range p.Entries[ei].Graphics {
			p.Graphics[gi].FgColor = kgml.NoMatch
		}
	}
}

func pairFor(kind kgml.Kind, hex string) colors.Pair {
	if kind == kgml.Standard {
		return colors.Pair{Fg: black, Bg: hex}
	}
	return colors.Pair{Fg: hex, Bg: white}
}
