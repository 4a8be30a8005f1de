// Package kgml models KEGG pathway maps as read from KGML files.
//
// A Pathway owns every graphics element in a single arena; entries refer to
// their graphics by index so that recoloring never aliases.
package kgml

import (
	"regexp"
	"strings"
)

// NoMatch is the foreground sentinel marking ortholog graphics that carry no
// selected identifier.
const NoMatch = "0"

// Kind is the structural variant of a pathway map.
type Kind int

const (
	Standard Kind = iota
	Global
	Overview
)

func (k Kind) String() string {
	switch k {
	case Global:
		return "global"
	case Overview:
		return "overview"
	}
	return "standard"
}

var (
	globalMapRe   = regexp.MustCompile(`^011\d\d$`)
	overviewMapRe = regexp.MustCompile(`^012\d\d$`)
)

// KindOf classifies a five-digit map number.
func KindOf(number string) Kind {
	switch {
	case globalMapRe.MatchString(number):
		return Global
	case overviewMapRe.MatchString(number):
		return Overview
	}
	return Standard
}

// Graphics is the drawable part of an entry.
type Graphics struct {
	Name    string
	FgColor string
	BgColor string
	// Type is rectangle, circle, roundrectangle or line.
	Type   string
	X, Y   float64
	Width  float64
	Height float64
	// Coords holds x,y pairs of a line.
	Coords []float64
}

// Label returns the text shown inside a box: the graphics name up to the
// first comma.
func (g *Graphics) Label() string {
	name, _, _ := strings.Cut(g.Name, ",")
	return strings.TrimSuffix(name, "...")
}

// Entry is a KGML entry such as an ortholog, compound or linked map.
type Entry struct {
	ID string
	// Names are the KEGG names with their database prefix, e.g. "ko:K00844".
	Names    []string
	Type     string
	Reaction string
	// Graphics indexes Pathway.Graphics.
	Graphics []int
}

// IDs returns the entry's names without database prefixes.
func (e *Entry) IDs() []string {
	ids := make([]string, len(e.Names))
	for i, n := range e.Names {
		if _, id, ok := strings.Cut(n, ":"); ok {
			ids[i] = id
		} else {
			ids[i] = n
		}
	}
	return ids
}

// Reaction links substrate and product compound entries. Its ID is the id
// of the ortholog entry catalyzing it.
type Reaction struct {
	ID         string
	Name       string
	Type       string
	Substrates []string
	Products   []string
}

// Pathway is a parsed KGML map.
type Pathway struct {
	Name   string
	Org    string
	Number string
	Title  string
	Image  string
	Kind   Kind

	Entries   []*Entry
	Graphics  []Graphics
	Reactions []*Reaction

	byID  map[string]int
	order []int
}

// Entry returns the entry with the given id, or nil.
func (p *Pathway) Entry(id string) *Entry {
	i, ok := p.byID[id]
	if !ok {
		return nil
	}
	return p.Entries[i]
}

// EntriesOfType returns the indices of entries of type typ in document order.
func (p *Pathway) EntriesOfType(typ string) []int {
	var out []int
	for i, e := range p.Entries {
		if e.Type == typ {
			out = append(out, i)
		}
	}
	return out
}

// OrthologEntries returns the indices of ortholog entries.
func (p *Pathway) OrthologEntries() []int {
	return p.EntriesOfType("ortholog")
}

// SelectEntries returns the ortholog entries representing at least one
// identifier for which has reports true.
func (p *Pathway) SelectEntries(has func(id string) bool) []int {
	var out []int
	for _, i := range p.OrthologEntries() {
		for _, id := range p.Entries[i].IDs() {
			if has(id) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// DrawOrder returns entry indices in the order they should be painted,
// later entries on top. Before SetColorPriority it is document order.
func (p *Pathway) DrawOrder() []int {
	if p.order != nil {
		return append([]int(nil), p.order...)
	}
	out := make([]int, len(p.Entries))
	for i := range out {
		out[i] = i
	}
	return out
}

func (p *Pathway) index() {
	p.byID = make(map[string]int, len(p.Entries))
	for i, e := range p.Entries {
		p.byID[e.ID] = i
	}
}
