package kgml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type xmlPathway struct {
	XMLName   xml.Name      `xml:"pathway"`
	Name      string        `xml:"name,attr"`
	Org       string        `xml:"org,attr"`
	Number    string        `xml:"number,attr"`
	Title     string        `xml:"title,attr"`
	Image     string        `xml:"image,attr"`
	Entries   []xmlEntry    `xml:"entry"`
	Reactions []xmlReaction `xml:"reaction"`
}

type xmlEntry struct {
	ID       string        `xml:"id,attr"`
	Name     string        `xml:"name,attr"`
	Type     string        `xml:"type,attr"`
	Reaction string        `xml:"reaction,attr"`
	Graphics []xmlGraphics `xml:"graphics"`
}

type xmlGraphics struct {
	Name    string `xml:"name,attr"`
	FgColor string `xml:"fgcolor,attr"`
	BgColor string `xml:"bgcolor,attr"`
	Type    string `xml:"type,attr"`
	X       string `xml:"x,attr"`
	Y       string `xml:"y,attr"`
	Width   string `xml:"width,attr"`
	Height  string `xml:"height,attr"`
	Coords  string `xml:"coords,attr"`
}

type xmlReaction struct {
	ID         string   `xml:"id,attr"`
	Name       string   `xml:"name,attr"`
	Type       string   `xml:"type,attr"`
	Substrates []xmlRef `xml:"substrate"`
	Products   []xmlRef `xml:"product"`
}

type xmlRef struct {
	ID string `xml:"id,attr"`
}

// Load parses the KGML file at path.
func Load(path string) (*Pathway, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open KGML file: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Parse reads a KGML document.
func Parse(r io.Reader) (*Pathway, error) {
	var doc xmlPathway
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode KGML: %w", err)
	}

	p := &Pathway{
		Name:   doc.Name,
		Org:    doc.Org,
		Number: doc.Number,
		Title:  doc.Title,
		Image:  doc.Image,
		Kind:   KindOf(doc.Number),
	}
	for _, xe := range doc.Entries {
		e := &Entry{
			ID:       xe.ID,
			Names:    strings.Fields(xe.Name),
			Type:     xe.Type,
			Reaction: xe.Reaction,
		}
		for _, xg := range xe.Graphics {
			g, err := xg.graphics()
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", xe.ID, err)
			}
			e.Graphics = append(e.Graphics, len(p.Graphics))
			p.Graphics = append(p.Graphics, g)
		}
		p.Entries = append(p.Entries, e)
	}
	for _, xr := range doc.Reactions {
		r := &Reaction{ID: xr.ID, Name: xr.Name, Type: xr.Type}
		for _, s := range xr.Substrates {
			r.Substrates = append(r.Substrates, s.ID)
		}
		for _, s := range xr.Products {
			r.Products = append(r.Products, s.ID)
		}
		p.Reactions = append(p.Reactions, r)
	}
	p.index()
	return p, nil
}

func (xg xmlGraphics) graphics() (Graphics, error) {
	g := Graphics{
		Name:    xg.Name,
		FgColor: xg.FgColor,
		BgColor: xg.BgColor,
		Type:    xg.Type,
	}
	var err error
	for _, f := range []struct {
		dst *float64
		raw string
	}{{&g.X, xg.X}, {&g.Y, xg.Y}, {&g.Width, xg.Width}, {&g.Height, xg.Height}} {
		if *f.dst, err = parseFloat(f.raw); err != nil {
			return g, err
		}
	}
	if xg.Coords != "" {
		for _, c := range strings.Split(xg.Coords, ",") {
			v, err := parseFloat(c)
			if err != nil {
				return g, err
			}
			g.Coords = append(g.Coords, v)
		}
		if len(g.Coords)%2 != 0 {
			return g, fmt.Errorf("odd number of line coordinates %q", xg.Coords)
		}
	}
	return g, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse graphics coordinate %q: %w", s, err)
	}
	return v, nil
}
