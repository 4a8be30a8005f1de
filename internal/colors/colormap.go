// Package colors turns palettes and source membership into display colors
// and overlay priorities for pathway maps.
package colors

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/merenlab/anvigo/internal/anvierr"
)

// continuousSize is the number of discrete entries a continuous colormap
// exposes when indexed, matching the usual 256-entry lookup table.
const continuousSize = 256

// Colormap is a palette that can be sampled at a normalized position or
// indexed like a lookup table.
type Colormap interface {
	Name() string
	// N is the number of distinct entries available by index.
	N() int
	// At samples the colormap at t in [0, 1].
	At(t float64) color.Color
	// Index returns entry i of the lookup table.
	Index(i int) color.Color
	// Discrete reports whether the colormap is a qualitative list.
	Discrete() bool
	// Trim restricts the colormap to the fractional range [lo, hi].
	Trim(lo, hi float64) (Colormap, error)
}

// Continuous is a colormap interpolated over [0, 1].
type Continuous struct {
	name     string
	cm       palette.ColorMap
	lo, hi   float64
	reversed bool
}

// NewContinuous wraps a gonum ColorMap. The map's range is reset to [0, 1].
func NewContinuous(name string, cm palette.ColorMap) *Continuous {
	cm.SetMax(1)
	cm.SetMin(0)
	return &Continuous{name: name, cm: cm, lo: 0, hi: 1}
}

func (c *Continuous) Name() string   { return c.name }
func (c *Continuous) N() int         { return continuousSize }
func (c *Continuous) Discrete() bool { return false }

func (c *Continuous) At(t float64) color.Color {
	u := c.lo + clamp01(t)*(c.hi-c.lo)
	if c.reversed {
		u = 1 - u
	}
	col, err := c.cm.At(clamp01(u))
	if err != nil {
		// Only reachable for out-of-range input, which clamp01 rules out.
		return color.Black
	}
	return col
}

func (c *Continuous) Index(i int) color.Color {
	return c.At(float64(i) / float64(continuousSize-1))
}

func (c *Continuous) Trim(lo, hi float64) (Colormap, error) {
	if err := checkLimits(lo, hi); err != nil {
		return nil, err
	}
	span := c.hi - c.lo
	trimmed := *c
	trimmed.lo = c.lo + lo*span
	trimmed.hi = c.lo + hi*span
	trimmed.name = fmt.Sprintf("trunc(%s,%.2f,%.2f)", c.name, lo, hi)
	return &trimmed, nil
}

// reverse returns the colormap traversed from 1 to 0.
func (c *Continuous) reverse() *Continuous {
	r := *c
	r.reversed = !c.reversed
	r.name = c.name + "_r"
	return &r
}

// List is a qualitative colormap of distinct colors.
type List struct {
	name   string
	colors []color.Color
}

// NewList creates a qualitative colormap from the given colors.
func NewList(name string, cols []color.Color) *List {
	return &List{name: name, colors: cols}
}

func (l *List) Name() string   { return l.name }
func (l *List) N() int         { return len(l.colors) }
func (l *List) Discrete() bool { return true }

func (l *List) At(t float64) color.Color {
	i := int(clamp01(t) * float64(len(l.colors)))
	if i >= len(l.colors) {
		i = len(l.colors) - 1
	}
	return l.colors[i]
}

func (l *List) Index(i int) color.Color {
	return l.colors[i]
}

func (l *List) Trim(lo, hi float64) (Colormap, error) {
	if err := checkLimits(lo, hi); err != nil {
		return nil, err
	}
	n := float64(len(l.colors))
	start, end := int(lo*n), int(math.Ceil(hi*n))
	if end <= start {
		return nil, anvierr.Config("colormap limits (%.2f, %.2f) leave no colors in %s", lo, hi, l.name)
	}
	return &List{
		name:   fmt.Sprintf("trunc(%s,%.2f,%.2f)", l.name, lo, hi),
		colors: l.colors[start:end],
	}, nil
}

func (l *List) reverse() *List {
	rev := make([]color.Color, len(l.colors))
	for i, c := range l.colors {
		rev[len(l.colors)-1-i] = c
	}
	return &List{name: l.name + "_r", colors: rev}
}

// tab10 is the ten-color qualitative palette used for membership coloring.
var tab10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Control points of perceptually uniform sequential maps. Lightness
// increases monotonically along each list.
var luminanceControls = map[string][]string{
	"plasma":  {"#0d0887", "#7e03a8", "#cc4778", "#f89540", "#f0f921"},
	"viridis": {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"magma":   {"#000004", "#51127c", "#b73779", "#fc8961", "#fcfdbf"},
}

// Maximum sizes of the ColorBrewer qualitative schemes.
var brewerQualitative = map[string]int{
	"Accent":  8,
	"Dark2":   8,
	"Paired":  12,
	"Pastel1": 9,
	"Pastel2": 8,
	"Set1":    9,
	"Set2":    8,
	"Set3":    12,
}

// Lookup returns a named colormap. A "_r" suffix reverses it.
func Lookup(name string) (Colormap, error) {
	base, reversed := strings.CutSuffix(name, "_r")

	var cm Colormap
	switch {
	case base == "tab10":
		cols := make([]color.Color, len(tab10))
		for i, h := range tab10 {
			c, _ := ParseHex(h)
			cols[i] = c
		}
		cm = NewList(base, cols)
	case luminanceControls[base] != nil:
		controls := luminanceControls[base]
		cols := make([]color.Color, len(controls))
		for i, h := range controls {
			c, _ := ParseHex(h)
			cols[i] = c
		}
		lum, err := moreland.NewLuminance(cols)
		if err != nil {
			return nil, fmt.Errorf("build colormap %s: %w", base, err)
		}
		cm = NewContinuous(base, lum)
	case base == "blackbody":
		cm = NewContinuous(base, moreland.ExtendedBlackBody())
	case base == "kindlmann":
		cm = NewContinuous(base, moreland.ExtendedKindlmann())
	case brewerQualitative[base] > 0:
		p, err := brewer.GetPalette(brewer.TypeQualitative, base, brewerQualitative[base])
		if err != nil {
			return nil, fmt.Errorf("load brewer palette %s: %w", base, err)
		}
		cm = NewList(base, p.Colors())
	default:
		return nil, anvierr.Config("unknown colormap %q", name)
	}

	if !reversed {
		return cm, nil
	}
	switch c := cm.(type) {
	case *Continuous:
		return c.reverse(), nil
	case *List:
		return c.reverse(), nil
	}
	return cm, nil
}

// Hex formats a color as a lowercase "#rrggbb" string.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ParseHex parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, anvierr.Config("malformed color hex code %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, anvierr.Config("malformed color hex code %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// NormalizeHex returns the canonical lowercase form of a hex color.
func NormalizeHex(s string) (string, error) {
	c, err := ParseHex(s)
	if err != nil {
		return "", err
	}
	return Hex(c), nil
}

func checkLimits(lo, hi float64) error {
	if !(0 <= lo && lo <= hi && hi <= 1) {
		return anvierr.Config("colormap limits must satisfy 0 <= lower <= upper <= 1, got (%g, %g)", lo, hi)
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
