package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/colors"
)

// Colorbar writes a vertical legend of colors with one label each.
// The first color is at the bottom.
func Colorbar(hexes, labels []string, title, outPath string) error {
	if len(hexes) == 0 || len(hexes) != len(labels) {
		return anvierr.Config("colorbar needs one label per color, got %d colors and %d labels", len(hexes), len(labels))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Min, p.X.Max = 0, 1
	p.HideX()

	for i, h := range hexes {
		c, err := colors.ParseHex(h)
		if err != nil {
			return err
		}
		y := float64(i)
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: 0, Y: y - 0.5},
			{X: 1, Y: y - 0.5},
			{X: 1, Y: y + 0.5},
			{X: 0, Y: y + 0.5},
		})
		if err != nil {
			return fmt.Errorf("build colorbar segment: %w", err)
		}
		poly.Color = c
		poly.LineStyle.Width = 0
		p.Add(poly)
	}
	p.NominalY(labels...)
	p.Y.Min, p.Y.Max = -0.5, float64(len(hexes))-0.5

	width := vg.Points(colorbarWidth(labels))
	height := vg.Points(60 + 24*float64(len(hexes)))
	if err := p.Save(width, height, outPath); err != nil {
		return fmt.Errorf("save colorbar %s: %w", outPath, err)
	}
	return nil
}

// colorbarWidth leaves room for the longest label beside the bar.
func colorbarWidth(labels []string) float64 {
	longest := 0
	for _, l := range labels {
		longest = max(longest, len(l))
	}
	return 80 + 6*float64(longest)
}
