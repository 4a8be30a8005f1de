// Package render writes pathway maps, legends and map grids as PDF files.
package render

import (
	"fmt"
	"image"
	_ "image/png"
	"math"
	"os"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/kgml"
)

// pageMargin pads maps drawn without a base image.
const pageMargin = 20.0

// ImageSource locates the reference image underlying a pathway map. KGML
// coordinates are taken as image pixels. An empty path means the map is
// drawn without a base image.
type ImageSource interface {
	MapImage(p *kgml.Pathway) string
}

// Drawer renders colored pathways onto their reference images.
type Drawer struct {
	images ImageSource
	font   string
	logger *zap.Logger
}

// NewDrawer creates a Drawer. images may be nil.
func NewDrawer(images ImageSource) *Drawer {
	return &Drawer{images: images, font: "Helvetica", logger: zap.NewNop()}
}

// SetLogger sets the logger for image lookups.
func (d *Drawer) SetLogger(l *zap.Logger) {
	d.logger = l
}

// Draw writes p as a one-page PDF at outPath. Graphics whose foreground is
// the no-match sentinel are not painted.
func (d *Drawer) Draw(p *kgml.Pathway, outPath string) error {
	var imgPath string
	if d.images != nil {
		imgPath = d.images.MapImage(p)
	}

	var w, h float64
	if imgPath != "" {
		iw, ih, err := imageSize(imgPath)
		if err != nil {
			return err
		}
		w, h = float64(iw), float64(ih)
	} else {
		w, h = extent(p)
		d.logger.Debug("no base image for map", zap.String("map", p.Number))
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	if imgPath != "" {
		pdf.ImageOptions(imgPath, 0, 0, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	for _, ei := range p.DrawOrder() {
		for _, gi := range p.Entries[ei].Graphics {
			d.paint(pdf, &p.Graphics[gi])
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write map %s: %w", outPath, err)
	}
	return nil
}

func (d *Drawer) paint(pdf *fpdf.Fpdf, g *kgml.Graphics) {
	if g.FgColor == kgml.NoMatch {
		return
	}
	fg, fgOK := rgb(g.FgColor)
	bg, bgOK := rgb(g.BgColor)
	if !fgOK && !bgOK {
		return
	}
	style := "D"
	if fgOK {
		pdf.SetDrawColor(fg[0], fg[1], fg[2])
	}
	if bgOK {
		pdf.SetFillColor(bg[0], bg[1], bg[2])
		style = "FD"
		if !fgOK {
			style = "F"
		}
	}

	switch g.Type {
	case "line":
		if len(g.Coords) < 4 || !fgOK {
			return
		}
		width := g.Width
		if width <= 0 {
			width = 1
		}
		pdf.SetLineWidth(width)
		pdf.SetLineCapStyle("round")
		pdf.MoveTo(g.Coords[0], g.Coords[1])
		for i := 2; i+1 < len(g.Coords); i += 2 {
			pdf.LineTo(g.Coords[i], g.Coords[i+1])
		}
		pdf.DrawPath("D")
	case "circle":
		pdf.SetLineWidth(0.5)
		pdf.Circle(g.X, g.Y, math.Max(g.Width, g.Height)/2, style)
	case "rectangle", "roundrectangle":
		x, y := g.X-g.Width/2, g.Y-g.Height/2
		pdf.SetLineWidth(0.5)
		if g.Type == "roundrectangle" {
			pdf.RoundedRect(x, y, g.Width, g.Height, g.Height/4, "1234", style)
		} else {
			pdf.Rect(x, y, g.Width, g.Height, style)
		}
		if label := g.Label(); label != "" && fgOK {
			pdf.SetFont(d.font, "", math.Min(g.Height*0.6, 10))
			pdf.SetTextColor(fg[0], fg[1], fg[2])
			pdf.SetXY(x, y)
			pdf.CellFormat(g.Width, g.Height, label, "", 0, "CM", false, 0, "")
		}
	}
}

func rgb(hex string) ([3]int, bool) {
	c, err := colors.ParseHex(hex)
	if err != nil {
		return [3]int{}, false
	}
	return [3]int{int(c.R), int(c.G), int(c.B)}, true
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open map image: %w", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode map image %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// extent is the page size covering every graphics element.
func extent(p *kgml.Pathway) (float64, float64) {
	maxX, maxY := 0.0, 0.0
	for _, g := range p.Graphics {
		maxX = math.Max(maxX, g.X+g.Width/2)
		maxY = math.Max(maxY, g.Y+g.Height/2)
		for i := 0; i+1 < len(g.Coords); i += 2 {
			maxX = math.Max(maxX, g.Coords[i])
			maxY = math.Max(maxY, g.Coords[i+1])
		}
	}
	return maxX + pageMargin, maxY + pageMargin
}
