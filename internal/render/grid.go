package render

import (
	"fmt"
	"math"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/merenlab/anvigo/internal/anvierr"
)

// Letter paper in points.
const (
	letterWidth  = 612.0
	letterHeight = 792.0
	gridMargin   = 10.0
)

// Grid is the cell layout of a page holding N embedded maps.
type Grid struct {
	Rows, Cols            int
	PageWidth, PageHeight float64
	CellWidth, CellHeight float64
	Margin                float64
}

// GridLayout arranges n cells on a page with cols = ceil(sqrt(n)) and
// rows = ceil(n/cols), separated and framed by margin.
func GridLayout(n int, pageW, pageH, margin float64) Grid {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := int(math.Ceil(float64(n) / float64(cols)))
	return Grid{
		Rows:       rows,
		Cols:       cols,
		PageWidth:  pageW,
		PageHeight: pageH,
		CellWidth:  (pageW - float64(cols+1)*margin) / float64(cols),
		CellHeight: (pageH - float64(rows+1)*margin) / float64(rows),
		Margin:     margin,
	}
}

// Cell returns the upper left corner of cell i, filled row by row.
func (g Grid) Cell(i int) (x, y float64) {
	row, col := i/g.Cols, i%g.Cols
	return g.Margin + float64(col)*(g.CellWidth+g.Margin),
		g.Margin + float64(row)*(g.CellHeight+g.Margin)
}

// FitCell scales a page of size w by h into a cell, keeping its aspect
// ratio. The longer side is fitted first and the result shrunk along the
// other side if it still overflows.
func FitCell(cellW, cellH, w, h float64) (float64, float64) {
	ratio := w / h
	var dw, dh float64
	if ratio > 1 {
		dw, dh = cellW, cellW/ratio
	} else {
		dw, dh = cellH*ratio, cellH
	}
	if dw > cellW {
		dw, dh = cellW, cellW/ratio
	}
	if dh > cellH {
		dw, dh = cellH*ratio, cellH
	}
	return dw, dh
}

// ComposeGrid embeds the first page of each input PDF into one letter page,
// each centered in its cell with its label written at the top left corner.
// The page is landscape when the first input is wider than tall.
func ComposeGrid(inPaths, labels []string, outPath string) error {
	if len(inPaths) == 0 {
		return anvierr.Config("map grid needs at least one input")
	}
	if labels != nil && len(labels) != len(inPaths) {
		return anvierr.Config("map grid has %d inputs but %d labels", len(inPaths), len(labels))
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	imp := gofpdi.NewImporter()

	type page struct {
		tpl  int
		w, h float64
	}
	pages := make([]page, len(inPaths))
	for i, path := range inPaths {
		tpl, w, h, err := importPage(pdf, imp, path)
		if err != nil {
			return err
		}
		pages[i] = page{tpl: tpl, w: w, h: h}
	}

	pageW, pageH, orient := letterWidth, letterHeight, "P"
	if pages[0].w/pages[0].h > 1 {
		pageW, pageH, orient = letterHeight, letterWidth, "L"
	}
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat(orient, fpdf.SizeType{Wd: letterWidth, Ht: letterHeight})
	pdf.SetFont("Helvetica", "", gridMargin*0.8)

	grid := GridLayout(len(pages), pageW, pageH, gridMargin)
	for i, pg := range pages {
		x, y := grid.Cell(i)
		dw, dh := FitCell(grid.CellWidth, grid.CellHeight, pg.w, pg.h)
		dx := x + (grid.CellWidth-dw)/2
		dy := y + (grid.CellHeight-dh)/2
		imp.UseImportedTemplate(pdf, pg.tpl, dx, dy, dw, dh)
		if labels != nil {
			pdf.Text(dx, dy, labels[i])
		}
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write map grid %s: %w", outPath, err)
	}
	return nil
}

// PageSize returns the size in points of the first page of a PDF.
func PageSize(path string) (float64, float64, error) {
	_, w, h, err := importPage(fpdf.New("P", "pt", "Letter", ""), gofpdi.NewImporter(), path)
	return w, h, err
}

// importPage registers page 1 of path as a template. The importer panics on
// unreadable files, so panics are turned into errors.
func importPage(pdf *fpdf.Fpdf, imp *gofpdi.Importer, path string) (tpl int, w, h float64, err error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, 0, fmt.Errorf("import page: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import %s: %v", path, r)
		}
	}()

	tpl = imp.ImportPage(pdf, path, 1, "/MediaBox")
	if err := pdf.Error(); err != nil {
		return 0, 0, 0, fmt.Errorf("import %s: %w", path, err)
	}
	box := imp.GetPageSizes()[1]["/MediaBox"]
	if box["w"] <= 0 || box["h"] <= 0 {
		return 0, 0, 0, fmt.Errorf("import %s: page has no size", path)
	}
	return tpl, box["w"], box["h"], nil
}
