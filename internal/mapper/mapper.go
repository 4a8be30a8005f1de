// Package mapper draws KEGG pathway maps highlighting the orthologs found in
// anvi'o databases.
//
// A run selects maps, colors each with ColorPathway and hands it to a
// Drawer. Runs over several sources draw a unified map per pathway and,
// on request, per-source maps and grids combining both.
package mapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/kgml"
	"github.com/merenlab/anvigo/internal/membership"
	"github.com/merenlab/anvigo/internal/render"
)

const (
	// DefaultColor highlights reactions in static runs.
	DefaultColor = "#2ca02c"
	// OriginalColor keeps the reference map's own colors.
	OriginalColor = "original"
	// NoColormap disables dynamic coloring in multi-source runs.
	NoColormap = "none"

	filePrefix   = "kos"
	colorbarFile = "colorbar.pdf"
	gridDir      = "grid"
)

// Catalog lists and loads the pathway maps available for drawing.
type Catalog interface {
	AvailableMaps(ctx context.Context) ([]string, error)
	Load(number string) (*kgml.Pathway, error)
}

// Drawer renders a colored pathway to a file.
type Drawer interface {
	Draw(p *kgml.Pathway, outPath string) error
}

// GridFunc composes single-page PDFs into one labeled grid page.
type GridFunc func(inPaths, labels []string, outPath string) error

// ColorbarFunc writes a legend of colors.
type ColorbarFunc func(hexes, labels []string, title, outPath string) error

// Mapper draws pathway maps into output directories.
type Mapper struct {
	maps      Catalog
	drawer    Drawer
	grid      GridFunc
	colorbar  ColorbarFunc
	backdrop  Backdrop
	overwrite bool
	logger    *zap.Logger

	available []string
}

// New creates a Mapper drawing maps from the catalog.
func New(maps Catalog, drawer Drawer) *Mapper {
	return &Mapper{
		maps:     maps,
		drawer:   drawer,
		grid:     render.ComposeGrid,
		colorbar: render.Colorbar,
		backdrop: DefaultBackdrop,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for run summaries.
func (m *Mapper) SetLogger(l *zap.Logger) {
	m.logger = l
}

// SetOverwrite allows existing output files to be replaced.
func (m *Mapper) SetOverwrite(ok bool) {
	m.overwrite = ok
}

// SetBackdrop sets the shades of unhighlighted reactions.
func (m *Mapper) SetBackdrop(b Backdrop) {
	m.backdrop = b
}

// SetGridFunc replaces the grid composer.
func (m *Mapper) SetGridFunc(f GridFunc) {
	m.grid = f
}

// SetColorbarFunc replaces the legend writer.
func (m *Mapper) SetColorbarFunc(f ColorbarFunc) {
	m.colorbar = f
}

// quiet returns a copy of m that logs nothing, for sub-runs.
func (m *Mapper) quiet() *Mapper {
	q := *m
	q.logger = zap.NewNop()
	return &q
}

// MapPath returns the output file of a map in dir.
func MapPath(dir, number string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.pdf", filePrefix, number))
}

func (m *Mapper) availableMaps(ctx context.Context) ([]string, error) {
	if m.available == nil {
		nums, err := m.maps.AvailableMaps(ctx)
		if err != nil {
			return nil, fmt.Errorf("list available maps: %w", err)
		}
		m.available = nums
	}
	return m.available, nil
}

// MatchMaps returns the available maps whose numbers match any pattern
// anchored at the start, in pattern order without duplicates. No patterns
// selects every available map.
func MatchMaps(available, patterns []string) ([]string, error) {
	if patterns == nil {
		return append([]string(nil), available...), nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, pat := range patterns {
		re, err := regexp.Compile(`^(?:` + pat + `)`)
		if err != nil {
			return nil, anvierr.Config("malformed map number pattern %q: %v", pat, err)
		}
		for _, num := range available {
			if re.MatchString(num) && !seen[num] {
				seen[num] = true
				out = append(out, num)
			}
		}
	}
	return out, nil
}

// FindMaps selects the maps to draw into outDir and fails with
// ErrOutputExists if any target file is present and overwriting is off.
func (m *Mapper) FindMaps(ctx context.Context, outDir string, patterns []string) ([]string, error) {
	available, err := m.availableMaps(ctx)
	if err != nil {
		return nil, err
	}
	numbers, err := MatchMaps(available, patterns)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(numbers))
	for i, n := range numbers {
		paths[i] = MapPath(outDir, n)
	}
	if err := m.checkOutputs(paths...); err != nil {
		return nil, err
	}
	return numbers, nil
}

func (m *Mapper) checkOutputs(paths ...string) error {
	if m.overwrite {
		return nil
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return anvierr.OutputExists(p)
		}
	}
	return nil
}

// drawMap colors and draws one map. It reports whether a file was written.
func (m *Mapper) drawMap(number string, mem membership.Map, a *colors.Assignment, outDir string, drawLacking bool) (bool, error) {
	p, err := m.maps.Load(number)
	if err != nil {
		return false, err
	}
	ok, err := ColorPathway(p, mem, a, drawLacking, m.backdrop)
	if err != nil {
		return false, fmt.Errorf("color map %s: %w", number, err)
	}
	if !ok {
		m.logger.Debug("map lacks selected orthologs", zap.String("map", number))
		return false, nil
	}

	out := MapPath(outDir, number)
	if m.overwrite {
		if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("remove old map: %w", err)
		}
	}
	if err := m.drawer.Draw(p, out); err != nil {
		return false, fmt.Errorf("draw map %s: %w", number, err)
	}
	return true, nil
}

// drawAll draws every map in numbers into outDir.
func (m *Mapper) drawAll(numbers []string, mem membership.Map, a *colors.Assignment, outDir string, drawLacking bool) (map[string]bool, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	drawn := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		ok, err := m.drawMap(n, mem, a, outDir, drawLacking)
		if err != nil {
			return nil, err
		}
		drawn[n] = ok
	}
	return drawn, nil
}

func countDrawn(drawn map[string]bool) int {
	n := 0
	for _, ok := range drawn {
		if ok {
			n++
		}
	}
	return n
}
