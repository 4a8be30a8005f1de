package mapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/anviodb"
	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/membership"
)

// Default palettes of the dynamic coloring modes.
const (
	DefaultCountColormap       = "plasma_r"
	DefaultCombinationColormap = "tab10"
)

var defaultCountLimits = []float64{0.1, 0.9}

// Selection names the sources that get their own maps. All selects every
// source; otherwise Names are used in order without duplicates.
type Selection struct {
	All   bool
	Names []string
}

func (s Selection) resolve(sources []string) ([]string, error) {
	if s.All {
		return append([]string(nil), sources...), nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, n := range s.Names {
		if !contains(sources, n) {
			return nil, anvierr.Config("%q is not one of the sources: %s", n, strings.Join(sources, ", "))
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// MultiOptions configures a run over several sources.
type MultiOptions struct {
	Patterns []string
	// ColorHex colors individual maps, and unified maps when Colormap is
	// NoColormap. Empty uses DefaultColor.
	ColorHex string
	// Colormap names the palette of unified maps. Empty picks the default
	// for the scheme.
	Colormap string
	// Limits trims the palette to a fractional range.
	Limits         []float64
	Scheme         string
	ReverseOverlay bool
	// Colorbar writes a legend of the unified map colors.
	Colorbar    bool
	DrawLacking bool
	// Individual sources get maps of their own under <out>/<source>.
	Individual Selection
	// Grid sources are composed with the unified map under <out>/grid.
	Grid Selection
}

// Result reports which maps were drawn, keyed by map number.
type Result struct {
	Unified    map[string]bool
	Individual map[string]map[string]bool
	Grid       map[string]bool
}

// multiRun is one unified run and the per-source maps that go with it.
type multiRun struct {
	sources []string
	mem     membership.Map
	own     map[string]membership.Map

	scheme     string
	label      string
	countTitle string
	comboTitle string
}

// MapContigsDBs draws unified maps over several contigs databases, each
// named by its project name.
func (m *Mapper) MapContigsDBs(ctx context.Context, paths []string, outDir string, opts MultiOptions) (*Result, error) {
	if len(paths) == 0 {
		return nil, anvierr.Config("no contigs databases were given")
	}
	run := &multiRun{
		own:        make(map[string]membership.Map, len(paths)),
		scheme:     opts.Scheme,
		label:      "all",
		countTitle: "database count",
		comboTitle: "databases",
	}
	lists := make(map[string][]string, len(paths))
	for _, p := range paths {
		name, ids, err := contigsKOs(ctx, p)
		if err != nil {
			return nil, err
		}
		if _, dup := lists[name]; dup {
			return nil, anvierr.Config("more than one contigs database has the project name %q", name)
		}
		run.sources = append(run.sources, name)
		lists[name] = ids
		run.own[name] = membership.Resolve(map[string][]string{name: ids})
	}
	run.mem = membership.Resolve(lists)
	return m.runMulti(ctx, run, outDir, opts)
}

func contigsKOs(ctx context.Context, path string) (string, []string, error) {
	db, err := anviodb.OpenContigs(path)
	if err != nil {
		return "", nil, err
	}
	defer db.Close()
	if !db.HasSource(anviodb.KOfam) {
		return "", nil, anvierr.Config("contigs database %s has not been annotated by %s", path, anviodb.KOfam)
	}
	ids, err := db.Accessions(ctx, anviodb.KOfam)
	if err != nil {
		return "", nil, fmt.Errorf("read %s accessions from %s: %w", anviodb.KOfam, path, err)
	}
	return db.ProjectName(), ids, nil
}

// ConsensusOverride replaces consensus parameters stored in a pan database.
// Nil fields keep the stored value.
type ConsensusOverride struct {
	Threshold   *float64
	DiscardTies *bool
}

// apply returns stored with the set fields of o replacing its values.
func (o ConsensusOverride) apply(stored membership.ConsensusOptions) (membership.ConsensusOptions, error) {
	if o.Threshold != nil {
		if *o.Threshold < 0 || *o.Threshold > 1 {
			return stored, anvierr.Config("consensus threshold %g is not between 0 and 1", *o.Threshold)
		}
		stored.Threshold = *o.Threshold
	}
	if o.DiscardTies != nil {
		stored.DiscardTies = *o.DiscardTies
	}
	return stored, nil
}

// MapPan draws unified maps of a pangenome. Genomes are the sources: a KO
// belongs to every genome contributing genes to a gene cluster with that
// consensus KO. Consensus parameters are read from the pan database and
// replaced by the set fields of override.
func (m *Mapper) MapPan(ctx context.Context, panPath, storagePath, outDir string, opts MultiOptions, override ConsensusOverride) (*Result, error) {
	pan, err := anviodb.OpenPan(panPath)
	if err != nil {
		return nil, err
	}
	defer pan.Close()
	gs, err := anviodb.OpenGenomeStorage(storagePath)
	if err != nil {
		return nil, err
	}
	defer gs.Close()
	if pan.GenomesStorageHash() != gs.Hash() {
		return nil, anvierr.Config("pan database %s was not built from genomes storage %s", panPath, storagePath)
	}

	stored, err := pan.ConsensusOptions()
	if err != nil {
		return nil, err
	}
	copts, err := override.apply(stored)
	if err != nil {
		return nil, err
	}

	genomes := pan.GenomeNames()
	if len(genomes) == 0 {
		return nil, anvierr.Config("pan database %s lists no genomes", panPath)
	}
	clusters, err := pan.GeneClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gene clusters: %w", err)
	}
	calls, err := gs.FunctionCalls(ctx, anviodb.KOfam)
	if err != nil {
		return nil, fmt.Errorf("read %s calls: %w", anviodb.KOfam, err)
	}

	scheme := opts.Scheme
	if scheme == colors.SchemeAuto {
		scheme = colors.SchemeCount
	}
	run := &multiRun{
		sources:    genomes,
		mem:        membership.FromClusters(clusters, membership.ConsensusIDs(clusters, calls, copts)),
		own:        make(map[string]membership.Map, len(genomes)),
		scheme:     scheme,
		label:      "pangenome",
		countTitle: "genomes",
		comboTitle: "genomes",
	}
	for _, g := range genomes {
		ids, err := gs.Accessions(ctx, g, anviodb.KOfam)
		if err != nil {
			return nil, fmt.Errorf("read %s accessions of %s: %w", anviodb.KOfam, g, err)
		}
		run.own[g] = membership.Resolve(map[string][]string{g: ids})
	}
	m.logger.Info("loaded pangenome",
		zap.String("project", pan.ProjectName()),
		zap.Int("genomes", len(genomes)),
		zap.Int("gene_clusters", len(clusters)),
		zap.Float64("consensus_threshold", copts.Threshold),
		zap.Bool("discard_ties", copts.DiscardTies))
	return m.runMulti(ctx, run, outDir, opts)
}

// unifiedAssignment builds the coloring of unified maps.
func unifiedAssignment(run *multiRun, opts MultiOptions) (*colors.Assignment, error) {
	if opts.Colormap == NoColormap {
		return fixedAssignment(opts.ColorHex)
	}
	mode, err := colors.ResolveScheme(run.scheme, len(run.sources))
	if err != nil {
		return nil, err
	}
	name := opts.Colormap
	if name == "" {
		name = DefaultCombinationColormap
		if mode == colors.ByCount {
			name = DefaultCountColormap
		}
	}
	cmap, err := colors.Lookup(name)
	if err != nil {
		return nil, err
	}
	limits := opts.Limits
	if limits == nil {
		limits = []float64{0, 1}
		if mode == colors.ByCount && !cmap.Discrete() {
			limits = defaultCountLimits
		}
	}
	if len(limits) != 2 {
		return nil, anvierr.Config("colormap limits need two values, got %d", len(limits))
	}
	if cmap, err = cmap.Trim(limits[0], limits[1]); err != nil {
		return nil, err
	}

	if mode == colors.ByCount {
		return colors.NewByCount(cmap, len(run.sources), opts.ReverseOverlay)
	}
	return colors.NewByCombination(cmap, run.sources, opts.ReverseOverlay)
}

func (m *Mapper) runMulti(ctx context.Context, run *multiRun, outDir string, opts MultiOptions) (*Result, error) {
	unified, err := unifiedAssignment(run, opts)
	if err != nil {
		return nil, err
	}
	individualColors, err := fixedAssignment(opts.ColorHex)
	if err != nil {
		return nil, err
	}
	individual, err := opts.Individual.resolve(run.sources)
	if err != nil {
		return nil, err
	}
	grid, err := opts.Grid.resolve(run.sources)
	if err != nil {
		return nil, err
	}
	perSource := make([]string, 0, len(run.sources))
	for _, s := range run.sources {
		if contains(individual, s) || contains(grid, s) {
			if err := checkSourceDir(s); err != nil {
				return nil, err
			}
			perSource = append(perSource, s)
		}
	}

	numbers, err := m.FindMaps(ctx, outDir, opts.Patterns)
	if err != nil {
		return nil, err
	}
	colorbarPath := ""
	if opts.Colorbar && (unified.Mode() == colors.ByCount || unified.Mode() == colors.ByCombination) {
		colorbarPath = filepath.Join(outDir, colorbarFile)
	}
	if err := m.checkRunOutputs(outDir, numbers, perSource, len(grid) > 0, colorbarPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if colorbarPath != "" {
		title := run.countTitle
		if unified.Mode() == colors.ByCombination {
			title = run.comboTitle
		}
		if err := m.colorbar(unified.Colors(), unified.Labels(), title, colorbarPath); err != nil {
			return nil, fmt.Errorf("draw colorbar: %w", err)
		}
	}

	res := &Result{Individual: make(map[string]map[string]bool)}
	if res.Unified, err = m.drawAll(numbers, run.mem, unified, outDir, opts.DrawLacking); err != nil {
		return nil, err
	}

	sub := m.quiet()
	drawn := make(map[string]map[string]bool, len(perSource))
	for _, s := range perSource {
		if drawn[s], err = sub.drawAll(numbers, run.own[s], individualColors, filepath.Join(outDir, s), opts.DrawLacking); err != nil {
			return nil, fmt.Errorf("draw maps of %s: %w", s, err)
		}
	}

	var backfilled []string
	if len(grid) > 0 {
		res.Grid, backfilled, err = sub.composeGrids(run, numbers, grid, drawn, res.Unified, individualColors, outDir)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range backfilled {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove grid-only map: %w", err)
		}
	}
	for _, s := range perSource {
		if contains(individual, s) {
			res.Individual[s] = drawn[s]
			continue
		}
		if err := os.RemoveAll(filepath.Join(outDir, s)); err != nil {
			return nil, fmt.Errorf("remove grid-only maps of %s: %w", s, err)
		}
	}

	fields := []zap.Field{
		zap.Int("selected", len(numbers)),
		zap.Int("unified_drawn", countDrawn(res.Unified)),
		zap.String("coloring", unified.Mode().String()),
	}
	for s, d := range res.Individual {
		fields = append(fields, zap.Int("drawn_"+s, countDrawn(d)))
	}
	if res.Grid != nil {
		fields = append(fields, zap.Int("grids_drawn", countDrawn(res.Grid)))
	}
	m.logger.Info("drew pathway maps", fields...)
	return res, nil
}

// checkSourceDir rejects source names that cannot be a directory of their
// own next to the other outputs of a run.
func checkSourceDir(name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return anvierr.Config("source name %q cannot name a directory", name)
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return anvierr.Config("source name %q must not contain path separators or \"..\"", name)
	case name == gridDir || name == colorbarFile:
		return anvierr.Config("source name %q is taken by the %s output", name, name)
	case strings.HasPrefix(name, filePrefix+"_") && strings.HasSuffix(name, ".pdf"):
		return anvierr.Config("source name %q is taken by a unified map", name)
	}
	return nil
}

// checkRunOutputs fails before anything is drawn if any output of the run
// exists and overwriting is off.
func (m *Mapper) checkRunOutputs(outDir string, numbers, perSource []string, grid bool, colorbarPath string) error {
	var paths []string
	if colorbarPath != "" {
		paths = append(paths, colorbarPath)
	}
	for _, n := range numbers {
		for _, s := range perSource {
			paths = append(paths, MapPath(filepath.Join(outDir, s), n))
		}
		if grid {
			paths = append(paths, MapPath(filepath.Join(outDir, gridDir), n))
		}
	}
	return m.checkOutputs(paths...)
}

// composeGrids writes one grid per drawn unified map. Missing maps of grid
// sources are drawn blank so that every cell is filled; their paths are
// returned for removal.
func (m *Mapper) composeGrids(run *multiRun, numbers, grid []string, drawn map[string]map[string]bool, unified map[string]bool, a *colors.Assignment, outDir string) (map[string]bool, []string, error) {
	dir := filepath.Join(outDir, gridDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create grid directory: %w", err)
	}
	labels := append([]string{run.label}, grid...)

	out := make(map[string]bool, len(numbers))
	var backfilled []string
	for _, n := range numbers {
		out[n] = false
		if !unified[n] {
			continue
		}
		inputs := []string{MapPath(outDir, n)}
		complete := true
		for _, s := range grid {
			srcDir := filepath.Join(outDir, s)
			if !drawn[s][n] {
				ok, err := m.drawMap(n, run.own[s], a, srcDir, true)
				if err != nil {
					return nil, nil, fmt.Errorf("draw blank map of %s: %w", s, err)
				}
				if !ok {
					complete = false
					break
				}
				backfilled = append(backfilled, MapPath(srcDir, n))
			}
			inputs = append(inputs, MapPath(srcDir, n))
		}
		if !complete {
			continue
		}
		if err := m.grid(inputs, labels, MapPath(dir, n)); err != nil {
			return nil, nil, fmt.Errorf("compose grid of map %s: %w", n, err)
		}
		out[n] = true
	}
	return out, backfilled, nil
}
