package mapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/anviodb"
	"github.com/merenlab/anvigo/internal/anviodb/anviodbtest"
	"github.com/merenlab/anvigo/internal/kgml"
	"github.com/merenlab/anvigo/internal/membership"
)

type fakeCatalog struct {
	order []string
	docs  map[string]string
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		order: []string{"00010", "00020", "01100"},
		docs: map[string]string{
			"00010": standardMap,
			"00020": lacking,
			"01100": globalMap,
		},
	}
}

func (c *fakeCatalog) AvailableMaps(context.Context) ([]string, error) {
	return c.order, nil
}

func (c *fakeCatalog) Load(number string) (*kgml.Pathway, error) {
	doc, ok := c.docs[number]
	if !ok {
		return nil, fmt.Errorf("no map %s", number)
	}
	return kgml.Parse(strings.NewReader(doc))
}

type fakeDrawer struct {
	paths []string
	maps  map[string]*kgml.Pathway
}

func (d *fakeDrawer) Draw(p *kgml.Pathway, outPath string) error {
	if d.maps == nil {
		d.maps = make(map[string]*kgml.Pathway)
	}
	d.paths = append(d.paths, outPath)
	d.maps[outPath] = p
	return os.WriteFile(outPath, []byte("%PDF-1.4\n"), 0o644)
}

type gridCall struct {
	inputs []string
	labels []string
	out    string
}

type fakeOutputs struct {
	grids     []gridCall
	colorbars [][]string
	titles    []string
}

func (f *fakeOutputs) grid(inPaths, labels []string, outPath string) error {
	for _, p := range inPaths {
		if _, err := os.Stat(p); err != nil {
			return err
		}
	}
	f.grids = append(f.grids, gridCall{inPaths, labels, outPath})
	return os.WriteFile(outPath, []byte("%PDF-1.4\n"), 0o644)
}

func (f *fakeOutputs) colorbar(hexes, labels []string, title, outPath string) error {
	f.colorbars = append(f.colorbars, hexes)
	f.titles = append(f.titles, title)
	return os.WriteFile(outPath, []byte("%PDF-1.4\n"), 0o644)
}

func newTestMapper() (*Mapper, *fakeDrawer, *fakeOutputs) {
	d := &fakeDrawer{}
	out := &fakeOutputs{}
	m := New(newCatalog(), d)
	m.SetGridFunc(out.grid)
	m.SetColorbarFunc(out.colorbar)
	return m, d, out
}

func TestMatchMaps(t *testing.T) {
	available := []string{"00010", "00020", "01100", "01200"}
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"all", nil, available},
		{"prefix", []string{"000"}, []string{"00010", "00020"}},
		{"anchored", []string{"100"}, nil},
		{"pattern order", []string{"011", "0"}, []string{"01100", "00010", "00020", "01200"}},
		{"alternation", []string{"00010|01200"}, []string{"00010", "01200"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchMaps(available, tt.patterns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := MatchMaps(available, []string{"(0"})
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}

func TestMapIDs_OutputExists(t *testing.T) {
	m, d, _ := newTestMapper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kos_00010.pdf"), nil, 0o644))

	_, err := m.MapIDs(context.Background(), []string{"K00001"}, dir, SingleOptions{})
	assert.ErrorIs(t, err, anvierr.ErrOutputExists)
	assert.Empty(t, d.paths, "nothing is drawn")

	m.SetOverwrite(true)
	drawn, err := m.MapIDs(context.Background(), []string{"K00001"}, dir, SingleOptions{})
	require.NoError(t, err)
	assert.True(t, drawn["00010"])
}

func TestMapIDs_Lacking(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestMapper()
	dir := t.TempDir()

	drawn, err := m.MapIDs(ctx, []string{"K00001"}, dir, SingleOptions{})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"00010": true, "00020": false, "01100": true}, drawn)
	assert.FileExists(t, MapPath(dir, "00010"))
	assert.NoFileExists(t, MapPath(dir, "00020"))

	dir = t.TempDir()
	drawn, err = m.MapIDs(ctx, []string{"K00001"}, dir, SingleOptions{Patterns: []string{"00020"}, DrawLacking: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"00020": true}, drawn)
	assert.FileExists(t, MapPath(dir, "00020"))
}

func TestMapIDs_Colors(t *testing.T) {
	ctx := context.Background()
	m, d, _ := newTestMapper()
	dir := t.TempDir()

	_, err := m.MapIDs(ctx, []string{"K00002"}, dir, SingleOptions{Patterns: []string{"00010"}})
	require.NoError(t, err)
	p := d.maps[MapPath(dir, "00010")]
	require.NotNil(t, p)
	assert.Equal(t, DefaultColor, graphicsOf(p, "2").BgColor)

	_, err = m.MapIDs(ctx, nil, t.TempDir(), SingleOptions{ColorHex: "red"})
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}

func TestMapContigsDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "CONTIGS.db")
	anviodbtest.WriteContigs(t, path, anviodbtest.ContigsSpec{
		Project:   "E_coli",
		Hash:      "hash1",
		Functions: map[string][]string{anviodb.KOfam: {"K00003"}},
	})

	m, d, _ := newTestMapper()
	out := filepath.Join(dir, "maps")
	drawn, err := m.MapContigsDB(ctx, path, out, SingleOptions{Patterns: []string{"00010"}, ColorHex: "#123456"})
	require.NoError(t, err)
	assert.True(t, drawn["00010"])
	assert.Equal(t, "#123456", graphicsOf(d.maps[MapPath(out, "00010")], "3").BgColor)

	bare := filepath.Join(dir, "BARE.db")
	anviodbtest.WriteContigs(t, bare, anviodbtest.ContigsSpec{Project: "bare", Hash: "hash2"})
	_, err = m.MapContigsDB(ctx, bare, out, SingleOptions{})
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}

func TestMapGenome(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "GENOMES.db")
	anviodbtest.WriteGenomeStorage(t, path, "h", []string{"g1", "g2"}, []anviodbtest.Call{
		{Genome: "g1", Gene: 1, Source: anviodb.KOfam, Accession: "K00001"},
		{Genome: "g2", Gene: 1, Source: anviodb.KOfam, Accession: "K00002"},
	})

	m, _, _ := newTestMapper()
	drawn, err := m.MapGenome(ctx, path, "g2", filepath.Join(dir, "g2"), SingleOptions{Patterns: []string{"00010", "00020"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"00010": true, "00020": false}, drawn)

	_, err = m.MapGenome(ctx, path, "g3", filepath.Join(dir, "g3"), SingleOptions{})
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}

func writeContigsDBs(t *testing.T, dir string, kos map[string][]string) []string {
	t.Helper()
	var paths []string
	for _, name := range []string{"A", "B", "C"} {
		ids, ok := kos[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name+".db")
		anviodbtest.WriteContigs(t, p, anviodbtest.ContigsSpec{
			Project:   name,
			Hash:      "hash" + name,
			Functions: map[string][]string{anviodb.KOfam: ids},
		})
		paths = append(paths, p)
	}
	return paths
}

func TestMapContigsDBs_Combination(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := writeContigsDBs(t, dir, map[string][]string{
		"A": {"K00001"},
		"B": {"K00002"},
		"C": {"K00001"},
	})

	m, d, out := newTestMapper()
	outDir := filepath.Join(dir, "maps")
	res, err := m.MapContigsDBs(ctx, paths, outDir, MultiOptions{
		Patterns: []string{"00010"},
		Colorbar: true,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"00010": true}, res.Unified)
	assert.Empty(t, res.Individual)
	assert.Nil(t, res.Grid)

	require.Len(t, out.colorbars, 1)
	assert.Len(t, out.colorbars[0], 7)
	assert.Equal(t, []string{"databases"}, out.titles)
	assert.FileExists(t, filepath.Join(outDir, "colorbar.pdf"))

	// tab10 entry for (A, C)
	p := d.maps[MapPath(outDir, "00010")]
	assert.Equal(t, "#9467bd", graphicsOf(p, "1").BgColor)
	assert.Equal(t, out.colorbars[0][4], graphicsOf(p, "1").BgColor)
}

func TestMapContigsDBs_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := writeContigsDBs(t, dir, map[string][]string{"A": {"K00001"}, "B": {"K00002"}})
	m, d, _ := newTestMapper()

	t.Run("duplicate project", func(t *testing.T) {
		_, err := m.MapContigsDBs(ctx, []string{paths[0], paths[0]}, t.TempDir(), MultiOptions{})
		assert.ErrorIs(t, err, anvierr.ErrConfig)
	})

	t.Run("unknown grid source", func(t *testing.T) {
		_, err := m.MapContigsDBs(ctx, paths, t.TempDir(), MultiOptions{Grid: Selection{Names: []string{"Z"}}})
		assert.ErrorIs(t, err, anvierr.ErrConfig)
	})

	t.Run("capacity", func(t *testing.T) {
		_, err := m.MapContigsDBs(ctx, paths, t.TempDir(), MultiOptions{
			Scheme:   "combination",
			Colormap: "tab10",
			Limits:   []float64{0, 0.1},
		})
		assert.ErrorIs(t, err, anvierr.ErrCapacity)
	})

	t.Run("existing individual map", func(t *testing.T) {
		outDir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(outDir, "B"), 0o755))
		require.NoError(t, os.WriteFile(MapPath(filepath.Join(outDir, "B"), "00010"), nil, 0o644))
		drawsBefore := len(d.paths)
		_, err := m.MapContigsDBs(ctx, paths, outDir, MultiOptions{Individual: Selection{All: true}})
		assert.ErrorIs(t, err, anvierr.ErrOutputExists)
		assert.Len(t, d.paths, drawsBefore)
	})
}

func TestMapContigsDBs_IndividualAndGrid(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := writeContigsDBs(t, dir, map[string][]string{
		"A": {"K00001"},
		"B": {"K00002"},
		"C": {"K00001", "K00002"},
	})

	m, _, out := newTestMapper()
	outDir := filepath.Join(dir, "maps")
	res, err := m.MapContigsDBs(ctx, paths, outDir, MultiOptions{
		Patterns:   []string{"00010", "00020", "01100"},
		Individual: Selection{Names: []string{"A", "A"}},
		Grid:       Selection{All: true},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"00010": true, "00020": false, "01100": true}, res.Unified)
	assert.Equal(t, map[string]map[string]bool{
		"A": {"00010": true, "00020": false, "01100": true},
	}, res.Individual)
	assert.Equal(t, map[string]bool{"00010": true, "00020": false, "01100": true}, res.Grid)

	require.Len(t, out.grids, 2)
	assert.Equal(t, []string{"all", "A", "B", "C"}, out.grids[0].labels)
	assert.Equal(t, MapPath(filepath.Join(outDir, "grid"), "00010"), out.grids[0].out)
	assert.Equal(t, []string{
		MapPath(outDir, "00010"),
		MapPath(filepath.Join(outDir, "A"), "00010"),
		MapPath(filepath.Join(outDir, "B"), "00010"),
		MapPath(filepath.Join(outDir, "C"), "00010"),
	}, out.grids[0].inputs)

	assert.FileExists(t, MapPath(filepath.Join(outDir, "A"), "00010"))
	assert.FileExists(t, MapPath(filepath.Join(outDir, "A"), "01100"))
	assert.FileExists(t, MapPath(filepath.Join(outDir, "grid"), "01100"))
	assert.NoDirExists(t, filepath.Join(outDir, "B"), "grid-only maps are removed")
	assert.NoDirExists(t, filepath.Join(outDir, "C"))
}

func TestMapContigsDBs_SourceDirs(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		project string
		ok      bool
	}{
		{"grid", false},
		{"colorbar.pdf", false},
		{"kos_00010.pdf", false},
		{"..", false},
		{"x/y", false},
		{"a..b", false},
		{"grid_2", true},
	}
	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			dir := t.TempDir()
			a := filepath.Join(dir, "A.db")
			anviodbtest.WriteContigs(t, a, anviodbtest.ContigsSpec{
				Project: "A", Hash: "hashA",
				Functions: map[string][]string{anviodb.KOfam: {"K00001"}},
			})
			b := filepath.Join(dir, "B.db")
			anviodbtest.WriteContigs(t, b, anviodbtest.ContigsSpec{
				Project: tt.project, Hash: "hashB",
				Functions: map[string][]string{anviodb.KOfam: {"K00002"}},
			})

			m, d, _ := newTestMapper()
			outDir := filepath.Join(dir, "maps")
			res, err := m.MapContigsDBs(ctx, []string{a, b}, outDir, MultiOptions{
				Patterns: []string{"00010"},
				Grid:     Selection{All: true},
			})
			if !tt.ok {
				assert.ErrorIs(t, err, anvierr.ErrConfig)
				assert.Empty(t, d.paths, "nothing is drawn")
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Grid["00010"])
			assert.FileExists(t, MapPath(filepath.Join(outDir, "grid"), "00010"))
		})
	}

	// a name only matters once it gets a directory
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "A.db"), filepath.Join(dir, "B.db")}
	for i, project := range []string{"A", "grid"} {
		anviodbtest.WriteContigs(t, paths[i], anviodbtest.ContigsSpec{
			Project: project, Hash: "hash" + project,
			Functions: map[string][]string{anviodb.KOfam: {"K00001"}},
		})
	}
	m, _, _ := newTestMapper()
	res, err := m.MapContigsDBs(ctx, paths, filepath.Join(dir, "maps"), MultiOptions{
		Patterns:   []string{"00010"},
		Individual: Selection{Names: []string{"A"}},
	})
	require.NoError(t, err)
	assert.True(t, res.Unified["00010"])
}

func TestMapContigsDBs_Backfill(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := writeContigsDBs(t, dir, map[string][]string{
		"A": {"K00001"},
		"B": {"K00009"},
	})

	m, _, out := newTestMapper()
	outDir := filepath.Join(dir, "maps")
	res, err := m.MapContigsDBs(ctx, paths, outDir, MultiOptions{
		Patterns:   []string{"00010"},
		Individual: Selection{All: true},
		Grid:       Selection{All: true},
	})
	require.NoError(t, err)

	assert.True(t, res.Grid["00010"])
	assert.Equal(t, map[string]bool{"00010": false}, res.Individual["B"])
	require.Len(t, out.grids, 1)
	assert.Contains(t, out.grids[0].inputs, MapPath(filepath.Join(outDir, "B"), "00010"))
	assert.NoFileExists(t, MapPath(filepath.Join(outDir, "B"), "00010"), "blank map drawn only for the grid")
	assert.FileExists(t, MapPath(filepath.Join(outDir, "A"), "00010"))
}

func TestMapPan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage := filepath.Join(dir, "GENOMES.db")
	anviodbtest.WriteGenomeStorage(t, storage, "gs1", []string{"g1", "g2"}, []anviodbtest.Call{
		{Genome: "g1", Gene: 1, Source: anviodb.KOfam, Accession: "K00001"},
		{Genome: "g2", Gene: 7, Source: anviodb.KOfam, Accession: "K00001"},
		{Genome: "g2", Gene: 8, Source: anviodb.KOfam, Accession: "K00002"},
		{Genome: "g1", Gene: 2, Source: anviodb.KOfam, Accession: "K00003"},
		{Genome: "g2", Gene: 9, Source: anviodb.KOfam, Accession: "K00002"},
	})
	pan := filepath.Join(dir, "PAN.db")
	anviodbtest.WritePan(t, pan, anviodbtest.PanSpec{
		Project:     "pan",
		StorageHash: "gs1",
		External:    []string{"g1", "g2"},
		ClusterGenes: []anviodbtest.ClusterGene{
			{Cluster: "GC1", Genome: "g1", Gene: 1},
			{Cluster: "GC1", Genome: "g2", Gene: 7},
			{Cluster: "GC2", Genome: "g2", Gene: 8},
			{Cluster: "GC3", Genome: "g1", Gene: 2},
			{Cluster: "GC3", Genome: "g2", Gene: 9},
		},
		Meta: map[string]string{
			"reaction_network_consensus_threshold": "0",
			"reaction_network_discard_ties":        "1",
		},
	})

	m, d, out := newTestMapper()
	outDir := filepath.Join(dir, "maps")
	res, err := m.MapPan(ctx, pan, storage, outDir, MultiOptions{Patterns: []string{"00010"}, Colorbar: true}, ConsensusOverride{})
	require.NoError(t, err)
	assert.True(t, res.Unified["00010"])
	assert.Equal(t, []string{"genomes"}, out.titles)

	p := d.maps[MapPath(outDir, "00010")]
	counts := out.colorbars[0]
	require.Len(t, counts, 2)
	assert.Equal(t, counts[1], graphicsOf(p, "1").BgColor, "K00001 is in both genomes")
	assert.Equal(t, counts[0], graphicsOf(p, "2").BgColor)
	assert.Equal(t, white, graphicsOf(p, "3").BgColor, "tied cluster has no consensus")

	// a threshold alone keeps the stored discard ties flag
	threshold := 0.4
	outDir = t.TempDir()
	res, err = m.MapPan(ctx, pan, storage, outDir, MultiOptions{Patterns: []string{"00010"}, Colorbar: true},
		ConsensusOverride{Threshold: &threshold})
	require.NoError(t, err)
	assert.True(t, res.Unified["00010"])
	p = d.maps[MapPath(outDir, "00010")]
	assert.Equal(t, out.colorbars[1][0], graphicsOf(p, "2").BgColor, "tied cluster still has no consensus")

	// keeping ties lets the smallest KO of the tied cluster win
	keep := false
	outDir = t.TempDir()
	_, err = m.MapPan(ctx, pan, storage, outDir, MultiOptions{Patterns: []string{"00010"}, Colorbar: true},
		ConsensusOverride{DiscardTies: &keep})
	require.NoError(t, err)
	p = d.maps[MapPath(outDir, "00010")]
	assert.Equal(t, out.colorbars[2][1], graphicsOf(p, "2").BgColor, "K00002 wins the tie in both genomes")

	bad := 1.5
	_, err = m.MapPan(ctx, pan, storage, t.TempDir(), MultiOptions{}, ConsensusOverride{Threshold: &bad})
	assert.ErrorIs(t, err, anvierr.ErrConfig)

	other := filepath.Join(dir, "OTHER.db")
	anviodbtest.WriteGenomeStorage(t, other, "gs2", []string{"g1"}, nil)
	_, err = m.MapPan(ctx, pan, other, t.TempDir(), MultiOptions{}, ConsensusOverride{})
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}

func TestConsensusOverride(t *testing.T) {
	stored := membership.ConsensusOptions{Threshold: 0.5, DiscardTies: true}
	half, off := 0.25, false
	tests := []struct {
		name     string
		override ConsensusOverride
		want     membership.ConsensusOptions
	}{
		{"none", ConsensusOverride{}, stored},
		{"threshold only", ConsensusOverride{Threshold: &half}, membership.ConsensusOptions{Threshold: 0.25, DiscardTies: true}},
		{"ties only", ConsensusOverride{DiscardTies: &off}, membership.ConsensusOptions{Threshold: 0.5}},
		{"both", ConsensusOverride{Threshold: &half, DiscardTies: &off}, membership.ConsensusOptions{Threshold: 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.override.apply(stored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelection(t *testing.T) {
	sources := []string{"A", "B", "C"}

	got, err := Selection{All: true}.resolve(sources)
	require.NoError(t, err)
	assert.Equal(t, sources, got)

	got, err = Selection{Names: []string{"C", "A", "C"}}.resolve(sources)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, got)

	got, err = Selection{}.resolve(sources)
	require.NoError(t, err)
	assert.Empty(t, got)
	_, err = Selection{Names: []string{"D"}}.resolve(sources)
	assert.ErrorIs(t, err, anvierr.ErrConfig)
}
