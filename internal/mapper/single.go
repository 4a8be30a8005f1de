package mapper

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/anviodb"
	"github.com/merenlab/anvigo/internal/colors"
	"github.com/merenlab/anvigo/internal/membership"
)

// SingleOptions configures a run over one source.
type SingleOptions struct {
	// Patterns select map numbers; nil selects all available maps.
	Patterns []string
	// ColorHex is the highlight color, or "original". Empty uses DefaultColor.
	ColorHex string
	// DrawLacking draws maps without any selected ortholog.
	DrawLacking bool
}

// MapIDs draws the maps highlighting ids into outDir. It reports for each
// selected map whether it was drawn.
func (m *Mapper) MapIDs(ctx context.Context, ids []string, outDir string, opts SingleOptions) (map[string]bool, error) {
	a, err := fixedAssignment(opts.ColorHex)
	if err != nil {
		return nil, err
	}
	numbers, err := m.FindMaps(ctx, outDir, opts.Patterns)
	if err != nil {
		return nil, err
	}
	mem := membership.Resolve(map[string][]string{"": ids})
	drawn, err := m.drawAll(numbers, mem, a, outDir, opts.DrawLacking)
	if err != nil {
		return nil, err
	}
	m.logger.Info("drew pathway maps",
		zap.Int("selected", len(numbers)),
		zap.Int("drawn", countDrawn(drawn)))
	return drawn, nil
}

// MapContigsDB draws maps highlighting the KOfam annotations of a contigs
// database.
func (m *Mapper) MapContigsDB(ctx context.Context, path, outDir string, opts SingleOptions) (map[string]bool, error) {
	db, err := anviodb.OpenContigs(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if !db.HasSource(anviodb.KOfam) {
		return nil, anvierr.Config("contigs database %s has not been annotated by %s", path, anviodb.KOfam)
	}
	ids, err := db.Accessions(ctx, anviodb.KOfam)
	if err != nil {
		return nil, fmt.Errorf("read %s accessions: %w", anviodb.KOfam, err)
	}
	m.logger.Info("loaded contigs database",
		zap.String("project", db.ProjectName()),
		zap.Int("kos", len(ids)))
	return m.MapIDs(ctx, ids, outDir, opts)
}

// MapGenome draws maps highlighting the KOfam annotations of one genome in
// a genomes storage database.
func (m *Mapper) MapGenome(ctx context.Context, storagePath, genome, outDir string, opts SingleOptions) (map[string]bool, error) {
	gs, err := anviodb.OpenGenomeStorage(storagePath)
	if err != nil {
		return nil, err
	}
	defer gs.Close()
	names, err := gs.GenomeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("read genome names: %w", err)
	}
	if !contains(names, genome) {
		return nil, anvierr.Config("genome %q is not in the genomes storage %s", genome, storagePath)
	}
	ids, err := gs.Accessions(ctx, genome, anviodb.KOfam)
	if err != nil {
		return nil, fmt.Errorf("read %s accessions: %w", anviodb.KOfam, err)
	}
	return m.MapIDs(ctx, ids, outDir, opts)
}

// fixedAssignment returns the coloring for a static hex code or "original".
func fixedAssignment(hex string) (*colors.Assignment, error) {
	switch hex {
	case "":
		return colors.NewStatic(DefaultColor)
	case OriginalColor:
		return colors.NewOriginal(), nil
	}
	return colors.NewStatic(hex)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
