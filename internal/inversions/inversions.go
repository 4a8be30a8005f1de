// Package inversions gathers per-nucleotide coverages of contigs from
// profile databases of the "inversions" variant and reports stretches of
// high coverage in them.
package inversions

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/anviodb"
)

// Variant is the profile database variant produced with the inversions
// fetch filter.
const Variant = "inversions"

// Inversions reads contig coverages of several profiles of one contigs
// database.
type Inversions struct {
	contigsPath  string
	profilePaths []string
	contigs      []string
	splits       map[string][]string
	logger       *zap.Logger
}

// New checks the databases and maps each profiled contig to its splits.
func New(ctx context.Context, contigsPath string, profilePaths []string) (*Inversions, error) {
	if err := SanityCheck(contigsPath, profilePaths); err != nil {
		return nil, err
	}

	first, err := anviodb.OpenProfile(profilePaths[0])
	if err != nil {
		return nil, err
	}
	profiled, err := first.SplitNames(ctx)
	first.Close()
	if err != nil {
		return nil, fmt.Errorf("read profiled splits: %w", err)
	}

	cdb, err := anviodb.OpenContigs(contigsPath)
	if err != nil {
		return nil, err
	}
	defer cdb.Close()
	all, err := cdb.Splits(ctx)
	if err != nil {
		return nil, fmt.Errorf("read splits: %w", err)
	}

	want := make(map[string]bool, len(profiled))
	for _, s := range profiled {
		want[s] = true
	}
	inv := &Inversions{
		contigsPath:  contigsPath,
		profilePaths: profilePaths,
		splits:       make(map[string][]string),
		logger:       zap.NewNop(),
	}
	for contig, names := range all {
		for _, s := range names {
			if want[s] {
				inv.splits[contig] = append(inv.splits[contig], s)
			}
		}
		if len(inv.splits[contig]) > 0 {
			inv.contigs = append(inv.contigs, contig)
		}
	}
	sort.Strings(inv.contigs)
	return inv, nil
}

// SetLogger sets the logger for progress records.
func (inv *Inversions) SetLogger(l *zap.Logger) {
	inv.logger = l
}

// Contigs returns the profiled contig names in sorted order.
func (inv *Inversions) Contigs() []string {
	return inv.contigs
}

// Splits returns the profiled splits of contig in order along it.
func (inv *Inversions) Splits(contig string) []string {
	return inv.splits[contig]
}

// SanityCheck verifies that profilePaths are distinct profiles of the
// contigs database at contigsPath, all of the inversions variant.
func SanityCheck(contigsPath string, profilePaths []string) error {
	cdb, err := anviodb.OpenContigs(contigsPath)
	if err != nil {
		return err
	}
	hash := cdb.Hash()
	cdb.Close()

	if len(profilePaths) == 0 {
		return anvierr.Config("no profile databases were given")
	}
	seen := make(map[string]bool, len(profilePaths))
	for _, p := range profilePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if seen[abs] {
			return anvierr.Config("profile database %s is listed more than once; every database should appear only once", p)
		}
		seen[abs] = true
	}

	bad := 0
	for _, p := range profilePaths {
		pdb, err := anviodb.OpenProfile(p)
		if err != nil {
			return err
		}
		ph, variant := pdb.ContigsHash(), pdb.Variant()
		pdb.Close()
		if ph != hash {
			return anvierr.Config("profile database %s and contigs database %s are not compatible", p, contigsPath)
		}
		if variant != Variant {
			bad++
		}
	}
	if bad == 0 {
		return nil
	}

	n := len(profilePaths)
	var summary string
	switch {
	case bad == n && n == 1:
		summary = "The only profile database you have here is also the one with the wrong variant."
	case bad == n:
		summary = fmt.Sprintf("But none of the %s here have the right variant.", plural("database", n))
	default:
		verb := "do not"
		if bad == 1 {
			verb = "does not"
		}
		summary = fmt.Sprintf("Of the total of %s you are working with, %d %s have the right variant.", plural("database", n), bad, verb)
	}
	return anvierr.Config("reporting inversions needs profile databases of variant %q, generated by anvi-profile with "+
		"the flag `--fetch-filter inversions`. %s", Variant, summary)
}

func plural(word string, n int) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Coverages returns the sample of the profile at path and, for every
// contig, the concatenated coverages of its splits in that sample.
func (inv *Inversions) Coverages(ctx context.Context, path string) (string, map[string][]uint16, error) {
	pdb, err := anviodb.OpenProfile(path)
	if err != nil {
		return "", nil, err
	}
	sample, hash, auxPath := pdb.SampleID(), pdb.ContigsHash(), pdb.AuxiliaryPath()
	pdb.Close()

	aux, err := anviodb.OpenAuxiliary(auxPath, hash)
	if err != nil {
		return "", nil, err
	}
	defer aux.Close()

	out := make(map[string][]uint16, len(inv.contigs))
	for _, contig := range inv.contigs {
		var cov []uint16
		for _, split := range inv.splits[contig] {
			bySample, err := aux.SplitCoverages(ctx, split)
			if err != nil {
				return "", nil, fmt.Errorf("read coverages of %s: %w", split, err)
			}
			sc, ok := bySample[sample]
			if !ok {
				return "", nil, anvierr.Config("auxiliary data %s has no coverages of sample %q for split %s", auxPath, sample, split)
			}
			cov = append(cov, sc...)
		}
		out[contig] = cov
	}
	return sample, out, nil
}

// Process finds stretches of high coverage in every contig of every
// profile, in profile order.
func (inv *Inversions) Process(ctx context.Context, opts StretchOptions) ([]Stretch, error) {
	var all []Stretch
	for i, p := range inv.profilePaths {
		sample, covs, err := inv.Coverages(ctx, p)
		if err != nil {
			return nil, err
		}
		found := 0
		for _, contig := range inv.contigs {
			for _, s := range FindStretches(covs[contig], opts) {
				s.Sample, s.Contig = sample, contig
				all = append(all, s)
				found++
			}
		}
		inv.logger.Info("processed profile",
			zap.String("sample", sample),
			zap.Int("profile", i+1),
			zap.Int("of", len(inv.profilePaths)),
			zap.Int("stretches", found))
	}
	return all, nil
}
