package anviodb

import (
	"context"
	"path/filepath"
)

// AuxiliaryFileName is the coverage store written next to a profile database.
const AuxiliaryFileName = "AUXILIARY-DATA.db"

// Profile is a single-sample or merged profile database.
type Profile struct {
	*DB
}

// OpenProfile opens a profile database.
func OpenProfile(path string) (*Profile, error) {
	d, err := openTyped(path, TypeProfile)
	if err != nil {
		return nil, err
	}
	return &Profile{DB: d}, nil
}

// SampleID returns the profiled sample name.
func (p *Profile) SampleID() string {
	v, _ := p.Get("sample_id")
	return v
}

// ContigsHash returns the hash of the contigs database the profile was built on.
func (p *Profile) ContigsHash() string {
	v, _ := p.Get("contigs_db_hash")
	return v
}

// SplitNames returns the profiled split names.
func (p *Profile) SplitNames(ctx context.Context) ([]string, error) {
	return p.distinctStrings(ctx, `SELECT DISTINCT item FROM mean_coverage_splits ORDER BY item`)
}

// AuxiliaryPath returns the path of the profile's coverage store.
func (p *Profile) AuxiliaryPath() string {
	return filepath.Join(filepath.Dir(p.path), AuxiliaryFileName)
}
