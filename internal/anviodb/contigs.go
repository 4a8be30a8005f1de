package anviodb

import (
	"context"
	"fmt"
	"slices"
)

// KOfam is the function annotation source holding KEGG ortholog accessions.
const KOfam = "KOfam"

// Contigs is a contigs database.
type Contigs struct {
	*DB
}

// OpenContigs opens a contigs database.
func OpenContigs(path string) (*Contigs, error) {
	d, err := openTyped(path, TypeContigs)
	if err != nil {
		return nil, err
	}
	return &Contigs{DB: d}, nil
}

// ProjectName returns the project name recorded at creation.
func (c *Contigs) ProjectName() string {
	v, _ := c.Get("project_name")
	return v
}

// Hash returns the contigs database hash that profiles refer to.
func (c *Contigs) Hash() string {
	v, _ := c.Get("contigs_db_hash")
	return v
}

// FunctionSources lists the annotation sources run on the database.
func (c *Contigs) FunctionSources() []string {
	v, _ := c.Get("gene_function_sources")
	return splitList(v)
}

// HasSource reports whether genes were annotated with source.
func (c *Contigs) HasSource(source string) bool {
	return slices.Contains(c.FunctionSources(), source)
}

// Accessions returns the distinct accessions annotated from source.
func (c *Contigs) Accessions(ctx context.Context, source string) ([]string, error) {
	return c.distinctStrings(ctx,
		`SELECT DISTINCT accession FROM gene_functions WHERE source = ? ORDER BY accession`, source)
}

// Splits maps each contig to its split names in order along the contig.
func (c *Contigs) Splits(ctx context.Context) (map[string][]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT split, parent FROM splits_basic_info ORDER BY parent, order_in_parent`)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var split, parent string
		if err := rows.Scan(&split, &parent); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		out[parent] = append(out[parent], split)
	}
	return out, rows.Err()
}
