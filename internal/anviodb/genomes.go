package anviodb

import (
	"context"
	"fmt"

	"github.com/merenlab/anvigo/internal/membership"
)

// GenomeStorage is a genomes storage database.
type GenomeStorage struct {
	*DB
}

// OpenGenomeStorage opens a genomes storage database.
func OpenGenomeStorage(path string) (*GenomeStorage, error) {
	d, err := openTyped(path, TypeGenomeStorage)
	if err != nil {
		return nil, err
	}
	return &GenomeStorage{DB: d}, nil
}

// Hash returns the genomes storage hash recorded in pan databases.
func (g *GenomeStorage) Hash() string {
	v, _ := g.Get("hash")
	return v
}

// GenomeNames lists the stored genomes.
func (g *GenomeStorage) GenomeNames(ctx context.Context) ([]string, error) {
	return g.distinctStrings(ctx, `SELECT genome_name FROM genome_info ORDER BY genome_name`)
}

// Accessions returns the distinct accessions annotated from source in one genome.
func (g *GenomeStorage) Accessions(ctx context.Context, genome, source string) ([]string, error) {
	return g.distinctStrings(ctx,
		`SELECT DISTINCT accession FROM gene_function_calls WHERE genome_name = ? AND source = ? ORDER BY accession`,
		genome, source)
}

// FunctionCalls maps genome and gene caller id to the accession annotated
// from source.
func (g *GenomeStorage) FunctionCalls(ctx context.Context, source string) (membership.Calls, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT genome_name, gene_callers_id, accession FROM gene_function_calls WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("query function calls: %w", err)
	}
	defer rows.Close()

	calls := make(membership.Calls)
	for rows.Next() {
		var genome, accession string
		var gene int
		if err := rows.Scan(&genome, &gene, &accession); err != nil {
			return nil, fmt.Errorf("scan function call: %w", err)
		}
		if calls[genome] == nil {
			calls[genome] = make(map[int]string)
		}
		calls[genome][gene] = accession
	}
	return calls, rows.Err()
}
