// Package anviodbtest writes small anvi'o databases for tests.
package anviodbtest

import (
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/merenlab/anvigo/internal/anviodb"
)

// Create writes a database at path with the given self table and schema
// statements. The returned handle is closed when the test ends.
func Create(t testing.TB, path string, meta map[string]string, schema ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE self (key TEXT PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	for k, v := range meta {
		_, err = db.Exec(`INSERT INTO self (key, value) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
	for _, stmt := range schema {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// Split is a row of splits_basic_info.
type Split struct {
	Name   string
	Parent string
	Order  int
}

// ContigsSpec describes a contigs database.
type ContigsSpec struct {
	Project string
	Hash    string
	// Functions maps annotation source to accessions, one gene each.
	Functions map[string][]string
	Splits    []Split
}

// WriteContigs writes a contigs database at path.
func WriteContigs(t testing.TB, path string, spec ContigsSpec) {
	t.Helper()
	sources := make([]string, 0, len(spec.Functions))
	for s := range spec.Functions {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	db := Create(t, path, map[string]string{
		"db_type":               anviodb.TypeContigs,
		"project_name":          spec.Project,
		"contigs_db_hash":       spec.Hash,
		"gene_function_sources": strings.Join(sources, ","),
	},
		`CREATE TABLE gene_functions (gene_callers_id INTEGER, source TEXT, accession TEXT, function TEXT, e_value REAL)`,
		`CREATE TABLE splits_basic_info (split TEXT, order_in_parent INTEGER, "start" INTEGER, "end" INTEGER, length INTEGER, gc_content REAL, gc_content_parent REAL, parent TEXT)`,
	)

	gene := 0
	for _, source := range sources {
		for _, acc := range spec.Functions[source] {
			_, err := db.Exec(`INSERT INTO gene_functions VALUES (?, ?, ?, ?, 0)`, gene, source, acc, "function of "+acc)
			require.NoError(t, err)
			gene++
		}
	}
	for _, s := range spec.Splits {
		_, err := db.Exec(`INSERT INTO splits_basic_info (split, order_in_parent, parent) VALUES (?, ?, ?)`, s.Name, s.Order, s.Parent)
		require.NoError(t, err)
	}
}

// ProfileSpec describes a single-sample profile and its coverage store.
type ProfileSpec struct {
	Sample      string
	ContigsHash string
	Variant     string
	// Coverages maps split name to per-nucleotide coverage.
	Coverages map[string][]uint16
}

// WriteProfile writes a profile database at path and, when coverages are
// given, the auxiliary coverage store beside it.
func WriteProfile(t testing.TB, path string, spec ProfileSpec) {
	t.Helper()
	db := Create(t, path, map[string]string{
		"db_type":         anviodb.TypeProfile,
		"db_variant":      spec.Variant,
		"sample_id":       spec.Sample,
		"contigs_db_hash": spec.ContigsHash,
	},
		`CREATE TABLE mean_coverage_splits (item TEXT, layer TEXT, value REAL)`,
	)
	for split, cov := range spec.Coverages {
		_, err := db.Exec(`INSERT INTO mean_coverage_splits VALUES (?, ?, ?)`, split, spec.Sample, mean(cov))
		require.NoError(t, err)
	}
	if len(spec.Coverages) == 0 {
		return
	}

	aux := Create(t, filepath.Join(filepath.Dir(path), anviodb.AuxiliaryFileName), map[string]string{
		"db_type":         anviodb.TypeAuxiliary,
		"contigs_db_hash": spec.ContigsHash,
	},
		`CREATE TABLE split_coverages (split_name TEXT, sample_name TEXT, coverages BLOB)`,
	)
	for split, cov := range spec.Coverages {
		blob, err := anviodb.EncodeCoverages(cov)
		require.NoError(t, err)
		_, err = aux.Exec(`INSERT INTO split_coverages VALUES (?, ?, ?)`, split, spec.Sample, blob)
		require.NoError(t, err)
	}
}

// Call is a row of gene_function_calls.
type Call struct {
	Genome    string
	Gene      int
	Source    string
	Accession string
}

// WriteGenomeStorage writes a genomes storage database at path.
func WriteGenomeStorage(t testing.TB, path, hash string, genomes []string, calls []Call) {
	t.Helper()
	db := Create(t, path, map[string]string{
		"db_type": anviodb.TypeGenomeStorage,
		"hash":    hash,
	},
		`CREATE TABLE genome_info (genome_name TEXT)`,
		`CREATE TABLE gene_function_calls (genome_name TEXT, gene_callers_id INTEGER, source TEXT, accession TEXT, function TEXT, e_value REAL)`,
	)
	for _, g := range genomes {
		_, err := db.Exec(`INSERT INTO genome_info VALUES (?)`, g)
		require.NoError(t, err)
	}
	for _, c := range calls {
		_, err := db.Exec(`INSERT INTO gene_function_calls VALUES (?, ?, ?, ?, '', 0)`, c.Genome, c.Gene, c.Source, c.Accession)
		require.NoError(t, err)
	}
}

// ClusterGene is a row of gene_clusters.
type ClusterGene struct {
	Cluster string
	Genome  string
	Gene    int
}

// PanSpec describes a pan database.
type PanSpec struct {
	Project      string
	StorageHash  string
	External     []string
	Internal     []string
	Meta         map[string]string
	ClusterGenes []ClusterGene
}

// WritePan writes a pan database at path.
func WritePan(t testing.TB, path string, spec PanSpec) {
	t.Helper()
	meta := map[string]string{
		"db_type":               anviodb.TypePan,
		"project_name":          spec.Project,
		"genomes_storage_hash":  spec.StorageHash,
		"external_genome_names": strings.Join(spec.External, ","),
		"internal_genome_names": strings.Join(spec.Internal, ","),
	}
	for k, v := range spec.Meta {
		meta[k] = v
	}
	db := Create(t, path, meta,
		`CREATE TABLE gene_clusters (entry_id INTEGER, gene_caller_id INTEGER, gene_cluster_id TEXT, genome_name TEXT, alignment_summary TEXT)`,
	)
	for i, g := range spec.ClusterGenes {
		_, err := db.Exec(`INSERT INTO gene_clusters VALUES (?, ?, ?, ?, '')`, i, g.Gene, g.Cluster, g.Genome)
		require.NoError(t, err)
	}
}

func mean(cov []uint16) float64 {
	if len(cov) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cov {
		sum += float64(c)
	}
	return sum / float64(len(cov))
}
