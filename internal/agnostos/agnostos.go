// Package agnostos reads AGNOSTOS gene cluster assignments as anvi'o
// functional annotations.
package agnostos

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/output"
)

// Source is the annotation source name of parsed functions.
const Source = "Agnostos"

// Columns lists the fields required in AGNOSTOS output.
var Columns = []string{
	"gene_callers_id", "cl_name", "contig", "gene_x_contig", "db", "cl_size",
	"category", "is.HQ", "is.LS", "lowest_rank", "lowest_level", "niche_breadth_sign",
}

// FunctionColumns is the header of an anvi'o functions file.
var FunctionColumns = []string{"gene_callers_id", "source", "accession", "function", "e_value"}

// Function is one functional annotation of a gene.
type Function struct {
	GeneCallersID int
	Source        string
	Accession     string
	Function      string
	EValue        float64
}

// ParseFile reads AGNOSTOS output from path.
func ParseFile(path string) ([]Function, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, anvierr.Config("open AGNOSTOS output: %v", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads tab-separated AGNOSTOS output. Only the first row of each gene
// is kept. The cluster name becomes the accession and the cluster category
// the function.
func Parse(r io.Reader) ([]Function, error) {
	df := dataframe.ReadCSV(r,
		dataframe.WithDelimiter('\t'),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return nil, anvierr.Config("read AGNOSTOS output: %v", df.Err)
	}

	have := make(map[string]bool)
	for _, name := range df.Names() {
		have[name] = true
	}
	var missing []string
	for _, c := range Columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, anvierr.Config("AGNOSTOS output lacks the columns %v", missing)
	}

	df = df.Select(Columns)
	ids, err := df.Col("gene_callers_id").Int()
	if err != nil {
		return nil, anvierr.Config("gene_callers_id must hold integers: %v", err)
	}
	df = df.Subset(firstOccurrences(ids))
	if df.Err != nil {
		return nil, fmt.Errorf("drop duplicate genes: %w", df.Err)
	}

	n := df.Nrow()
	df = df.Rename("accession", "cl_name").
		Rename("function", "category").
		Mutate(series.New(repeat(Source, n), series.String, "source")).
		Mutate(series.New(make([]float64, n), series.Float, "e_value")).
		Select(FunctionColumns)
	if df.Err != nil {
		return nil, fmt.Errorf("build functions table: %w", df.Err)
	}

	ids, err = df.Col("gene_callers_id").Int()
	if err != nil {
		return nil, fmt.Errorf("read gene ids: %w", err)
	}
	sources := df.Col("source").Records()
	accessions := df.Col("accession").Records()
	functions := df.Col("function").Records()
	evalues := df.Col("e_value").Float()

	type key struct {
		id                          int
		source, accession, function string
	}
	seen := make(map[key]bool, n)
	out := make([]Function, 0, n)
	for i := 0; i < n; i++ {
		k := key{ids[i], sources[i], accessions[i], functions[i]}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, Function{
			GeneCallersID: ids[i],
			Source:        sources[i],
			Accession:     accessions[i],
			Function:      functions[i],
			EValue:        evalues[i],
		})
	}
	return out, nil
}

// WriteFunctions writes fns as an anvi'o functions file.
func WriteFunctions(w io.Writer, fns []Function) error {
	tw := output.NewTabWriter(w, FunctionColumns...)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, f := range fns {
		err := tw.WriteRow(
			strconv.Itoa(f.GeneCallersID),
			f.Source,
			f.Accession,
			f.Function,
			strconv.FormatFloat(f.EValue, 'g', -1, 64),
		)
		if err != nil {
			return fmt.Errorf("write gene %d: %w", f.GeneCallersID, err)
		}
	}
	return tw.Flush()
}

func firstOccurrences(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	keep := make([]int, 0, len(ids))
	for i, id := range ids {
		if !seen[id] {
			seen[id] = true
			keep = append(keep, i)
		}
	}
	return keep
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
