package inversions

import (
	"fmt"
	"io"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/merenlab/anvigo/internal/output"
)

// Default stretch thresholds.
const (
	DefaultMinCoverage = 10
	DefaultMinLength   = 50
)

// StretchOptions bound the stretches FindStretches reports.
type StretchOptions struct {
	MinCoverage uint16
	MinLength   int
}

// DefaultStretchOptions returns the default thresholds.
func DefaultStretchOptions() StretchOptions {
	return StretchOptions{MinCoverage: DefaultMinCoverage, MinLength: DefaultMinLength}
}

// Stretch is a run of positions [Start, End) of a contig covered at least
// at the minimum coverage.
type Stretch struct {
	Sample         string
	Contig         string
	Start          int
	End            int
	MeanCoverage   float64
	MedianCoverage float64
	MaxCoverage    float64
}

// Len returns the number of positions in the stretch.
func (s Stretch) Len() int {
	return s.End - s.Start
}

// FindStretches splits cov into maximal runs with coverage at or above
// opts.MinCoverage and returns those at least opts.MinLength long.
func FindStretches(cov []uint16, opts StretchOptions) []Stretch {
	var out []Stretch
	start := -1
	for i := 0; i <= len(cov); i++ {
		high := i < len(cov) && cov[i] >= opts.MinCoverage
		switch {
		case high && start < 0:
			start = i
		case !high && start >= 0:
			if i-start >= opts.MinLength {
				out = append(out, summarize(cov, start, i))
			}
			start = -1
		}
	}
	return out
}

func summarize(cov []uint16, start, end int) Stretch {
	data := make(stats.Float64Data, end-start)
	for i, c := range cov[start:end] {
		data[i] = float64(c)
	}
	s := Stretch{Start: start, End: end}
	// errors only arise on empty input
	s.MeanCoverage, _ = stats.Mean(data)
	s.MedianCoverage, _ = stats.Median(data)
	s.MaxCoverage, _ = stats.Max(data)
	return s
}

// ReportColumns is the header of the stretch report.
var ReportColumns = []string{"sample", "contig", "start", "end", "length", "mean_cov", "median_cov", "max_cov"}

// WriteReport writes stretches as a tab-delimited table.
func WriteReport(w io.Writer, stretches []Stretch) error {
	tw := output.NewTabWriter(w, ReportColumns...)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stretches {
		err := tw.WriteRow(
			s.Sample,
			s.Contig,
			strconv.Itoa(s.Start),
			strconv.Itoa(s.End),
			strconv.Itoa(s.Len()),
			strconv.FormatFloat(s.MeanCoverage, 'f', 2, 64),
			strconv.FormatFloat(s.MedianCoverage, 'f', 2, 64),
			strconv.FormatFloat(s.MaxCoverage, 'f', 0, 64),
		)
		if err != nil {
			return fmt.Errorf("write stretch: %w", err)
		}
	}
	return tw.Flush()
}
