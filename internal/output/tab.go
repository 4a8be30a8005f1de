// Package output provides tab-delimited table writers.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TabWriter writes rows in tab-delimited format under a header line.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes one row. Empty fields are written as "-". Tabs and
// newlines inside a field are replaced by spaces.
func (tw *TabWriter) WriteRow(values ...string) error {
	if len(values) != len(tw.columns) {
		return fmt.Errorf("row has %d fields, header has %d", len(values), len(tw.columns))
	}
	fields := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			v = "-"
		}
		fields[i] = strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, v)
	}
	_, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
