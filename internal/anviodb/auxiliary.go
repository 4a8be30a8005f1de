package anviodb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/merenlab/anvigo/internal/anvierr"
)

// Auxiliary holds per-nucleotide split coverages of a profile.
type Auxiliary struct {
	*DB
}

// OpenAuxiliary opens a coverage store and checks that it belongs to the
// contigs database with the given hash.
func OpenAuxiliary(path, contigsHash string) (*Auxiliary, error) {
	d, err := openTyped(path, TypeAuxiliary)
	if err != nil {
		return nil, err
	}
	if h, _ := d.Get("contigs_db_hash"); h != contigsHash {
		d.Close()
		return nil, anvierr.Config("auxiliary data %s was generated for contigs database %q, not %q", path, h, contigsHash)
	}
	return &Auxiliary{DB: d}, nil
}

// SplitCoverages maps sample name to the coverage of each nucleotide of split.
func (a *Auxiliary) SplitCoverages(ctx context.Context, split string) (map[string][]uint16, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT sample_name, coverages FROM split_coverages WHERE split_name = ?`, split)
	if err != nil {
		return nil, fmt.Errorf("query split coverages: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]uint16)
	for rows.Next() {
		var sample string
		var blob []byte
		if err := rows.Scan(&sample, &blob); err != nil {
			return nil, fmt.Errorf("scan split coverages: %w", err)
		}
		cov, err := DecodeCoverages(blob)
		if err != nil {
			return nil, fmt.Errorf("split %s sample %s: %w", split, sample, err)
		}
		out[sample] = cov
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("split %s: %w", split, sql.ErrNoRows)
	}
	return out, nil
}

// EncodeCoverages compresses a coverage array into the stored blob format:
// gzip over little-endian uint16 values.
func EncodeCoverages(cov []uint16) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := binary.Write(zw, binary.LittleEndian, cov); err != nil {
		return nil, fmt.Errorf("encode coverages: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("encode coverages: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCoverages reverses EncodeCoverages.
func DecodeCoverages(blob []byte) ([]uint16, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress coverages: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress coverages: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, errors.New("coverage blob has an odd number of bytes")
	}
	cov := make([]uint16, len(raw)/2)
	for i := range cov {
		cov[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return cov, nil
}
