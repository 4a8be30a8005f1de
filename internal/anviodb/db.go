// Package anviodb reads anvi'o SQLite databases.
//
// Every anvi'o database carries a "self" key/value table naming its type,
// variant and provenance. The typed openers in this package check the type
// before exposing table readers.
package anviodb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/merenlab/anvigo/internal/anvierr"
)

// Database types recorded under db_type.
const (
	TypeContigs       = "contigs"
	TypeProfile       = "profile"
	TypePan           = "pan"
	TypeGenomeStorage = "genomestorage"
	TypeAuxiliary     = "auxiliary data for coverages"
)

// DB is an open anvi'o database.
type DB struct {
	db   *sql.DB
	path string
	meta map[string]string
}

// Open opens an existing anvi'o database and loads its self table.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, anvierr.Config("database %s is not readable: %v", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	d := &DB{db: db, path: path}
	if err := d.loadMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// openTyped opens path and checks that its db_type is want.
func openTyped(path, want string) (*DB, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	if got := d.Type(); got != want {
		d.Close()
		return nil, anvierr.Config("%s is a %q database, not %q", path, got, want)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Meta returns a copy of the self table.
func (d *DB) Meta() map[string]string {
	out := make(map[string]string, len(d.meta))
	for k, v := range d.meta {
		out[k] = v
	}
	return out
}

// Get returns a self table value. Missing keys and the literal "None" are
// reported as unset.
func (d *DB) Get(key string) (string, bool) {
	v, ok := d.meta[key]
	if !ok || v == "None" {
		return "", false
	}
	return v, true
}

// Type returns the db_type value.
func (d *DB) Type() string {
	v, _ := d.Get("db_type")
	return v
}

// Variant returns the db_variant value.
func (d *DB) Variant() string {
	v, _ := d.Get("db_variant")
	return v
}

func (d *DB) loadMeta() error {
	rows, err := d.db.Query(`SELECT key, value FROM self`)
	if err != nil {
		return anvierr.Config("%s is not an anvi'o database: %v", d.path, err)
	}
	defer rows.Close()

	d.meta = make(map[string]string)
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scan self table: %w", err)
		}
		d.meta[k] = v.String
	}
	return rows.Err()
}

// distinctStrings runs a query returning one text column and collects the
// distinct non-empty values in result order.
func (d *DB) distinctStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", d.path, err)
	}
	defer rows.Close()

	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if v.String == "" || seen[v.String] {
			continue
		}
		seen[v.String] = true
		out = append(out, v.String)
	}
	return out, rows.Err()
}

// splitList splits a comma separated self table value.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
