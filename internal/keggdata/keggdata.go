// Package keggdata locates pathway map files in an anvi'o KEGG data
// directory and lists the maps available for drawing.
package keggdata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/merenlab/anvigo/internal/anvierr"
	"github.com/merenlab/anvigo/internal/kgml"
)

// Dir is a KEGG data directory set up for map drawing.
type Dir struct {
	root   string
	logger *zap.Logger
}

// Open checks that root holds the map image index and returns the directory.
func Open(root string) (*Dir, error) {
	d := &Dir{root: root, logger: zap.NewNop()}
	if _, err := os.Stat(d.IndexPath()); err != nil {
		return nil, anvierr.Config("KEGG data directory %s lacks the map image index: %v", root, err)
	}
	return d, nil
}

// SetLogger sets the logger for file lookups.
func (d *Dir) SetLogger(l *zap.Logger) {
	d.logger = l
}

func (d *Dir) mapImages(parts ...string) string {
	return filepath.Join(append([]string{d.root, "map_images"}, parts...)...)
}

// IndexPath is the table of maps with KO, EC and RN annotation counts.
func (d *Dir) IndexPath() string {
	return d.mapImages("map_image_kgml.tsv")
}

// KGMLPath returns the KGML file of a map. Global maps use the 1x KO
// layout; other maps use the 2x layout.
func (d *Dir) KGMLPath(number string) string {
	res := "2x"
	if kgml.KindOf(number) == kgml.Global {
		res = "1x"
	}
	return d.mapImages("kgml", res, "ko", "ko"+number+".xml")
}

// ImagePath returns the reference image of a map. Global maps use the 1x KO
// image, which grays out reactions lacking KOs; other maps use the 2x map
// image. Each image is paired with the KGML layout of its resolution, so
// KGML coordinates are image pixels.
func (d *Dir) ImagePath(number string) string {
	if kgml.KindOf(number) == kgml.Global {
		return d.mapImages("png", "1x", "ko", "ko"+number+".png")
	}
	return d.mapImages("png", "2x", "map", "map"+number+".png")
}

// MapImage returns the reference image of p, or an empty path if the image
// is not installed.
func (d *Dir) MapImage(p *kgml.Pathway) string {
	path := d.ImagePath(p.Number)
	if _, err := os.Stat(path); err != nil {
		d.logger.Debug("map image not found", zap.String("path", path))
		return ""
	}
	return path
}

// Load parses the KGML file of a map.
func (d *Dir) Load(number string) (*kgml.Pathway, error) {
	p, err := kgml.Load(d.KGMLPath(number))
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", number, err)
	}
	if p.Number == "" {
		p.Number = number
		p.Kind = kgml.KindOf(number)
	}
	return p, nil
}

// AvailableMaps returns the numbers of maps annotated with any KO, EC or RN
// identifier, in index order.
func (d *Dir) AvailableMaps(ctx context.Context) ([]string, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf(`SELECT ID FROM read_csv('%s', delim='\t', header=true,
			columns={
				'ID': 'VARCHAR',
				'KO': 'BIGINT',
				'EC': 'BIGINT',
				'RN': 'BIGINT'
			})
		WHERE KO + EC + RN != 0`, strings.ReplaceAll(d.IndexPath(), "'", "''"))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read map index: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan map index: %w", err)
		}
		if len(id) < 5 {
			return nil, anvierr.Config("map id %q in %s is too short", id, d.IndexPath())
		}
		numbers = append(numbers, id[len(id)-5:])
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read map index: %w", err)
	}
	return numbers, nil
}
