// Package geopackage implements the Container collaborator spec.md §6
// describes: a SQLite-backed store for the spatial reference registry,
// the per-table Contents/TileMatrixSet/TileMatrix metadata rows, and the
// per-table tile blob store. It is deliberately thin — table DAOs only,
// no retiling logic — so RetileEngine can drive it the way the spec's
// "external collaborator" boundary intends.
package geopackage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tilepyramid/retiler/internal/coordmath"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// BoundingBox and MercatorBox are aliases so callers working with the
// container need not import coordmath separately for the common case.
type BoundingBox = coordmath.BoundingBox
type MercatorBox = coordmath.MercatorBox

// Container owns one SQLite connection and the metadata/tile tables
// inside it.
type Container struct {
	db *sql.DB
}

// Open creates (if absent) and opens a GeoPackage-style container at
// path, applying the same performance pragmas the teacher's MBTiles
// writer uses and initializing the metadata schema.
func Open(path string) (*Container, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("geopackage: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("geopackage: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(metadataSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("geopackage: create metadata schema: %w", err)
	}

	return &Container{db: db}, nil
}

// Close releases the underlying connection.
func (c *Container) Close() error {
	return c.db.Close()
}

// TableExists reports whether a tile table of the given name is
// already registered in gpkg_contents.
func (c *Container) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gpkg_contents WHERE table_name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("geopackage: table_exists %s: %w", table, err)
	}
	return n > 0, nil
}

// CreateTileTableWithMetadata registers a brand-new tile table: the
// physical tile-storage table, its gpkg_contents row, and its
// gpkg_tile_matrix_set row. Both CRS rows (WGS84 and Web Mercator) are
// registered if missing.
func (c *Container) CreateTileTableWithMetadata(
	ctx context.Context,
	table string,
	bboxWGS84 BoundingBox,
	bboxMerc MercatorBox,
	format Format,
	lastChange string,
) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("geopackage: begin create table tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureSpatialRefTx(ctx, tx, SRSWGS84, "WGS 84", "EPSG"); err != nil {
		return err
	}
	if err := ensureSpatialRefTx(ctx, tx, SRSWebMercator, "WGS 84 / Pseudo-Mercator", "EPSG"); err != nil {
		return err
	}

	ddl := fmt.Sprintf(tileTableSchemaFmt, table, tileIndexName(table), table)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("geopackage: create tile table %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gpkg_contents (table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id, last_change)
		VALUES (?, 'tiles', ?, ?, ?, ?, ?, ?, ?)
	`, table, table, bboxWGS84.MinLon, bboxWGS84.MinLat, bboxWGS84.MaxLon, bboxWGS84.MaxLat, SRSWGS84, lastChange); err != nil {
		return fmt.Errorf("geopackage: insert contents row for %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO gpkg_tile_matrix_set (table_name, srs_id, format, min_x, min_y, max_x, max_y)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, table, SRSWebMercator, string(format), bboxMerc.MinX, bboxMerc.MinY, bboxMerc.MaxX, bboxMerc.MaxY); err != nil {
		return fmt.Errorf("geopackage: insert tile_matrix_set row for %s: %w", table, err)
	}

	return tx.Commit()
}

// DeleteTableQuietly drops a tile table and its metadata rows, logging
// nothing and swallowing errors — it is the single compensating action
// for every fatal-error exit path in RetileEngine (spec.md §9's
// refactor of the source's three duplicated catch blocks into one
// scoped cleanup).
func (c *Container) DeleteTableQuietly(ctx context.Context, table string) {
	_, _ = c.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table))
	_, _ = c.db.ExecContext(ctx, `DELETE FROM gpkg_tile_matrix WHERE table_name = ?`, table)
	_, _ = c.db.ExecContext(ctx, `DELETE FROM gpkg_tile_matrix_set WHERE table_name = ?`, table)
	_, _ = c.db.ExecContext(ctx, `DELETE FROM gpkg_contents WHERE table_name = ?`, table)
}
