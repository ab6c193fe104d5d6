package geopackage

import (
	"context"
	"database/sql"
	"fmt"
)

// TileMatrixSetRow mirrors a gpkg_tile_matrix_set row: the outer box
// every per-zoom matrix is laid out within, its CRS, and which
// addressing Format the table committed to on first generation.
type TileMatrixSetRow struct {
	TableName string
	SRSID     int
	Format    Format
	Bounds    MercatorBox
}

// QueryTileMatrixSet loads the TileMatrixSet row for table.
func (c *Container) QueryTileMatrixSet(ctx context.Context, table string) (TileMatrixSetRow, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT table_name, srs_id, format, min_x, min_y, max_x, max_y
		FROM gpkg_tile_matrix_set WHERE table_name = ?
	`, table)

	var r TileMatrixSetRow
	var format string
	err := row.Scan(&r.TableName, &r.SRSID, &format, &r.Bounds.MinX, &r.Bounds.MinY, &r.Bounds.MaxX, &r.Bounds.MaxY)
	if err == sql.ErrNoRows {
		return TileMatrixSetRow{}, false, nil
	}
	if err != nil {
		return TileMatrixSetRow{}, false, fmt.Errorf("geopackage: query tile_matrix_set for %s: %w", table, err)
	}
	r.Format = Format(format)
	return r, true, nil
}

// TileMatrixSetExists reports whether a TileMatrixSet row exists for table (a
// narrower check than TableExists, mirroring spec.md §6's
// tile_matrix_set.id_exists).
func (c *Container) TileMatrixSetExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gpkg_tile_matrix_set WHERE table_name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("geopackage: tile_matrix_set id_exists %s: %w", table, err)
	}
	return n > 0, nil
}

// UpdateTileMatrixSetBounds rewrites the stored matrix-set bbox and
// stores format as the table's format. The relocation pass is its only
// caller and always passes FormatFitted.
func (c *Container) UpdateTileMatrixSetBounds(ctx context.Context, table string, bounds MercatorBox, format Format) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE gpkg_tile_matrix_set SET min_x = ?, min_y = ?, max_x = ?, max_y = ?, format = ? WHERE table_name = ?
	`, bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY, string(format), table)
	if err != nil {
		return fmt.Errorf("geopackage: update tile_matrix_set bounds for %s: %w", table, err)
	}
	return nil
}
