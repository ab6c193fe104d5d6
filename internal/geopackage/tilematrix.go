package geopackage

import (
	"context"
	"database/sql"
	"fmt"
)

// TileMatrixRow mirrors a gpkg_tile_matrix row: the grid dimensions and
// per-tile pixel/CRS-unit scale at one zoom level of one table.
type TileMatrixRow struct {
	TableName    string
	Zoom         int
	MatrixWidth  int
	MatrixHeight int
	TileWidth    int
	TileHeight   int
	PixelXSize   float64
	PixelYSize   float64
}

// TileMatrixExists reports whether a TileMatrix row exists for
// (table, zoom).
func (c *Container) TileMatrixExists(ctx context.Context, table string, zoom int) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM gpkg_tile_matrix WHERE table_name = ? AND zoom_level = ?
	`, table, zoom).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("geopackage: tile_matrix id_exists %s/%d: %w", table, zoom, err)
	}
	return n > 0, nil
}

// TileMatrixAt loads the TileMatrix row for (table, zoom).
func (c *Container) TileMatrixAt(ctx context.Context, table string, zoom int) (TileMatrixRow, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT table_name, zoom_level, matrix_width, matrix_height, tile_width, tile_height, pixel_x_size, pixel_y_size
		FROM gpkg_tile_matrix WHERE table_name = ? AND zoom_level = ?
	`, table, zoom)

	var r TileMatrixRow
	err := row.Scan(&r.TableName, &r.Zoom, &r.MatrixWidth, &r.MatrixHeight, &r.TileWidth, &r.TileHeight, &r.PixelXSize, &r.PixelYSize)
	if err == sql.ErrNoRows {
		return TileMatrixRow{}, false, nil
	}
	if err != nil {
		return TileMatrixRow{}, false, fmt.Errorf("geopackage: query tile_matrix %s/%d: %w", table, zoom, err)
	}
	return r, true, nil
}

// CreateTileMatrix inserts a new TileMatrix row.
func (c *Container) CreateTileMatrix(ctx context.Context, r TileMatrixRow) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO gpkg_tile_matrix (table_name, zoom_level, matrix_width, matrix_height, tile_width, tile_height, pixel_x_size, pixel_y_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.TableName, r.Zoom, r.MatrixWidth, r.MatrixHeight, r.TileWidth, r.TileHeight, r.PixelXSize, r.PixelYSize)
	if err != nil {
		return fmt.Errorf("geopackage: insert tile_matrix %s/%d: %w", r.TableName, r.Zoom, err)
	}
	return nil
}

// UpdateTileMatrix rewrites the dimensions/scale of an existing
// TileMatrix row (used by the relocation pass when the matrix-set bbox
// grows, spec.md §4.3 Phase 3a step 3).
func (c *Container) UpdateTileMatrix(ctx context.Context, r TileMatrixRow) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE gpkg_tile_matrix
		SET matrix_width = ?, matrix_height = ?, pixel_x_size = ?, pixel_y_size = ?
		WHERE table_name = ? AND zoom_level = ?
	`, r.MatrixWidth, r.MatrixHeight, r.PixelXSize, r.PixelYSize, r.TableName, r.Zoom)
	if err != nil {
		return fmt.Errorf("geopackage: update tile_matrix %s/%d: %w", r.TableName, r.Zoom, err)
	}
	return nil
}

// ExistingZooms returns every zoom level that currently has a
// TileMatrix row for table, ascending.
func (c *Container) ExistingZooms(ctx context.Context, table string) ([]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT zoom_level FROM gpkg_tile_matrix WHERE table_name = ? ORDER BY zoom_level ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("geopackage: query existing zooms for %s: %w", table, err)
	}
	defer rows.Close()

	var zooms []int
	for rows.Next() {
		var z int
		if err := rows.Scan(&z); err != nil {
			return nil, fmt.Errorf("geopackage: scan zoom for %s: %w", table, err)
		}
		zooms = append(zooms, z)
	}
	return zooms, rows.Err()
}

// MinZoom returns the lowest zoom level with a TileMatrix row, if any.
func (c *Container) MinZoom(ctx context.Context, table string) (int, bool, error) {
	zooms, err := c.ExistingZooms(ctx, table)
	if err != nil {
		return 0, false, err
	}
	if len(zooms) == 0 {
		return 0, false, nil
	}
	return zooms[0], true, nil
}
