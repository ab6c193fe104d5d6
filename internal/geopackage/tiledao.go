package geopackage

import (
	"context"
	"database/sql"
	"fmt"
)

// TileRow is a single stored tile's key and payload.
type TileRow struct {
	Column int
	Row    int
	Data   []byte
}

// QueryTilesForZoomDescending returns every stored tile at zoom, sorted
// descending by (tile_column, tile_row). The relocation pass (spec.md
// §4.3 Phase 3a) depends on this exact ordering to rewrite rows in
// place without colliding on the (zoom, column, row) unique index: by
// draining the whole result set before issuing any UPDATE, the read
// cursor is fully released before mutation begins, and processing
// highest-(col,row) first means a tile is never relocated onto a slot
// a later (lower) row hasn't vacated yet. Do not replace this with a
// set-based bulk UPDATE unless rows are first staged into a temp table.
func (c *Container) QueryTilesForZoomDescending(ctx context.Context, table string, zoom int) ([]TileRow, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT tile_column, tile_row, tile_data FROM %q
		WHERE zoom_level = ?
		ORDER BY tile_column DESC, tile_row DESC
	`, table), zoom)
	if err != nil {
		return nil, fmt.Errorf("geopackage: query tiles descending %s/%d: %w", table, zoom, err)
	}
	defer rows.Close()

	var out []TileRow
	for rows.Next() {
		var t TileRow
		if err := rows.Scan(&t.Column, &t.Row, &t.Data); err != nil {
			return nil, fmt.Errorf("geopackage: scan tile %s/%d: %w", table, zoom, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTile writes a tile, replacing any existing row at the same key.
func (c *Container) InsertTile(ctx context.Context, table string, zoom, col, row int, data []byte) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO %q (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)
	`, table), zoom, col, row, data)
	if err != nil {
		return fmt.Errorf("geopackage: insert tile %s z%d/%d/%d: %w", table, zoom, col, row, err)
	}
	return nil
}

// RelocateTile moves the tile at (zoom, oldCol, oldRow) to
// (zoom, newCol, newRow) in place, preserving its bytes.
func (c *Container) RelocateTile(ctx context.Context, table string, zoom, oldCol, oldRow, newCol, newRow int) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %q SET tile_column = ?, tile_row = ?
		WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?
	`, table), newCol, newRow, zoom, oldCol, oldRow)
	if err != nil {
		return fmt.Errorf("geopackage: relocate tile %s z%d (%d,%d)->(%d,%d): %w", table, zoom, oldCol, oldRow, newCol, newRow, err)
	}
	return nil
}

// DeleteTile removes a single tile, if present. Absence is not an error
// (the caller may be deleting ahead of an insert that has not happened
// yet, spec.md §4.3 Phase 4).
func (c *Container) DeleteTile(ctx context.Context, table string, zoom, col, row int) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %q WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?
	`, table), zoom, col, row)
	if err != nil {
		return fmt.Errorf("geopackage: delete tile %s z%d/%d/%d: %w", table, zoom, col, row, err)
	}
	return nil
}

// DeleteTilesInRange bulk-deletes every tile at zoom within the
// inclusive [minX..maxX] x [minY..maxY] range. Used at the end of a
// zoom when no tile decoded successfully (spec.md §4.3 Phase 4): the
// matrix cannot be sized, so every row inserted for that zoom — even
// ones whose bytes were stored but never decoded — is rolled back.
func (c *Container) DeleteTilesInRange(ctx context.Context, table string, zoom, minX, maxX, minY, maxY int) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %q WHERE zoom_level = ? AND tile_column BETWEEN ? AND ? AND tile_row BETWEEN ? AND ?
	`, table), zoom, minX, maxX, minY, maxY)
	if err != nil {
		return fmt.Errorf("geopackage: bulk delete tiles %s z%d: %w", table, zoom, err)
	}
	return nil
}

// GetTile reads a single tile's bytes, if present.
func (c *Container) GetTile(ctx context.Context, table string, zoom, col, row int) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT tile_data FROM %q WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?
	`, table), zoom, col, row).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("geopackage: get tile %s z%d/%d/%d: %w", table, zoom, col, row, err)
	}
	return data, true, nil
}

// AllTiles streams every stored tile across every zoom, ascending, for
// export tooling (internal/mbtilesexport).
func (c *Container) AllTiles(ctx context.Context, table string) ([]struct {
	Zoom, Column, Row int
	Data              []byte
}, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT zoom_level, tile_column, tile_row, tile_data FROM %q ORDER BY zoom_level, tile_column, tile_row
	`, table))
	if err != nil {
		return nil, fmt.Errorf("geopackage: query all tiles %s: %w", table, err)
	}
	defer rows.Close()

	var out []struct {
		Zoom, Column, Row int
		Data              []byte
	}
	for rows.Next() {
		var t struct {
			Zoom, Column, Row int
			Data              []byte
		}
		if err := rows.Scan(&t.Zoom, &t.Column, &t.Row, &t.Data); err != nil {
			return nil, fmt.Errorf("geopackage: scan tile %s: %w", table, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
