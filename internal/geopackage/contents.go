package geopackage

import (
	"context"
	"database/sql"
	"fmt"
)

// ContentsRow mirrors a gpkg_contents row: the table's bounding box (in
// its registered SRS), last-change timestamp, and table-type marker.
type ContentsRow struct {
	TableName  string
	Bounds     BoundingBox
	SRSID      int
	LastChange string // RFC3339; stored as TEXT, compared lexically
}

// GetContents loads the Contents row for table, if any.
func (c *Container) GetContents(ctx context.Context, table string) (ContentsRow, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT table_name, min_x, min_y, max_x, max_y, srs_id, last_change
		FROM gpkg_contents WHERE table_name = ?
	`, table)

	var r ContentsRow
	err := row.Scan(&r.TableName, &r.Bounds.MinLon, &r.Bounds.MinLat, &r.Bounds.MaxLon, &r.Bounds.MaxLat, &r.SRSID, &r.LastChange)
	if err == sql.ErrNoRows {
		return ContentsRow{}, false, nil
	}
	if err != nil {
		return ContentsRow{}, false, fmt.Errorf("geopackage: query contents for %s: %w", table, err)
	}
	return r, true, nil
}

// UpdateContentsBounds rewrites the stored bounding box for table.
func (c *Container) UpdateContentsBounds(ctx context.Context, table string, bounds BoundingBox) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE gpkg_contents SET min_x = ?, min_y = ?, max_x = ?, max_y = ? WHERE table_name = ?
	`, bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat, table)
	if err != nil {
		return fmt.Errorf("geopackage: update contents bounds for %s: %w", table, err)
	}
	return nil
}

// TouchContentsLastChange sets last_change to now (RFC3339), the only
// monotonically-enforced field per spec.md §6's persisted invariants.
func (c *Container) TouchContentsLastChange(ctx context.Context, table string, nowRFC3339 string) error {
	_, err := c.db.ExecContext(ctx, `UPDATE gpkg_contents SET last_change = ? WHERE table_name = ?`, nowRFC3339, table)
	if err != nil {
		return fmt.Errorf("geopackage: touch last_change for %s: %w", table, err)
	}
	return nil
}
