package geopackage

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSpatialRef registers a CRS by code if it is not already present
// (get_or_create in spec.md §6).
func (c *Container) EnsureSpatialRef(ctx context.Context, srsID int, name, organization string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("geopackage: begin ensure spatial ref tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ensureSpatialRefTx(ctx, tx, srsID, name, organization); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureSpatialRefTx(ctx context.Context, tx *sql.Tx, srsID int, name, organization string) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, srsID).Scan(&n); err != nil {
		return fmt.Errorf("geopackage: lookup srs %d: %w", srsID, err)
	}
	if n > 0 {
		return nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO gpkg_spatial_ref_sys (srs_id, srs_name, organization, organization_coordsys_id, definition)
		VALUES (?, ?, ?, ?, ?)
	`, srsID, name, organization, srsID, fmt.Sprintf("EPSG:%d", srsID))
	if err != nil {
		return fmt.Errorf("geopackage: insert srs %d: %w", srsID, err)
	}
	return nil
}
