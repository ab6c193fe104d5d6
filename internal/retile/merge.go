package retile

import (
	"context"
	"fmt"

	"github.com/tilepyramid/retiler/internal/geopackage"
)

func (e *Engine) format(s *state) geopackage.Format {
	if s.googleMode {
		return geopackage.FormatGoogle
	}
	return geopackage.FormatFitted
}

// createTable implements the create branch of Phase 3.
func (e *Engine) createTable(ctx context.Context, s *state) error {
	if err := e.container.CreateTileTableWithMetadata(ctx, s.req.Table, s.tileMatrixSetBBoxWGS84, s.webMercatorBBox, e.format(s), nowRFC3339()); err != nil {
		return err
	}
	s.update = false
	return nil
}

// mergeIntoExisting implements the merge branch of Phase 3, including
// the format-compatibility resolution and the Phase 3a relocation pass.
// The first return value is true exactly when the error is a format
// conflict the caller should return directly, without dropping the
// (pre-existing, untouched) table.
func (e *Engine) mergeIntoExisting(ctx context.Context, s *state) (bool, error) {
	mset, ok, err := e.container.QueryTileMatrixSet(ctx, s.req.Table)
	if err != nil {
		return false, fmt.Errorf("query tile matrix set: %w", err)
	}
	if !ok {
		return false, fmt.Errorf("table registered in contents but missing tile_matrix_set row")
	}

	switch mset.Format {
	case geopackage.FormatGoogle:
		// Reverse-upgrade rule: a fitted (or google) request against an
		// already-google table always proceeds as google, since the
		// table's addressing can't become more restrictive.
		s.googleMode = true
		e.adjustBounds(s)
		return false, e.mergeGoogle(ctx, s)

	case geopackage.FormatFitted:
		if s.googleMode {
			return true, fmt.Errorf("%w: table %q already uses fitted format", ErrFormatConflict, s.req.Table)
		}
		return false, e.relocateAndMerge(ctx, s, mset)

	default:
		return false, fmt.Errorf("unrecognized stored format %q", mset.Format)
	}
}

// mergeGoogle handles a merge into an already-google table: the global
// grid already covers the world at every zoom, so there is nothing to
// relocate — only the Contents bbox may need to grow to cover the new
// request.
func (e *Engine) mergeGoogle(ctx context.Context, s *state) error {
	s.update = true

	contents, ok, err := e.container.GetContents(ctx, s.req.Table)
	if err != nil {
		return fmt.Errorf("get contents: %w", err)
	}
	if ok {
		grown := contents.Bounds.Union(s.req.RequestBBoxWGS84.Clamped())
		if grown != contents.Bounds {
			if err := e.container.UpdateContentsBounds(ctx, s.req.Table, grown); err != nil {
				return fmt.Errorf("update contents bounds: %w", err)
			}
		}
	}
	return nil
}
