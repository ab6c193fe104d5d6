package retile

import (
	"context"
	"fmt"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/imageprobe"
)

// generateZooms implements Phase 4: for each zoom in the requested
// range, fetch and store every tile the Phase 1 grid identified, sized
// and positioned according to the table's addressing format.
func (e *Engine) generateZooms(ctx context.Context, s *state) error {
	requestMerc := coordmath.ToWebMercator(s.req.RequestBBoxWGS84.Clamped())

	for z := s.req.MinZoom; z <= s.req.MaxZoom; z++ {
		if !s.req.Progress.IsActive() {
			return nil
		}

		var localGrid coordmath.TileGrid
		if s.googleMode {
			s.matrixWidth = coordmath.TilesPerSide(z)
			s.matrixHeight = s.matrixWidth
		} else {
			localGrid = coordmath.TileGridInBox(s.webMercatorBBox, s.matrixWidth, s.matrixHeight, requestMerc)
		}

		if err := e.generateZoomLevel(ctx, s, z, localGrid); err != nil {
			return err
		}

		if !s.googleMode {
			s.matrixWidth *= 2
			s.matrixHeight *= 2
		}
	}
	return nil
}

func (e *Engine) generateZoomLevel(ctx context.Context, s *state, z int, localGrid coordmath.TileGrid) error {
	grid := s.tileGridsPerZoom[z]

	var (
		zoomTileWidth, zoomTileHeight int
		zoomDecoded                   bool
		zoomCommitted                 int
	)

	for x := grid.MinX; x <= grid.MaxX; x++ {
		if !s.req.Progress.IsActive() {
			return nil
		}
		for y := grid.MinY; y <= grid.MaxY; y++ {
			if !s.req.Progress.IsActive() {
				return nil
			}

			tileColumn, tileRow := x, y
			if !s.googleMode {
				tileColumn = x - grid.MinX + localGrid.MinX
				tileRow = y - grid.MinY + localGrid.MinY
			}

			if s.update {
				// A transient DB failure here is a per-tile exception,
				// not a fatal one (§4.3 Phase 4): log and proceed to
				// the insert, which replaces the row at this key
				// regardless of whether the stale delete succeeded.
				if err := e.container.DeleteTile(ctx, s.req.Table, z, tileColumn, tileRow); err != nil {
					e.log().Warn("pre-insert delete failed", "zoom", z, "column", tileColumn, "row", tileRow, "error", err)
				}
			}

			decodedWidth, decodedHeight, ok := e.fetchAndStoreTile(ctx, s, z, x, y, tileColumn, tileRow)
			s.req.Progress.AddProgress(1)
			if !ok {
				continue
			}
			zoomCommitted++
			if !zoomDecoded && decodedWidth > 0 && decodedHeight > 0 {
				zoomDecoded = true
				zoomTileWidth, zoomTileHeight = decodedWidth, decodedHeight
			}
		}
	}

	if !zoomDecoded {
		// No tile at this zoom was ever decodable, so the matrix can't
		// be sized: roll back every row inserted this zoom (including
		// undecodable-but-stored ones) and leave this zoom's count
		// contribution at zero rather than folding zoomCommitted into
		// the running total.
		deleteRange := grid
		if !s.googleMode {
			deleteRange = localGrid
		}
		return e.container.DeleteTilesInRange(ctx, s.req.Table, z, deleteRange.MinX, deleteRange.MaxX, deleteRange.MinY, deleteRange.MaxY)
	}
	s.committedCount += zoomCommitted

	exists, err := e.container.TileMatrixExists(ctx, s.req.Table, z)
	if err != nil {
		return fmt.Errorf("check tile_matrix exists: %w", err)
	}
	if exists {
		// Already present — either a previous generation created it, or
		// the relocation pass (Phase 3a) just rewrote it for this merge.
		return nil
	}

	pixelXSize := s.webMercatorBBox.Width() / float64(s.matrixWidth) / float64(zoomTileWidth)
	pixelYSize := s.webMercatorBBox.Height() / float64(s.matrixHeight) / float64(zoomTileHeight)

	return e.container.CreateTileMatrix(ctx, geopackage.TileMatrixRow{
		TableName:    s.req.Table,
		Zoom:         z,
		MatrixWidth:  s.matrixWidth,
		MatrixHeight: s.matrixHeight,
		TileWidth:    zoomTileWidth,
		TileHeight:   zoomTileHeight,
		PixelXSize:   pixelXSize,
		PixelYSize:   pixelYSize,
	})
}

// fetchAndStoreTile fetches one tile, optionally transcodes it, and
// stores it. A transient per-tile failure (fetch error, absence, or
// undecodable bytes with compression requested) is logged and skipped,
// never propagated as a fatal error. The bytes are stored even when
// ImageProbe cannot decode them and compression is disabled — matching
// the source behavior this spec preserves (§9): the sizing check at
// end-of-zoom is what rolls those tiles back if nothing at the zoom
// ever decoded.
func (e *Engine) fetchAndStoreTile(ctx context.Context, s *state, z, x, y, tileColumn, tileRow int) (width, height int, stored bool) {
	data, ok, err := s.req.Source.Fetch(ctx, z, x, y)
	if err != nil {
		e.log().Warn("tile fetch failed", "zoom", z, "x", x, "y", y, "error", err)
		return 0, 0, false
	}
	if !ok {
		return 0, 0, false
	}

	if s.req.CompressFormat != "" {
		transcoded, err := imageprobe.Transcode(data, s.req.CompressFormat, s.req.CompressQuality)
		if err != nil {
			e.log().Warn("tile transcode failed", "zoom", z, "x", x, "y", y, "error", err)
			return 0, 0, false
		}
		data = transcoded
	}

	dims, probeErr := imageprobe.Probe(data)
	if probeErr != nil {
		e.log().Warn("tile undecodable, storing verbatim", "zoom", z, "x", x, "y", y, "error", probeErr)
	}

	if err := e.container.InsertTile(ctx, s.req.Table, z, tileColumn, tileRow, data); err != nil {
		e.log().Warn("tile insert failed", "zoom", z, "x", x, "y", y, "error", err)
		return 0, 0, false
	}

	if probeErr != nil {
		return 0, 0, true
	}
	return dims.Width, dims.Height, true
}
