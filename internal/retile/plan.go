package retile

import "github.com/tilepyramid/retiler/internal/coordmath"

// planTileCounts implements Phase 1: for each zoom in the requested
// range, compute the global web-mercator tile grid intersecting the
// request box and sum its tile counts. The per-zoom grids are cached
// for reuse in Phase 4 — TileSource.fetch always addresses tiles in
// global coordinates regardless of storage format, so this plan is the
// same whether the table ends up google- or fitted-format.
func (e *Engine) planTileCounts(s *state) {
	requestMerc := coordmath.ToWebMercator(s.req.RequestBBoxWGS84.Clamped())

	for z := s.req.MinZoom; z <= s.req.MaxZoom; z++ {
		grid := coordmath.TileGridForBBox(requestMerc, z)
		s.tileGridsPerZoom[z] = grid
		s.plannedCount += grid.Count()
	}
}

// adjustBounds implements Phase 2. It is re-run whenever the table
// merge path discovers a stored format that forces google-mode (the
// silent upgrade rule). The relocation pass does not call it; it
// computes its grown bounding box inline.
func (e *Engine) adjustBounds(s *state) {
	if s.googleMode {
		s.tileMatrixSetBBoxWGS84 = coordmath.WorldWGS84()
		s.webMercatorBBox = coordmath.WorldMercator()
		return
	}

	requestMerc := coordmath.ToWebMercator(s.req.RequestBBoxWGS84.Clamped())
	grid := coordmath.TileGridForBBox(requestMerc, s.req.MinZoom)
	s.webMercatorBBox = coordmath.WebMercatorBBoxOfTile(grid, s.req.MinZoom)
	s.matrixWidth = grid.MaxX - grid.MinX + 1
	s.matrixHeight = grid.MaxY - grid.MinY + 1
	s.tileMatrixSetBBoxWGS84 = coordmath.ToWGS84(s.webMercatorBBox)
}
