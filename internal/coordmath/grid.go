package coordmath

import "math"

// TileGrid is an inclusive rectangle of tile column/row coordinates at
// some zoom. Columns and rows are always >= 0; callers that need the
// zoom alongside the grid carry it separately (TileGrid has no zoom
// field of its own, matching the two call sites: a global grid keyed by
// zoom, and a fitted grid that is zoom-agnostic within one matrix).
type TileGrid struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

// Count returns the number of tiles covered by the grid.
func (g TileGrid) Count() int {
	return (g.MaxX - g.MinX + 1) * (g.MaxY - g.MinY + 1)
}

// TilesPerSide returns 2^zoom, the matrix width/height of the global
// (google-format) tile matrix at the given zoom.
func TilesPerSide(zoom int) int {
	return 1 << uint(zoom)
}

// floorIndex and ceilMinus1Index implement the edge policy spec'd for
// grid boundaries: a tile is included if its half-open [min, max)
// extent overlaps the box. The near edge of a range always rounds down
// (floor); the far edge always resolves to "ceil minus one" so that a
// box edge landing exactly on a tile boundary does not pull in the
// tile on the far side of that boundary. indexEpsilon absorbs the
// floating-point noise of the edge/tile-size ratio, so an edge computed
// as an exact tile boundary is treated as lying on that boundary.
const indexEpsilon = 1e-6

func floorIndex(v float64) int {
	return int(math.Floor(v + indexEpsilon))
}

func ceilMinus1Index(v float64) int {
	return int(math.Ceil(v-indexEpsilon)) - 1
}

func clampIndex(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TileGridForBBox computes the inclusive range of global Web Mercator tiles at
// zoom whose extents intersect bbox.
func TileGridForBBox(bbox MercatorBox, zoom int) TileGrid {
	n := TilesPerSide(zoom)
	world := WorldMercator()
	tileSize := world.Width() / float64(n)

	minX := floorIndex((bbox.MinX - world.MinX) / tileSize)
	maxX := ceilMinus1Index((bbox.MaxX - world.MinX) / tileSize)
	// Rows increase southward (row 0 is the northernmost tile), so the
	// near edge for row indexing is the box's north (max-Y) edge.
	minY := floorIndex((world.MaxY - bbox.MaxY) / tileSize)
	maxY := ceilMinus1Index((world.MaxY - bbox.MinY) / tileSize)

	return TileGrid{
		MinX: clampIndex(minX, 0, n-1),
		MinY: clampIndex(minY, 0, n-1),
		MaxX: clampIndex(maxX, 0, n-1),
		MaxY: clampIndex(maxY, 0, n-1),
	}
}

// TileGridInBox is the fitted-grid analogue of TileGridForBBox: outer is
// divided into matrixWidth x matrixHeight equal cells, and the inclusive
// cell range covering requestBBox is returned. Both boxes share a CRS
// (Web Mercator, in practice, since the fitted matrix-set bbox is always
// computed in mercator space).
func TileGridInBox(outer MercatorBox, matrixWidth, matrixHeight int, request MercatorBox) TileGrid {
	cellWidth := outer.Width() / float64(matrixWidth)
	cellHeight := outer.Height() / float64(matrixHeight)

	minCol := floorIndex((request.MinX - outer.MinX) / cellWidth)
	maxCol := ceilMinus1Index((request.MaxX - outer.MinX) / cellWidth)
	minRow := floorIndex((outer.MaxY - request.MaxY) / cellHeight)
	maxRow := ceilMinus1Index((outer.MaxY - request.MinY) / cellHeight)

	return TileGrid{
		MinX: clampIndex(minCol, 0, matrixWidth-1),
		MinY: clampIndex(minRow, 0, matrixHeight-1),
		MaxX: clampIndex(maxCol, 0, matrixWidth-1),
		MaxY: clampIndex(maxRow, 0, matrixHeight-1),
	}
}

// WebMercatorBBoxOfTile returns the exact extent of the grid's tiles at
// zoom, in global Web Mercator tile coordinates.
func WebMercatorBBoxOfTile(grid TileGrid, zoom int) MercatorBox {
	n := TilesPerSide(zoom)
	world := WorldMercator()
	tileSize := world.Width() / float64(n)

	return MercatorBox{
		MinX: world.MinX + float64(grid.MinX)*tileSize,
		MaxX: world.MinX + float64(grid.MaxX+1)*tileSize,
		MaxY: world.MaxY - float64(grid.MinY)*tileSize,
		MinY: world.MaxY - float64(grid.MaxY+1)*tileSize,
	}
}

// WebMercatorBBoxOfFitted returns the extent of a single (col, row) cell
// of a matrixWidth x matrixHeight grid fitted inside outer.
func WebMercatorBBoxOfFitted(outer MercatorBox, matrixWidth, matrixHeight, col, row int) MercatorBox {
	cellWidth := outer.Width() / float64(matrixWidth)
	cellHeight := outer.Height() / float64(matrixHeight)

	return MercatorBox{
		MinX: outer.MinX + float64(col)*cellWidth,
		MaxX: outer.MinX + float64(col+1)*cellWidth,
		MaxY: outer.MaxY - float64(row)*cellHeight,
		MinY: outer.MaxY - float64(row+1)*cellHeight,
	}
}

// TileColumnOf returns the column index of x (a Web Mercator easting)
// within a matrixWidth-wide grid fitted inside outer. Used by the
// relocation pass to re-derive a tile's column after the matrix-set
// bbox has grown.
func TileColumnOf(outer MercatorBox, matrixWidth int, x float64) int {
	cellWidth := outer.Width() / float64(matrixWidth)
	col := floorIndex((x - outer.MinX) / cellWidth)
	return clampIndex(col, 0, matrixWidth-1)
}

// TileRowOf returns the row index of y (a Web Mercator northing) within
// a matrixHeight-tall grid fitted inside outer.
func TileRowOf(outer MercatorBox, matrixHeight int, y float64) int {
	cellHeight := outer.Height() / float64(matrixHeight)
	row := floorIndex((outer.MaxY - y) / cellHeight)
	return clampIndex(row, 0, matrixHeight-1)
}
