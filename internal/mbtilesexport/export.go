// Package mbtilesexport converts a geopackage.Container tile table into
// a standalone .mbtiles file, reusing the teacher's mbtiles.Writer for
// the actual MBTiles schema/gzip/TMS-row-flip work. Export only: the
// generator itself always stores into the GeoPackage-style container;
// MBTiles here is purely an output format for downstream consumers
// (e.g. tile servers that only understand MBTiles).
package mbtilesexport

import (
	"context"
	"fmt"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/mbtiles"
)

// Export reads every tile in table from container and writes them,
// along with MinZoom/MaxZoom/Bounds metadata, to an MBTiles file at
// outputPath. MBTiles only understands the global XYZ grid, so tiles
// stored under the fitted/GeoPackage addressing scheme are translated
// to their equivalent global tile column/row before being handed to
// mbtiles.Writer (which does its own XYZ-to-TMS row flip assuming that
// global frame).
func Export(ctx context.Context, container *geopackage.Container, table, outputPath string) error {
	contents, ok, err := container.GetContents(ctx, table)
	if err != nil {
		return fmt.Errorf("mbtilesexport: read contents: %w", err)
	}
	if !ok {
		return fmt.Errorf("mbtilesexport: table %q not found", table)
	}

	mset, ok, err := container.QueryTileMatrixSet(ctx, table)
	if err != nil {
		return fmt.Errorf("mbtilesexport: read tile matrix set: %w", err)
	}
	if !ok {
		return fmt.Errorf("mbtilesexport: table %q has no tile matrix set", table)
	}

	zooms, err := container.ExistingZooms(ctx, table)
	if err != nil {
		return fmt.Errorf("mbtilesexport: list zooms: %w", err)
	}
	if len(zooms) == 0 {
		return fmt.Errorf("mbtilesexport: table %q has no tile matrices", table)
	}
	minZoom, maxZoom := zooms[0], zooms[0]
	for _, z := range zooms {
		if z < minZoom {
			minZoom = z
		}
		if z > maxZoom {
			maxZoom = z
		}
	}

	meta := mbtiles.Metadata{
		Name:    table,
		Format:  "png",
		Type:    "baselayer",
		MinZoom: minZoom,
		MaxZoom: maxZoom,
		Bounds:  [4]float64{contents.Bounds.MinLon, contents.Bounds.MinLat, contents.Bounds.MaxLon, contents.Bounds.MaxLat},
	}

	writer, err := mbtiles.New(outputPath, meta)
	if err != nil {
		return fmt.Errorf("mbtilesexport: open %s: %w", outputPath, err)
	}
	defer writer.Close()

	tiles, err := container.AllTiles(ctx, table)
	if err != nil {
		return fmt.Errorf("mbtilesexport: read tiles: %w", err)
	}

	// Per-zoom matrix rows, fetched lazily, needed only for the fitted
	// (non-google) offset computation below.
	matrixByZoom := map[int]geopackage.TileMatrixRow{}

	for _, t := range tiles {
		col, row := t.Column, t.Row
		if mset.Format == geopackage.FormatFitted {
			m, ok := matrixByZoom[t.Zoom]
			if !ok {
				m, ok, err = container.TileMatrixAt(ctx, table, t.Zoom)
				if err != nil {
					return fmt.Errorf("mbtilesexport: read tile matrix z%d: %w", t.Zoom, err)
				}
				if !ok {
					return fmt.Errorf("mbtilesexport: missing tile matrix for zoom %d", t.Zoom)
				}
				matrixByZoom[t.Zoom] = m
			}
			col, row = fittedToGlobal(mset.Bounds, m.MatrixWidth, m.MatrixHeight, t.Zoom, col, row)
		}

		if err := writer.WriteTile(t.Zoom, col, row, t.Data); err != nil {
			return fmt.Errorf("mbtilesexport: write tile z%d/%d/%d: %w", t.Zoom, col, row, err)
		}
	}

	return writer.Close()
}

// fittedToGlobal maps a (col, row) in a matrixWidth x matrixHeight grid
// fitted inside outer to the equivalent column/row in the global
// (google-format) 2^zoom x 2^zoom grid. Fitted cells share the global
// grid's tile footprint at a given zoom (both are derived from the same
// world-mercator tile size), so the mapping is a cell-center lookup
// against the global grid rather than a unit conversion.
func fittedToGlobal(outer coordmath.MercatorBox, matrixWidth, matrixHeight, zoom, col, row int) (int, int) {
	cell := coordmath.WebMercatorBBoxOfFitted(outer, matrixWidth, matrixHeight, col, row)
	centerX := (cell.MinX + cell.MaxX) / 2
	centerY := (cell.MinY + cell.MaxY) / 2

	world := coordmath.WorldMercator()
	n := coordmath.TilesPerSide(zoom)
	globalCol := coordmath.TileColumnOf(world, n, centerX)
	globalRow := coordmath.TileRowOf(world, n, centerY)
	return globalCol, globalRow
}
