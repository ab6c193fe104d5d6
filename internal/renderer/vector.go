package renderer

import (
	"fmt"
	"image/png"
	"os"

	"github.com/tilepyramid/retiler/internal/geojson"
	"github.com/tilepyramid/retiler/internal/raster"
	"github.com/tilepyramid/retiler/internal/tile"
	"github.com/tilepyramid/retiler/internal/types"
)

// VectorRenderer renders tiles with internal/raster instead of Mapnik. It
// trades style-sheet flexibility for a renderer with no cgo dependency,
// useful where libmapnik isn't installed.
type VectorRenderer struct {
	outputDir    string
	baseTileSize int
	padPx        int
}

// NewVectorRenderer creates a cgo-free layer renderer. Unlike
// NewMultiPassRenderer it takes no stylesDir: the vector renderer draws
// geometry directly rather than through Mapnik stylesheets.
func NewVectorRenderer(outputDir string, tileSize int, padPx int) (*VectorRenderer, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("tile size must be positive")
	}
	if padPx < 0 {
		padPx = 0
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &VectorRenderer{outputDir: outputDir, baseTileSize: tileSize, padPx: padPx}, nil
}

// Close is a no-op; kept so VectorRenderer satisfies the same shape as MultiPassRenderer.
func (r *VectorRenderer) Close() error { return nil }

// RenderTile rasterizes every layer directly from the fetched features, matching
// MultiPassRenderer.RenderTile's (map[LayerType]*LayerRenderResult) contract.
func (r *VectorRenderer) RenderTile(coords tile.Coords, data *types.TileData) (*TileRenderResult, error) {
	result := &TileRenderResult{
		TileCoords: coords,
		Layers:     make(map[geojson.LayerType]*LayerRenderResult),
	}

	renderSize := r.baseTileSize + 2*r.padPx
	globalX := int(coords.X)*r.baseTileSize - r.padPx
	globalY := int(coords.Y)*r.baseTileSize - r.padPx
	vr := raster.NewRenderer(int(coords.Z), r.baseTileSize, renderSize, renderSize, globalX, globalY)

	layers := vr.RenderLayers(data.Features)

	order := []geojson.LayerType{
		geojson.LayerLand,
		geojson.LayerWater,
		geojson.LayerRivers,
		geojson.LayerParks,
		geojson.LayerUrban,
		geojson.LayerBuildings,
		geojson.LayerRoads,
		geojson.LayerHighways,
	}

	for _, layer := range order {
		if layer == geojson.LayerLand {
			// The vector renderer has no background fill pass; land is derived
			// downstream from the non-land mask, same as the Mapnik path's
			// "blank" land layer contributes nothing but a style background.
			result.Layers[layer] = &LayerRenderResult{Layer: layer}
			continue
		}
		img, ok := layers[layer]
		if !ok || img == nil {
			result.Layers[layer] = &LayerRenderResult{Layer: layer}
			continue
		}

		outputPath := GetLayerPath(r.outputDir, coords, layer)
		f, err := os.Create(outputPath)
		if err != nil {
			result.Layers[layer] = &LayerRenderResult{Layer: layer, Error: fmt.Errorf("failed to create layer file: %w", err)}
			continue
		}
		err = png.Encode(f, img)
		f.Close() // nolint:errcheck
		if err != nil {
			result.Layers[layer] = &LayerRenderResult{Layer: layer, Error: fmt.Errorf("failed to encode layer: %w", err)}
			continue
		}
		result.Layers[layer] = &LayerRenderResult{Layer: layer, OutputPath: outputPath}
	}

	return result, nil
}
