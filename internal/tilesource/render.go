package tilesource

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tilepyramid/retiler/internal/datasource"
	"github.com/tilepyramid/retiler/internal/pipeline"
	"github.com/tilepyramid/retiler/internal/tile"
)

// memoryTileWriter captures the single PNG the pipeline renders for one
// Generate call, instead of writing it to disk. The pipeline calls
// WriteTile at most once per Generate invocation.
type memoryTileWriter struct {
	mu   sync.Mutex
	data []byte
	got  bool
}

func (w *memoryTileWriter) WriteTile(_, _, _ int, pngData []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = pngData
	w.got = true
	return nil
}

// RenderTileSource adapts the teacher's watercolor rendering pipeline
// (OSM data via Overpass, procedural watercolor painting, texture
// compositing) into a Source: every fetch renders one tile on demand
// rather than downloading pre-rendered bytes. This is the concrete
// renderer implementation the generation engine's TileSource contract
// is designed to accept — a generation run can equally be pointed at
// an HTTPSource instead without any engine change.
//
// The teacher's Generator takes its TileWriter at construction, not per
// call, so Fetch serializes on mu and reuses one memoryTileWriter
// rather than racing concurrent renders onto shared state. Wrap a
// RenderTileSource in PrefetchingSource at your own risk: it buys
// nothing here since rendering itself never overlaps.
type RenderTileSource struct {
	gen    *pipeline.Generator
	writer *memoryTileWriter
	mu     sync.Mutex
}

// NewRenderTileSource builds a RenderTileSource backed by a fresh
// pipeline.Generator over ds. scratchDir is used only as a staging
// directory the teacher's Generator requires for intermediate layer
// output when keepLayers is requested; tile bytes themselves never
// touch disk.
func NewRenderTileSource(ds pipeline.DataSource, stylesDir, texturesDir, scratchDir string, tileSize int, seed int64, backend string) (*RenderTileSource, error) {
	writer := &memoryTileWriter{}
	gen, err := pipeline.NewGenerator(ds, stylesDir, texturesDir, scratchDir, tileSize, seed, false, nil, pipeline.GeneratorOptions{
		PNGCompression:  "default",
		FolderStructure: "flat",
		TileWriter:      writer,
		RenderBackend:   backend,
	})
	if err != nil {
		return nil, fmt.Errorf("tilesource: build render pipeline: %w", err)
	}
	return &RenderTileSource{gen: gen, writer: writer}, nil
}

// NewOverpassRenderTileSource is the common case: render tiles by
// querying a live Overpass API endpoint for OSM features, using a
// fresh process-lifetime scratch directory. backend selects the layer
// renderer ("mapnik" or "vector"); see pipeline.GeneratorOptions.RenderBackend.
func NewOverpassRenderTileSource(overpassEndpoint, stylesDir, texturesDir string, tileSize int, seed int64, backend string) (*RenderTileSource, error) {
	ds := datasource.NewOverpassDataSource(overpassEndpoint)
	scratchDir, err := scratchTempDir()
	if err != nil {
		return nil, fmt.Errorf("tilesource: create scratch dir: %w", err)
	}
	return NewRenderTileSource(ds, stylesDir, texturesDir, scratchDir, tileSize, seed, backend)
}

func (r *RenderTileSource) Fetch(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writer.got = false
	r.writer.data = nil

	coords := tile.Coords{Z: uint32(z), X: uint32(x), Y: uint32(y)}
	_, _, err := r.gen.Generate(ctx, coords, true, "", nil)
	if err != nil {
		return nil, false, fmt.Errorf("tilesource: render z%d/%d/%d: %w", z, x, y, err)
	}
	if !r.writer.got {
		return nil, false, nil
	}
	return r.writer.data, true, nil
}

// scratchTempDir returns a process-lifetime scratch directory for
// RenderTileSource instances that have no caller-supplied staging
// path. Its contents are not tile storage — only the teacher pipeline's
// required on-disk intermediate layer directory.
func scratchTempDir() (string, error) {
	return os.MkdirTemp("", "retiler-render-*")
}
