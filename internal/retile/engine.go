// Package retile implements the retiling engine's generation state
// machine: planning the tile count, choosing and growing the matrix-set
// addressing scheme, relocating previously-stored tiles when a merge
// grows the matrix-set bounds, and driving per-zoom tile generation
// against a caller-supplied TileSource and Container.
package retile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/imageprobe"
	"github.com/tilepyramid/retiler/internal/progress"
	"github.com/tilepyramid/retiler/internal/tilesource"
)

// Container is the narrow subset of *geopackage.Container the engine
// drives. Declaring it here (rather than depending on the concrete
// type) keeps Generate testable against an in-memory fake without a
// real SQLite file.
type Container interface {
	TableExists(ctx context.Context, table string) (bool, error)
	CreateTileTableWithMetadata(ctx context.Context, table string, bboxWGS84 coordmath.BoundingBox, bboxMerc coordmath.MercatorBox, format geopackage.Format, lastChange string) error
	DeleteTableQuietly(ctx context.Context, table string)

	GetContents(ctx context.Context, table string) (geopackage.ContentsRow, bool, error)
	UpdateContentsBounds(ctx context.Context, table string, bounds coordmath.BoundingBox) error
	TouchContentsLastChange(ctx context.Context, table string, nowRFC3339 string) error

	QueryTileMatrixSet(ctx context.Context, table string) (geopackage.TileMatrixSetRow, bool, error)
	UpdateTileMatrixSetBounds(ctx context.Context, table string, bounds coordmath.MercatorBox, format geopackage.Format) error

	TileMatrixExists(ctx context.Context, table string, zoom int) (bool, error)
	TileMatrixAt(ctx context.Context, table string, zoom int) (geopackage.TileMatrixRow, bool, error)
	CreateTileMatrix(ctx context.Context, r geopackage.TileMatrixRow) error
	UpdateTileMatrix(ctx context.Context, r geopackage.TileMatrixRow) error
	ExistingZooms(ctx context.Context, table string) ([]int, error)
	MinZoom(ctx context.Context, table string) (int, bool, error)

	QueryTilesForZoomDescending(ctx context.Context, table string, zoom int) ([]geopackage.TileRow, error)
	InsertTile(ctx context.Context, table string, zoom, col, row int, data []byte) error
	RelocateTile(ctx context.Context, table string, zoom, oldCol, oldRow, newCol, newRow int) error
	DeleteTile(ctx context.Context, table string, zoom, col, row int) error
	DeleteTilesInRange(ctx context.Context, table string, zoom, minX, maxX, minY, maxY int) error
}

// Request configures one generate() call.
type Request struct {
	Table string

	RequestBBoxWGS84 coordmath.BoundingBox
	MinZoom          int
	MaxZoom          int
	GoogleTiles      bool

	// CompressFormat, when non-empty, re-encodes every fetched tile via
	// imageprobe.Transcode at CompressQuality before storing it.
	CompressFormat  string
	CompressQuality float64

	Source   tilesource.Source
	Progress progress.Sink
}

// Engine owns no state between calls; every Generate call is
// independent and single-threaded cooperative (spec's concurrency
// model — no internal parallelism across tiles or zooms).
type Engine struct {
	container Container
	logger    *slog.Logger
}

// New builds an Engine over container. A nil logger falls back to
// slog.Default.
func New(container Container, logger *slog.Logger) *Engine {
	return &Engine{container: container, logger: logger}
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// state carries the mutable variables threaded across phases 2-4 for
// one Generate call.
type state struct {
	req Request

	googleMode bool
	update     bool

	tileMatrixSetBBoxWGS84 coordmath.BoundingBox
	webMercatorBBox        coordmath.MercatorBox
	matrixWidth            int
	matrixHeight           int

	tileGridsPerZoom map[int]coordmath.TileGrid
	plannedCount     int // Phase 1's tile_count(), published as ProgressSink.set_max
	committedCount   int // tiles actually inserted across all zooms; generate()'s return value
}

// Generate runs the full generation state machine and returns the
// number of tiles committed. On a fatal error the target table is
// dropped and the error is returned; per-tile errors are swallowed and
// logged, never propagated here.
func (e *Engine) Generate(ctx context.Context, req Request) (int, error) {
	if err := validateRequest(req); err != nil {
		return 0, err
	}

	s := &state{
		req:              req,
		googleMode:       req.GoogleTiles,
		tileGridsPerZoom: make(map[int]coordmath.TileGrid),
	}

	// Phase 1 — Plan.
	e.planTileCounts(s)
	req.Progress.SetMax(s.plannedCount)

	// Phase 2 — Bounds adjustment.
	e.adjustBounds(s)

	// Phase 3 — Create-or-merge. A format conflict is not fatal to an
	// existing table: nothing has been mutated yet, so no cleanup is
	// needed before returning the error.
	tableExists, err := e.container.TableExists(ctx, req.Table)
	if err != nil {
		return 0, fmt.Errorf("retile: check table exists: %w", err)
	}

	if !tableExists {
		if err := e.createTable(ctx, s); err != nil {
			e.container.DeleteTableQuietly(ctx, req.Table)
			return 0, fmt.Errorf("retile: create table: %w", err)
		}
	} else {
		conflict, err := e.mergeIntoExisting(ctx, s)
		if conflict {
			return 0, err
		}
		if err != nil {
			e.container.DeleteTableQuietly(ctx, req.Table)
			return 0, fmt.Errorf("retile: merge into existing table: %w", err)
		}
	}

	// Phase 4 — Per-zoom generation.
	if err := e.generateZooms(ctx, s); err != nil {
		e.container.DeleteTableQuietly(ctx, req.Table)
		return 0, fmt.Errorf("retile: generate zooms: %w", err)
	}

	// Phase 5 — Finalize.
	return e.finalize(ctx, s)
}

func validateRequest(req Request) error {
	if !req.RequestBBoxWGS84.Clamped().Valid() {
		return fmt.Errorf("%w: bounding box has min > max on some axis", ErrConfig)
	}
	if req.MinZoom < 0 || req.MaxZoom < req.MinZoom {
		return fmt.Errorf("%w: zoom range [%d,%d] invalid", ErrConfig, req.MinZoom, req.MaxZoom)
	}
	if req.CompressFormat != "" && (req.CompressQuality < 0 || req.CompressQuality > 1) {
		return fmt.Errorf("%w: %v", ErrConfig, imageprobe.ErrInvalidArgument)
	}
	if req.Source == nil {
		return fmt.Errorf("%w: nil TileSource", ErrConfig)
	}
	if req.Progress == nil {
		return fmt.Errorf("%w: nil ProgressSink", ErrConfig)
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
