// Package orchestrator is the public entry point over RetileEngine: a
// configuration builder that becomes a single-use actor once generate
// begins. Mirrors the teacher's cobra-driven CLI surface, but as a
// library API the CLI (and, equally, any other caller) wires flags into.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/progress"
	"github.com/tilepyramid/retiler/internal/retile"
	"github.com/tilepyramid/retiler/internal/tilesource"
)

// Orchestrator configures and drives one generation run against one
// tile table. It is a builder until generate() is called, then an
// actor: every Set* method after that point returns ErrAlreadyStarted.
type Orchestrator struct {
	engine *retile.Engine
	table  string

	mu sync.Mutex

	bbox            coordmath.BoundingBox
	minZoom         int
	maxZoom         int
	googleTiles     bool
	compressFormat  string
	compressQuality float64
	source          tilesource.Source
	sink            progress.Sink

	started     bool
	cachedCount int
	countCached bool
}

// New builds an Orchestrator targeting table, driven by engine.
func New(engine *retile.Engine, table string) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		table:   table,
		sink:    progress.Noop{},
		minZoom: 0,
		maxZoom: 0,
	}
}

// ErrAlreadyStarted is returned by every configuration setter once
// Generate has been called.
var ErrAlreadyStarted = fmt.Errorf("orchestrator: cannot reconfigure after generate has begun")

func (o *Orchestrator) guardMutable() error {
	if o.started {
		return ErrAlreadyStarted
	}
	return nil
}

// SetTileBoundingBox stores bbox (already WGS84; callers owning a box
// in another CRS must project it themselves — CoordMath is the only
// CRS transform this module owns) with latitudes clamped to the
// mercator-safe range.
func (o *Orchestrator) SetTileBoundingBox(bbox coordmath.BoundingBox) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.bbox = bbox.Clamped()
	o.countCached = false
	return nil
}

// SetZoomRange stores the inclusive zoom range to generate.
func (o *Orchestrator) SetZoomRange(minZoom, maxZoom int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.minZoom = minZoom
	o.maxZoom = maxZoom
	o.countCached = false
	return nil
}

// SetCompressFormat sets the target re-encode format ("" disables
// transcoding; tiles are then stored verbatim).
func (o *Orchestrator) SetCompressFormat(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.compressFormat = name
	return nil
}

// SetCompressQuality sets the transcode quality in [0.0, 1.0].
func (o *Orchestrator) SetCompressQuality(q float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.compressQuality = q
	return nil
}

// SetGoogleTiles selects the addressing format for a freshly-created
// table; it has no effect on a merge into an existing table whose
// stored format differs (RetileEngine resolves that per its own
// conflict/upgrade rules).
func (o *Orchestrator) SetGoogleTiles(google bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.googleTiles = google
	return nil
}

// SetSource configures the TileSource generation reads from.
func (o *Orchestrator) SetSource(source tilesource.Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.source = source
	return nil
}

// SetProgress configures the ProgressSink generation reports into and
// polls for cancellation. Defaults to a no-op sink that never cancels.
func (o *Orchestrator) SetProgress(sink progress.Sink) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.guardMutable(); err != nil {
		return err
	}
	o.sink = sink
	return nil
}

// BoundingBox, ZoomRange, CompressFormat, CompressQuality, GoogleTiles
// are plain accessors for every Set* above.
func (o *Orchestrator) BoundingBox() coordmath.BoundingBox { return o.bbox }
func (o *Orchestrator) ZoomRange() (int, int)              { return o.minZoom, o.maxZoom }
func (o *Orchestrator) CompressFormat() string             { return o.compressFormat }
func (o *Orchestrator) CompressQuality() float64           { return o.compressQuality }
func (o *Orchestrator) GoogleTiles() bool                  { return o.googleTiles }

// TileCount computes Phase 1's planned tile count lazily and caches it;
// it does not mark the orchestrator as started, so configuration
// remains mutable afterward.
func (o *Orchestrator) TileCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.countCached {
		return o.cachedCount
	}

	total := 0
	requestMerc := coordmath.ToWebMercator(o.bbox)
	for z := o.minZoom; z <= o.maxZoom; z++ {
		total += coordmath.TileGridForBBox(requestMerc, z).Count()
	}
	o.cachedCount = total
	o.countCached = true
	return total
}

// Generate runs one generation call against the configured table.
// After the first call to Generate, every configuration setter fails
// with ErrAlreadyStarted — an Orchestrator is single-use.
func (o *Orchestrator) Generate(ctx context.Context) (int, error) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	o.started = true
	req := retile.Request{
		Table:            o.table,
		RequestBBoxWGS84: o.bbox,
		MinZoom:          o.minZoom,
		MaxZoom:          o.maxZoom,
		GoogleTiles:      o.googleTiles,
		CompressFormat:   o.compressFormat,
		CompressQuality:  o.compressQuality,
		Source:           o.source,
		Progress:         o.sink,
	}
	o.mu.Unlock()

	count, err := o.engine.Generate(ctx, req)
	if err != nil {
		slog.Default().Error("generation failed", "table", o.table, "error", err)
	}
	return count, err
}
