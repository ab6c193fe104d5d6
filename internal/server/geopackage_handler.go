// Package server serves tiles straight out of a generated GeoPackage-
// style container over plain net/http, mirroring the teacher's
// MBTiles-backed handler but reading live from the engine's own
// storage format instead of a separate export.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/tile"
)

// GeoPackageConfig configures a GeoPackageHandler.
type GeoPackageConfig struct {
	Table        string
	CacheControl string
}

// GeoPackageHandler serves tiles from one table of an open container,
// translating public XYZ request coordinates into the table's stored
// addressing (global or fitted) as needed.
type GeoPackageHandler struct {
	container    *geopackage.Container
	table        string
	cacheControl string
	logger       *slog.Logger

	mset geopackage.TileMatrixSetRow

	mu           sync.RWMutex
	matrixByZoom map[int]geopackage.TileMatrixRow
}

// NewGeoPackageHandler builds a handler for cfg.Table. The table must
// already exist (a finished generation); NewGeoPackageHandler does not
// create one.
func NewGeoPackageHandler(ctx context.Context, container *geopackage.Container, cfg GeoPackageConfig, logger *slog.Logger) (*GeoPackageHandler, error) {
	mset, ok, err := container.QueryTileMatrixSet(ctx, cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to query tile matrix set: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("table %q has not been generated yet", cfg.Table)
	}

	return &GeoPackageHandler{
		container:    container,
		table:        cfg.Table,
		cacheControl: cfg.CacheControl,
		logger:       logger,
		mset:         mset,
		matrixByZoom: make(map[int]geopackage.TileMatrixRow),
	}, nil
}

// Handler returns the HTTP handler function serving /tiles/z{z}_x{x}_y{y}.png.
func (h *GeoPackageHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serveTile(w, r)
	}
}

func (h *GeoPackageHandler) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, _, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	z, x, y := int(coords.Z), int(coords.X), int(coords.Y)

	col, row, err := h.localCoords(ctx, z, x, y)
	if err != nil {
		h.log().Error("failed to resolve stored coordinates", "coords", coords.String(), "error", err)
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}

	data, found, err := h.container.GetTile(ctx, h.table, z, col, row)
	if err != nil {
		h.log().Error("failed to read tile", "coords", coords.String(), "error", err)
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", http.DetectContentType(data))
	if _, err := w.Write(data); err != nil {
		h.log().Error("failed to write response", "error", err)
	}
}

// localCoords translates a public global (z, x, y) into the table's
// stored (column, row): an identity mapping under the google format, or
// a lookup against the fitted matrix-set bbox otherwise.
func (h *GeoPackageHandler) localCoords(ctx context.Context, z, x, y int) (int, int, error) {
	if h.mset.Format == geopackage.FormatGoogle {
		return x, y, nil
	}

	matrix, err := h.matrixAt(ctx, z)
	if err != nil {
		return 0, 0, err
	}

	global := coordmath.WebMercatorBBoxOfTile(coordmath.TileGrid{MinX: x, MaxX: x, MinY: y, MaxY: y}, z)
	centerX := (global.MinX + global.MaxX) / 2
	centerY := (global.MinY + global.MaxY) / 2

	col := coordmath.TileColumnOf(h.mset.Bounds, matrix.MatrixWidth, centerX)
	row := coordmath.TileRowOf(h.mset.Bounds, matrix.MatrixHeight, centerY)
	return col, row, nil
}

func (h *GeoPackageHandler) matrixAt(ctx context.Context, zoom int) (geopackage.TileMatrixRow, error) {
	h.mu.RLock()
	m, ok := h.matrixByZoom[zoom]
	h.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, ok, err := h.container.TileMatrixAt(ctx, h.table, zoom)
	if err != nil {
		return geopackage.TileMatrixRow{}, err
	}
	if !ok {
		return geopackage.TileMatrixRow{}, fmt.Errorf("no tile matrix at zoom %d", zoom)
	}

	h.mu.Lock()
	h.matrixByZoom[zoom] = m
	h.mu.Unlock()
	return m, nil
}

func (h *GeoPackageHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

// parseTilePath parses a request path like /tiles/z13_x4317_y2692.png
// (the suffix, e.g. "@2x", is accepted but ignored — a single table
// serves a single tile size).
func parseTilePath(requestPath string) (tile.Coords, string, bool) {
	if !strings.HasPrefix(requestPath, "/tiles/") {
		return tile.Coords{}, "", false
	}
	base := path.Base(requestPath)
	if !strings.HasSuffix(base, ".png") {
		return tile.Coords{}, "", false
	}
	name := strings.TrimSuffix(base, ".png")
	suffix := ""
	if strings.HasSuffix(name, "@2x") {
		suffix = "@2x"
		name = strings.TrimSuffix(name, "@2x")
	}

	coords, err := tile.ParseCoords(name)
	if err != nil {
		return tile.Coords{}, "", false
	}
	return coords, suffix, true
}
