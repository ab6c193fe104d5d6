package mbtilesexport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/tilepyramid/retiler/internal/coordmath"
	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/progress"
	"github.com/tilepyramid/retiler/internal/retile"
	"github.com/tilepyramid/retiler/internal/tilesource"

	_ "modernc.org/sqlite"
)

func makeTilePNG() []byte {
	// Smallest valid PNG header is overkill here; the export path treats
	// tile bytes as opaque, so any non-empty payload exercises it.
	return []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0}
}

func generateTestTable(t *testing.T, path, table string, google bool, bbox coordmath.BoundingBox, minZ, maxZ int) *geopackage.Container {
	t.Helper()
	container, err := geopackage.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	engine := retile.New(container, nil)
	_, err = engine.Generate(context.Background(), retile.Request{
		Table:            table,
		RequestBBoxWGS84: bbox,
		MinZoom:          minZ,
		MaxZoom:          maxZ,
		GoogleTiles:      google,
		Source:           tilesource.NewStub(makeTilePNG()),
		Progress:         progress.Noop{},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return container
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open mbtiles: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&n); err != nil {
		t.Fatalf("count tiles: %v", err)
	}
	return n
}

func TestExportGoogleFormat(t *testing.T) {
	dir := t.TempDir()
	container := generateTestTable(t, filepath.Join(dir, "src.gpkg"), "tiles", true, coordmath.WorldWGS84(), 0, 1)
	defer container.Close()

	out := filepath.Join(dir, "out.mbtiles")
	if err := Export(context.Background(), container, "tiles", out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got, want := countRows(t, out), 5; got != want {
		t.Errorf("tile count = %d, want %d", got, want)
	}
}

func TestExportFittedFormat(t *testing.T) {
	dir := t.TempDir()
	bbox := coordmath.BoundingBox{MinLon: -10, MinLat: -10, MaxLon: 10, MaxLat: 10}
	container := generateTestTable(t, filepath.Join(dir, "src.gpkg"), "tiles", false, bbox, 2, 3)
	defer container.Close()

	out := filepath.Join(dir, "out.mbtiles")
	if err := Export(context.Background(), container, "tiles", out); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got := countRows(t, out); got == 0 {
		t.Fatal("expected at least one exported tile")
	}

	db, err := sql.Open("sqlite", out)
	if err != nil {
		t.Fatalf("open mbtiles: %v", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT zoom_level, tile_column, tile_row FROM tiles")
	if err != nil {
		t.Fatalf("query tiles: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var z, col, row int
		if err := rows.Scan(&z, &col, &row); err != nil {
			t.Fatalf("scan: %v", err)
		}
		n := 1 << uint(z)
		if col < 0 || col >= n || row < 0 || row >= n {
			t.Errorf("zoom %d tile (%d,%d) out of global range [0,%d)", z, col, row, n)
		}
	}
}

func TestExportMissingTableFails(t *testing.T) {
	dir := t.TempDir()
	container, err := geopackage.Open(filepath.Join(dir, "empty.gpkg"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer container.Close()

	if err := Export(context.Background(), container, "nope", filepath.Join(dir, "out.mbtiles")); err == nil {
		t.Fatal("expected error for missing table")
	}
}
