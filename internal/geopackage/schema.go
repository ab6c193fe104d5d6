package geopackage

// Spatial reference system codes the generator requires by name.
// WGS84 is the geographic CRS tile bounding boxes are configured and
// persisted in; WebMercator is the CRS all internal grid math runs in.
const (
	SRSWGS84       = 4326
	SRSWebMercator = 3857
)

// Format distinguishes the two tile-matrix-set addressing schemes a
// table can use. They are mutually exclusive within one table
// (spec.md §3).
type Format string

const (
	FormatGoogle Format = "google"
	FormatFitted Format = "fitted"
)

const metadataSchema = `
CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
	srs_id                 INTEGER PRIMARY KEY,
	srs_name               TEXT NOT NULL,
	organization           TEXT NOT NULL,
	organization_coordsys_id INTEGER NOT NULL,
	definition             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS gpkg_contents (
	table_name  TEXT PRIMARY KEY,
	data_type   TEXT NOT NULL,
	identifier  TEXT,
	min_x       REAL NOT NULL,
	min_y       REAL NOT NULL,
	max_x       REAL NOT NULL,
	max_y       REAL NOT NULL,
	srs_id      INTEGER NOT NULL,
	last_change TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS gpkg_tile_matrix_set (
	table_name TEXT PRIMARY KEY,
	srs_id     INTEGER NOT NULL,
	format     TEXT NOT NULL,
	min_x      REAL NOT NULL,
	min_y      REAL NOT NULL,
	max_x      REAL NOT NULL,
	max_y      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS gpkg_tile_matrix (
	table_name    TEXT NOT NULL,
	zoom_level    INTEGER NOT NULL,
	matrix_width  INTEGER NOT NULL,
	matrix_height INTEGER NOT NULL,
	tile_width    INTEGER NOT NULL,
	tile_height   INTEGER NOT NULL,
	pixel_x_size  REAL NOT NULL,
	pixel_y_size  REAL NOT NULL,
	PRIMARY KEY (table_name, zoom_level)
);
`

// tileTableSchemaFmt is the per-table tile store: one physical SQLite
// table per generated tile set, named after the caller's table name.
const tileTableSchemaFmt = `
CREATE TABLE IF NOT EXISTS %q (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	zoom_level  INTEGER NOT NULL,
	tile_column INTEGER NOT NULL,
	tile_row    INTEGER NOT NULL,
	tile_data   BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS %s ON %q (zoom_level, tile_column, tile_row);
`

func tileIndexName(table string) string {
	return "idx_" + table + "_zxy"
}
