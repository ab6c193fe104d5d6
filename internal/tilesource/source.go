// Package tilesource defines the TileSource collaborator RetileEngine
// consumes, and a handful of concrete implementations: a deterministic
// test stub, an HTTP downloader, a prefetching wrapper adapted from the
// teacher's parallel worker pool, and a renderer adapter wrapping the
// teacher's watercolor pipeline.
package tilesource

import "context"

// Source supplies raw tile bytes for a single global web-mercator tile
// coordinate. Coordinates are always global (z,x,y) regardless of the
// table's addressing format — RetileEngine maps them to stored
// (column,row) itself. Fetch returns (nil, false, nil) when no tile
// exists at that coordinate (not an error); a non-nil error is a
// transient tile error the engine logs and skips.
type Source interface {
	Fetch(ctx context.Context, z, x, y int) (data []byte, ok bool, err error)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, z, x, y int) ([]byte, bool, error)

func (f Func) Fetch(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	return f(ctx, z, x, y)
}
