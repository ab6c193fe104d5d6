// Package imageprobe decodes opaque tile byte blobs just far enough to
// learn their pixel dimensions, and optionally re-encodes them in a
// different compressed format. It never resamples across projections;
// the raw bytes a TileSource returns are either stored verbatim or
// transcoded, never reprojected (spec.md Non-goals).
package imageprobe

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Register additional decoders so Probe and Transcode can read
	// formats beyond the two the standard library wires in by default.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUndecodable is returned by Probe when the bytes cannot be decoded
// by any registered format.
var ErrUndecodable = errors.New("imageprobe: undecodable image data")

// ErrInvalidArgument marks a caller error (e.g. a quality outside
// [0.0, 1.0]), distinct from a codec failure.
var ErrInvalidArgument = errors.New("imageprobe: invalid argument")

// ErrUnsupportedFormat marks an unrecognized target format name passed
// to Transcode.
var ErrUnsupportedFormat = errors.New("imageprobe: unsupported format")

// Dimensions is the decoded pixel width/height of a tile image.
type Dimensions struct {
	Width  int
	Height int
}

// Probe decodes just the image header to learn width/height. It
// returns ErrUndecodable (wrapped) if no registered codec recognizes
// the bytes.
func Probe(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
