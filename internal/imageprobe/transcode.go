package imageprobe

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// Transcode fully decodes data and re-encodes it in the named format at
// quality (only meaningful for lossy formats; ignored otherwise).
// quality must be in [0.0, 1.0] or ErrInvalidArgument is returned.
// format is a caller-supplied tag ("jpeg", "png"); anything else yields
// ErrUnsupportedFormat.
func Transcode(data []byte, format string, quality float64) ([]byte, error) {
	if quality < 0.0 || quality > 1.0 {
		return nil, fmt.Errorf("%w: quality %v outside [0.0, 1.0]", ErrInvalidArgument, quality)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	var buf bytes.Buffer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		// image/jpeg quality is an int in [1,100]; 0.0 maps to 1 rather
		// than 0, which the encoder rejects.
		q := int(quality*99) + 1
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("imageprobe: jpeg encode: %w", err)
		}
	case "png":
		enc := png.Encoder{CompressionLevel: pngCompressionForQuality(quality)}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("imageprobe: png encode: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}

// pngCompressionForQuality maps the caller's [0.0,1.0] quality knob onto
// PNG's discrete compression levels; PNG has no lossy quality setting,
// so this only trades encode time for size.
func pngCompressionForQuality(quality float64) png.CompressionLevel {
	switch {
	case quality <= 0.25:
		return png.BestSpeed
	case quality >= 0.75:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}
