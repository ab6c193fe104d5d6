package imageprobe

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/gift"
)

// Resize decodes data and scales it to the given pixel size, re-encoding
// as PNG. It is used when a TileSource returns tiles at a size other
// than the table's established tile_width/tile_height and the caller
// has asked for normalization rather than rejection; it is pixel
// resampling within a single image, not reprojection, so it does not
// fall under the Non-goal that excludes cross-projection resampling.
func Resize(data []byte, width, height int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	g := gift.New(gift.Resize(width, height, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imageprobe: png encode: %w", err)
	}
	return buf.Bytes(), nil
}
