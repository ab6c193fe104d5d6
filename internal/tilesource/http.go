package tilesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPSource fetches tiles from a standard {z}/{x}/{y} XYZ tile
// endpoint. A 404 is treated as absence, not an error.
type HTTPSource struct {
	// URLTemplate contains {z}, {x}, {y} placeholders, e.g.
	// "https://tiles.example.com/{z}/{x}/{y}.png".
	URLTemplate string
	Client      *http.Client
}

// NewHTTPSource builds an HTTPSource with a bounded-timeout client.
func NewHTTPSource(urlTemplate string) *HTTPSource {
	return &HTTPSource{
		URLTemplate: urlTemplate,
		Client:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *HTTPSource) Fetch(ctx context.Context, z, x, y int) ([]byte, bool, error) {
	url := h.URLTemplate
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(z))
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(x))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(y))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("tilesource: build request for %s: %w", url, err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("tilesource: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("tilesource: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("tilesource: read body %s: %w", url, err)
	}
	return data, true, nil
}
