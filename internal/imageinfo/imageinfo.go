// Package imageinfo reads auxiliary facts about an image: its byte size via a
// metadata-only request and its natural pixel dimensions.
package imageinfo

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// UnknownSize is the size readout when the length cannot be determined.
const UnknownSize = "unknown size"

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with base-1024 units and one decimal place,
// dropping a trailing ".0".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + sizeUnits[i]
}

// Client issues HEAD requests for image metadata.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
}

// NewClient returns a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{}, Timeout: timeout}
}

// Head returns the content length reported for u. known is false when the
// response is not OK or carries no usable Content-Length.
func (c *Client) Head(ctx context.Context, u string) (size int64, known bool, err error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, false, fmt.Errorf("building HEAD request: %w", err)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("HEAD %s: %w", u, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, nil
	}
	raw := resp.Header.Get("Content-Length")
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// SizeLabel formats the result of Head for display.
func SizeLabel(size int64, known bool) string {
	if !known {
		return UnknownSize
	}
	return FormatSize(size)
}

// Dimensions decodes only the image header of r and returns its pixel size
// and format name.
func Dimensions(r io.Reader) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, "", fmt.Errorf("decoding image header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}
