package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

// Strategy names.
const (
	StrategyManifest  = "manifest"
	StrategyDirectory = "directory"
	StrategyProbe     = "probe"
)

// DefaultTimeout bounds every discovery request.
const DefaultTimeout = 8 * time.Second

// maxListingBytes caps manifest and listing bodies.
const maxListingBytes = 8 << 20

// Request describes where to discover images.
type Request struct {
	// Origin is scheme://host[:port] of the site being resolved.
	Origin string
	// BasePath is the directory containing the gallery page ("/" at the root).
	BasePath string
	// CacheBust, when set, is appended as the t query parameter of listing URLs.
	CacheBust string
	// OnEntry, when set, receives entries as soon as an incremental strategy
	// confirms them.
	OnEntry func(gallery.ImageEntry)
}

// URL resolves a page-relative path against the request's origin and base.
func (r Request) URL(rel string) string {
	return strings.TrimRight(r.Origin, "/") + gallery.NormalizePath(rel, r.BasePath)
}

// listingURL is URL(rel) with the cache-busting parameter applied.
func (r Request) listingURL(rel string) string {
	u := r.URL(rel)
	if r.CacheBust == "" {
		return u
	}
	return u + "?t=" + url.QueryEscape(r.CacheBust)
}

// Strategy is one way of finding the gallery's images.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request) (gallery.Catalog, error)
}

// Fetcher issues time-bounded HTTP requests on behalf of strategies.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewFetcher returns a Fetcher with the default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{}, Timeout: DefaultTimeout}
}

func (f *Fetcher) client() *http.Client {
	if f == nil || f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

func (f *Fetcher) timeout() time.Duration {
	if f == nil || f.Timeout <= 0 {
		return DefaultTimeout
	}
	return f.Timeout
}

// get fetches u and returns the status code and body. The timeout covers the
// whole exchange including reading the body.
func (f *Fetcher) get(ctx context.Context, u, accept string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// load fetches u the way an image element would and reports whether it is a
// loadable image.
func (f *Fetcher) load(ctx context.Context, u string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	// Hosts that answer unknown paths with an HTML page and a 200 end the
	// sequence. Any other type may still render in an image element.
	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.HasPrefix(ct, "text/html") {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	return nil
}

// checkStatus classifies a non-success listing response.
func checkStatus(strategy, u string, status int) error {
	switch {
	case status == http.StatusNotFound:
		return &DiscoveryError{Kind: KindNotFound, Strategy: strategy, URL: u, Status: status}
	case status < 200 || status > 299:
		return &DiscoveryError{Kind: KindFetchFailed, Strategy: strategy, URL: u, Status: status}
	}
	return nil
}
