package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

// ManifestFile is the well-known manifest location relative to the page.
const ManifestFile = "images.json"

// ManifestStrategy reads the build-time manifest: a JSON array of paths.
type ManifestStrategy struct {
	Fetcher *Fetcher
	// File overrides ManifestFile.
	File string
}

func (s *ManifestStrategy) Name() string { return StrategyManifest }

func (s *ManifestStrategy) file() string {
	if s.File == "" {
		return ManifestFile
	}
	return s.File
}

// Attempt fetches and validates the manifest.
func (s *ManifestStrategy) Attempt(ctx context.Context, req Request) (gallery.Catalog, error) {
	u := req.listingURL(s.file())
	slog.Debug("Fetching manifest", "url", u)

	status, body, err := s.Fetcher.get(ctx, u, "application/json")
	if err != nil {
		return nil, classifyTransport(StrategyManifest, u, err)
	}
	slog.Debug("Manifest response", "url", u, "status", status, "bytes", len(body))
	if err := checkStatus(StrategyManifest, u, status); err != nil {
		return nil, err
	}

	raw, err := ParseManifest(body)
	if err != nil {
		return nil, &DiscoveryError{Kind: KindMalformed, Strategy: StrategyManifest, URL: u, Err: err}
	}

	catalog := gallery.BuildCatalog(raw, req.BasePath)
	if len(catalog) == 0 {
		return nil, &DiscoveryError{Kind: KindEmpty, Strategy: StrategyManifest, URL: u}
	}
	return catalog, nil
}

// ParseManifest decodes a manifest body. The root must be an array; elements
// that are not strings are skipped.
func ParseManifest(body []byte) ([]string, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, err
	}
	items, ok := root.([]any)
	if !ok {
		return nil, errors.New("manifest root is not an array")
	}
	paths := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			paths = append(paths, s)
		}
	}
	return paths, nil
}
