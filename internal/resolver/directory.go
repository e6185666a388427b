package resolver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

// ImagesDir is the page-relative directory holding the gallery images.
const ImagesDir = "images"

// DirectoryListing is the JSON body returned by a directory-index endpoint.
type DirectoryListing struct {
	Files []DirectoryFile `json:"files"`
}

// DirectoryFile is one entry of a DirectoryListing.
type DirectoryFile struct {
	Name string `json:"name"`
}

// DirectoryIndexStrategy queries a directory-listing endpoint for the images
// directory.
type DirectoryIndexStrategy struct {
	Fetcher *Fetcher
	// Dir overrides ImagesDir.
	Dir string
}

func (s *DirectoryIndexStrategy) Name() string { return StrategyDirectory }

func (s *DirectoryIndexStrategy) dir() string {
	if s.Dir == "" {
		return ImagesDir
	}
	return strings.Trim(s.Dir, "/")
}

// Attempt lists the images directory.
func (s *DirectoryIndexStrategy) Attempt(ctx context.Context, req Request) (gallery.Catalog, error) {
	u := req.listingURL(s.dir() + "/")

	status, body, err := s.Fetcher.get(ctx, u, "application/json")
	if err != nil {
		return nil, classifyTransport(StrategyDirectory, u, err)
	}
	if err := checkStatus(StrategyDirectory, u, status); err != nil {
		return nil, err
	}

	var listing DirectoryListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &DiscoveryError{Kind: KindMalformed, Strategy: StrategyDirectory, URL: u, Err: err}
	}

	raw := make([]string, 0, len(listing.Files))
	for _, f := range listing.Files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "/") {
			name = s.dir() + "/" + name
		}
		raw = append(raw, name)
	}

	catalog := gallery.BuildCatalog(raw, req.BasePath)
	if len(catalog) == 0 {
		return nil, &DiscoveryError{Kind: KindEmpty, Strategy: StrategyDirectory, URL: u}
	}
	return catalog, nil
}
