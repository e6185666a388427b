package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

// DefaultProbeLimit bounds the number of sequential probes.
const DefaultProbeLimit = 500

// SequentialProbeStrategy guesses images/1.jpg, images/2.jpg, ... one at a
// time and stops at the first image that fails to load.
type SequentialProbeStrategy struct {
	Fetcher *Fetcher
	// Dir overrides ImagesDir.
	Dir string
	// Extension overrides "jpg".
	Extension string
	// Limit overrides DefaultProbeLimit.
	Limit int
}

func (s *SequentialProbeStrategy) Name() string { return StrategyProbe }

func (s *SequentialProbeStrategy) limit() int {
	if s.Limit <= 0 {
		return DefaultProbeLimit
	}
	return s.Limit
}

func (s *SequentialProbeStrategy) candidate(i int) string {
	dir := ImagesDir
	if s.Dir != "" {
		dir = strings.Trim(s.Dir, "/")
	}
	ext := "jpg"
	if s.Extension != "" {
		ext = strings.TrimPrefix(s.Extension, ".")
	}
	return fmt.Sprintf("%s/%d.%s", dir, i, ext)
}

// Attempt probes candidates in numeric order. Every confirmed entry is passed
// to req.OnEntry before the next index is tried.
func (s *SequentialProbeStrategy) Attempt(ctx context.Context, req Request) (gallery.Catalog, error) {
	var (
		catalog gallery.Catalog
		stopErr error
		stopURL string
	)

	for i := 1; i <= s.limit(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, classifyTransport(StrategyProbe, "", err)
		}

		u := req.URL(s.candidate(i))
		if err := s.Fetcher.load(ctx, u); err != nil {
			stopErr, stopURL = err, u
			slog.Debug("Probe stopped", "index", i, "url", u, "err", err)
			break
		}

		entry := gallery.NewEntry(gallery.NormalizePath(s.candidate(i), req.BasePath))
		catalog = append(catalog, entry)
		if req.OnEntry != nil {
			req.OnEntry(entry)
		}
	}

	if len(catalog) == 0 {
		if stopErr != nil && isTimeout(stopErr) {
			return nil, &DiscoveryError{Kind: KindTimeout, Strategy: StrategyProbe, URL: stopURL, Err: stopErr}
		}
		return nil, &DiscoveryError{Kind: KindEmpty, Strategy: StrategyProbe, URL: stopURL, Err: stopErr}
	}
	return catalog, nil
}
