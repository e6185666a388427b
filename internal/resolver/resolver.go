// Package resolver discovers the gallery catalog through an ordered chain of
// strategies: the build-time manifest, a directory-index endpoint and
// sequential filename probing.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

// Result is the outcome of one discovery run.
type Result struct {
	Catalog    gallery.Catalog
	Strategy   string
	Generation uint64
	// Errors holds the failures of strategies tried before the winning one.
	Errors []error
}

// Resolver runs strategies in priority order and stops at the first success.
type Resolver struct {
	Strategies []Strategy

	generation atomic.Uint64
}

// New returns a resolver over the given strategies, tried in order.
func New(strategies ...Strategy) *Resolver {
	return &Resolver{Strategies: strategies}
}

// Options configures NewFromNames.
type Options struct {
	Client         *http.Client
	Timeout        time.Duration
	ManifestFile   string
	ImagesDir      string
	ProbeLimit     int
	ProbeExtension string
}

// NewFromNames builds a resolver from strategy names ("manifest",
// "directory", "probe") sharing one fetcher.
func NewFromNames(names []string, opts Options) (*Resolver, error) {
	fetcher := &Fetcher{Client: opts.Client, Timeout: opts.Timeout}
	if fetcher.Client == nil {
		fetcher.Client = &http.Client{}
	}

	strategies := make([]Strategy, 0, len(names))
	for _, name := range names {
		switch name {
		case StrategyManifest:
			strategies = append(strategies, &ManifestStrategy{Fetcher: fetcher, File: opts.ManifestFile})
		case StrategyDirectory:
			strategies = append(strategies, &DirectoryIndexStrategy{Fetcher: fetcher, Dir: opts.ImagesDir})
		case StrategyProbe:
			strategies = append(strategies, &SequentialProbeStrategy{
				Fetcher:   fetcher,
				Dir:       opts.ImagesDir,
				Extension: opts.ProbeExtension,
				Limit:     opts.ProbeLimit,
			})
		default:
			return nil, fmt.Errorf("unknown discovery strategy %q", name)
		}
	}
	if len(strategies) == 0 {
		return nil, errors.New("at least one discovery strategy is required")
	}
	return New(strategies...), nil
}

// Resolve tries each strategy in order. When every strategy fails the
// returned error is a *ChainError holding each failure. If another Resolve
// call started while this one was running, the result is discarded and
// ErrStale is returned.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	gen := r.generation.Add(1)
	result := &Result{Generation: gen}

	for _, s := range r.Strategies {
		catalog, err := s.Attempt(ctx, req)
		if r.generation.Load() != gen {
			return nil, ErrStale
		}
		if err != nil {
			slog.Warn("Discovery strategy failed", "strategy", s.Name(), "err", err)
			result.Errors = append(result.Errors, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		result.Catalog = catalog
		result.Strategy = s.Name()
		slog.Info("Catalog resolved", "strategy", s.Name(), "images", len(catalog), "generation", gen)
		return result, nil
	}

	if len(result.Errors) == 0 {
		return nil, errors.New("no discovery strategies configured")
	}
	return result, &ChainError{Errors: result.Errors}
}

// Retry re-runs discovery with a fresh cache-busting token.
func (r *Resolver) Retry(ctx context.Context, req Request) (*Result, error) {
	req.CacheBust = NewCacheBust()
	return r.Resolve(ctx, req)
}

// Generation returns the number of discovery runs started so far.
func (r *Resolver) Generation() uint64 {
	return r.generation.Load()
}

// NewCacheBust returns a unique value for the t query parameter.
func NewCacheBust() string {
	return uuid.NewString()
}
