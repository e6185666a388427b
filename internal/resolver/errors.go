package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies a discovery failure.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindMalformed          Kind = "malformed"
	KindEmpty              Kind = "empty"
	KindTimeout            Kind = "timeout"
	KindFetchFailed        Kind = "fetch_failed"
	KindResourceLoadFailed Kind = "resource_load_failed"
)

// ErrStale is returned when a newer discovery run started before this one
// finished. Its result must be discarded.
var ErrStale = errors.New("resolver: superseded by a newer discovery run")

// DiscoveryError is a classified failure of one strategy.
type DiscoveryError struct {
	Kind     Kind
	Strategy string
	URL      string
	Status   int
	Err      error
}

func (e *DiscoveryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Strategy, e.Kind)
	if e.URL != "" {
		fmt.Fprintf(&b, " (%s)", e.URL)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Message is the human-readable explanation shown in place of the grid.
func (e *DiscoveryError) Message() string {
	switch e.Kind {
	case KindNotFound:
		if e.Strategy == StrategyManifest {
			return "The image manifest (images.json) was not found."
		}
		return "The image listing was not found."
	case KindMalformed:
		if e.Err != nil {
			return fmt.Sprintf("The image list is malformed: %v", e.Err)
		}
		return "The image list is malformed; it must be a JSON array of paths."
	case KindEmpty:
		return "No valid image paths were found."
	case KindTimeout:
		return "Loading the image list timed out."
	case KindResourceLoadFailed:
		return fmt.Sprintf("The image %s could not be loaded.", e.URL)
	default:
		if e.Status != 0 {
			return fmt.Sprintf("Unable to load the image list (HTTP %d).", e.Status)
		}
		return "Unable to load the image list."
	}
}

// Remediation returns the checklist shown under the message.
func (e *DiscoveryError) Remediation() []string {
	switch e.Kind {
	case KindNotFound:
		return []string{
			"Check that the manifest build step ran (photowall manifest).",
			"Check that the site is published from the directory containing images.json.",
			"Check that images.json sits next to index.html.",
		}
	case KindMalformed:
		return []string{
			"Regenerate the manifest and make sure it is a JSON array of strings.",
		}
	case KindEmpty:
		return []string{
			"Check that the images directory contains supported formats.",
			"Check that the manifest step scanned the images directory.",
		}
	case KindTimeout:
		return []string{
			"Check your network connection and retry.",
		}
	default:
		return []string{
			"Retry in a moment; the host may be temporarily unavailable.",
		}
	}
}

// ChainError aggregates the failures of every strategy that was tried.
type ChainError struct {
	Errors []error
}

func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "all discovery strategies failed: " + strings.Join(msgs, "; ")
}

func (e *ChainError) Unwrap() []error { return e.Errors }

// KindOf returns the kind of the first DiscoveryError in err's tree.
func KindOf(err error) (Kind, bool) {
	var de *DiscoveryError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// AsDiscoveryError extracts the primary DiscoveryError from err.
func AsDiscoveryError(err error) (*DiscoveryError, bool) {
	var de *DiscoveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// isTimeout reports whether err stems from an exceeded deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// classifyTransport turns a request-level error into a DiscoveryError.
func classifyTransport(strategy, url string, err error) *DiscoveryError {
	kind := KindFetchFailed
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &DiscoveryError{Kind: kind, Strategy: strategy, URL: url, Err: err}
}
