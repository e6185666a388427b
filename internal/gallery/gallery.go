// Package gallery holds the catalog model shared by discovery, rendering and
// the lightbox viewer.
package gallery

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ImageEntry is one displayable image. Entries are immutable once placed in a
// Catalog.
type ImageEntry struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Catalog is an ordered sequence of entries in discovery order. Duplicate
// paths are tolerated.
type Catalog []ImageEntry

// Extensions lists the recognized image extensions, lowercase and without
// the leading dot.
var Extensions = []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "svg", "tiff", "tif", "heic", "avif"}

var (
	imageExtRe = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|bmp|svg|tiff?|heic|avif)$`)
	slashesRe  = regexp.MustCompile(`/+`)
)

// IsImagePath reports whether p ends in a recognized image extension.
func IsImagePath(p string) bool {
	return imageExtRe.MatchString(p)
}

// BasePath returns the directory containing the page at pagePath, without a
// trailing slash. The site root yields "/".
func BasePath(pagePath string) string {
	parts := strings.Split(pagePath, "/")
	parts = parts[:len(parts)-1]
	base := strings.Join(parts, "/")
	if base == "" {
		return "/"
	}
	return base
}

// NormalizePath trims raw, roots it under base when it is relative and
// collapses repeated slashes.
func NormalizePath(raw, base string) string {
	p := strings.TrimSpace(raw)
	if !strings.HasPrefix(p, "/") {
		p = base + "/" + p
	}
	return slashesRe.ReplaceAllString(p, "/")
}

// lastSegment returns the final path segment, URL-decoded when possible.
func lastSegment(p string) string {
	name := p
	if i := strings.LastIndex(p, "/"); i >= 0 {
		name = p[i+1:]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// TitleFromPath derives a display title: the decoded file name with its last
// extension removed.
func TitleFromPath(p string) string {
	name := lastSegment(p)
	ext := path.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// DownloadName is the file name offered by the download control.
func DownloadName(p string) string {
	return lastSegment(p)
}

// NewEntry builds an entry for an already normalized path.
func NewEntry(p string) ImageEntry {
	return ImageEntry{Path: p, Title: TitleFromPath(p)}
}

// BuildCatalog normalizes raw paths against base, drops anything that is not
// a recognized image and derives titles. Order is preserved.
func BuildCatalog(raw []string, base string) Catalog {
	catalog := make(Catalog, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		p := NormalizePath(r, base)
		if !IsImagePath(p) {
			continue
		}
		catalog = append(catalog, NewEntry(p))
	}
	return catalog
}

// Paths returns the entry paths in catalog order.
func (c Catalog) Paths() []string {
	paths := make([]string, len(c))
	for i, e := range c {
		paths[i] = e.Path
	}
	return paths
}
