package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/resolver"
)

// Page is everything the gallery template needs.
type Page struct {
	Title       string
	Description template.HTML
	// BasePath is the directory the page is served from ("/" at the root).
	BasePath string
	Theme    string
	Catalog  gallery.Catalog
	Strategy string
	Error    *ErrorInfo
	// LiveURL is the viewer websocket endpoint; empty for static output.
	LiveURL string
	// ManifestURL is fetched by the page script to refresh a static
	// gallery. Empty disables client-side discovery.
	ManifestURL string
	// CacheBust is the t parameter used by the refresh control.
	CacheBust string
	Year      int
}

// Count returns the number of catalog entries.
func (p Page) Count() int { return len(p.Catalog) }

// AssetURL resolves name against the page's base path.
func (p Page) AssetURL(name string) string {
	return gallery.NormalizePath(name, p.BasePath)
}

// RetryURL is the page URL with a cache-busting parameter.
func (p Page) RetryURL() string {
	return retryURL(p.BasePath, p.CacheBust)
}

func pageURL(base string) string {
	return strings.TrimSuffix(gallery.NormalizePath("", base), "/") + "/"
}

func retryURL(base, token string) string {
	u := pageURL(base)
	if token == "" {
		return u
	}
	return u + "?t=" + url.QueryEscape(token)
}

// ErrorInfo is the view of a discovery failure.
type ErrorInfo struct {
	Kind        string
	Message     string
	Remediation []string
	RetryURL    string
	ManifestURL string
	RequestURL  string
	BasePath    string
	// Attempts lists every failed strategy when a chain was tried.
	Attempts []string
}

// NewErrorInfo builds the error view for err. manifestFile is linked as the
// raw manifest.
func NewErrorInfo(err error, basePath, requestURL, manifestFile, cacheBust string) *ErrorInfo {
	info := &ErrorInfo{
		Kind:        string(resolver.KindFetchFailed),
		Message:     "Unable to load the image list.",
		RetryURL:    retryURL(basePath, cacheBust),
		ManifestURL: gallery.NormalizePath(manifestFile, basePath),
		RequestURL:  requestURL,
		BasePath:    basePath,
	}

	if de, ok := resolver.AsDiscoveryError(err); ok {
		info.Kind = string(de.Kind)
		info.Message = de.Message()
		info.Remediation = de.Remediation()
	} else if err != nil {
		info.Message = fmt.Sprintf("Unable to load the image list: %v", err)
	}

	var chain *resolver.ChainError
	if errors.As(err, &chain) {
		for _, e := range chain.Errors {
			info.Attempts = append(info.Attempts, e.Error())
		}
	}
	return info
}

// Renderer renders gallery pages.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// NewRenderer parses the page template and prepares the markdown converter
// used for gallery descriptions.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	return &Renderer{tmpl: tmpl, md: md}, nil
}

// Markdown converts a gallery description to HTML. Raw HTML in the source is
// omitted.
func (r *Renderer) Markdown(src []byte) (template.HTML, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// DescriptionFile renders the markdown file at name. An empty name yields no
// description.
func (r *Renderer) DescriptionFile(name string) (template.HTML, error) {
	if name == "" {
		return "", nil
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading description: %w", err)
	}
	return r.Markdown(src)
}

// Render writes the page.
func (r *Renderer) Render(w io.Writer, p Page) error {
	if err := r.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// Stylesheet returns the page CSS.
func Stylesheet() string { return cssContent }

// Script returns the page JavaScript.
func Script() string { return jsContent }
