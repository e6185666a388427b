package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/manifest"
	"github.com/ziadkadry99/photowall/internal/preferences"
	"github.com/ziadkadry99/photowall/internal/resolver"
	"github.com/ziadkadry99/photowall/internal/site"
	"github.com/ziadkadry99/photowall/internal/walker"
)

// imagesPrefix is the page-relative directory the images are served under.
func (s *Server) imagesPrefix() string {
	return manifest.FromConfig(s.gallery).EntryPrefix()
}

// origin is the scheme and host discovery requests are sent to.
func (s *Server) origin(r *http.Request) string {
	if s.cfg.Origin != "" {
		return s.cfg.Origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// resolve runs the configured discovery chain against this server.
func (s *Server) resolve(ctx context.Context, req resolver.Request) (*resolver.Result, error) {
	res, err := resolver.NewFromNames(s.gallery.Strategies, resolver.Options{
		Timeout:        s.timeout,
		ManifestFile:   s.gallery.ManifestFile,
		ImagesDir:      s.imagesPrefix(),
		ProbeLimit:     s.gallery.ProbeLimit,
		ProbeExtension: s.gallery.ProbeExtension,
	})
	if err != nil {
		return nil, err
	}
	return res.Resolve(ctx, req)
}

func (s *Server) discoveryRequest(r *http.Request) resolver.Request {
	return resolver.Request{
		Origin:    s.origin(r),
		BasePath:  s.gallery.CleanBasePath(),
		CacheBust: r.URL.Query().Get("t"),
	}
}

// theme returns the saved theme, falling back to the configured default.
func (s *Server) theme(ctx context.Context) preferences.Theme {
	fallback := preferences.Theme(s.gallery.DefaultTheme)
	if fallback == "" {
		fallback = preferences.ThemeLight
	}
	if s.prefs == nil {
		return fallback
	}
	t, err := s.prefs.Theme(ctx)
	if err != nil {
		slog.Warn("Reading theme preference failed", "error", err)
		return fallback
	}
	return t
}

// handlePage renders the gallery from a fresh discovery run. A t query
// parameter is forwarded as the cache-busting token.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	base := s.gallery.CleanBasePath()
	req := s.discoveryRequest(r)

	desc, err := s.renderer.DescriptionFile(s.gallery.DescriptionFile)
	if err != nil {
		slog.Warn("Rendering description failed", "error", err)
	}

	page := site.Page{
		Title:       s.gallery.Title,
		Description: desc,
		BasePath:    base,
		Theme:       string(s.theme(r.Context())),
		LiveURL:     gallery.NormalizePath("ws/viewer", base),
		CacheBust:   resolver.NewCacheBust(),
		Year:        time.Now().Year(),
	}

	res, err := s.resolve(r.Context(), req)
	if err != nil {
		page.Error = site.NewErrorInfo(err, base, req.Origin+r.URL.RequestURI(), s.gallery.ManifestFile, page.CacheBust)
	} else {
		page.Catalog = res.Catalog
		page.Strategy = res.Strategy
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page); err != nil {
		slog.Error("Rendering page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func (s *Server) handleAsset(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(body))
	}
}

// handleManifest serves the manifest written by "photowall manifest". A
// gallery without one answers 404 so discovery falls through to the
// directory index.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	file := manifest.FromConfig(s.gallery).Output
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("Reading manifest failed", "file", file, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// handleImages serves the directory index for the images directory itself
// and image files below it.
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	rel, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, "bad path", http.StatusBadRequest)
		return
	}
	if rel == "" {
		s.handleDirectoryIndex(w, r)
		return
	}

	rel = path.Clean("/" + rel)[1:]
	if !gallery.IsImagePath(rel) {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(filepath.Join(s.gallery.ImagesDir, filepath.FromSlash(rel)))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType(walker.DetectFormat(rel)))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleDirectoryIndex lists the images directory in the JSON shape read by
// the directory-index discovery strategy.
func (s *Server) handleDirectoryIndex(w http.ResponseWriter, r *http.Request) {
	if info, err := os.Stat(s.gallery.ImagesDir); err != nil || !info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "images directory not found"})
		return
	}

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: s.gallery.ImagesDir,
		Include: s.gallery.Include,
		Exclude: s.gallery.Exclude,
	})
	if err != nil {
		slog.Error("Listing images failed", "dir", s.gallery.ImagesDir, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "listing images failed"})
		return
	}

	listing := resolver.DirectoryListing{Files: make([]resolver.DirectoryFile, 0, len(files))}
	for _, f := range files {
		listing.Files = append(listing.Files, resolver.DirectoryFile{Name: f.RelPath})
	}
	writeJSON(w, http.StatusOK, listing)
}

func contentType(format string) string {
	switch format {
	case "jpg":
		return "image/jpeg"
	case "svg":
		return "image/svg+xml"
	case "tif", "tiff":
		return "image/tiff"
	}
	return "image/" + format
}

type catalogResponse struct {
	Strategy string          `json:"strategy"`
	Count    int             `json:"count"`
	Images   gallery.Catalog `json:"images"`
}

type catalogError struct {
	Kind        string   `json:"kind"`
	Message     string   `json:"message"`
	Remediation []string `json:"remediation,omitempty"`
	Attempts    []string `json:"attempts,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleCatalog runs discovery and reports the catalog as JSON.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	req := s.discoveryRequest(r)
	res, err := s.resolve(r.Context(), req)
	if err != nil {
		info := site.NewErrorInfo(err, req.BasePath, req.Origin+r.URL.RequestURI(), s.gallery.ManifestFile, "")
		writeJSON(w, http.StatusBadGateway, catalogError{
			Kind:        info.Kind,
			Message:     info.Message,
			Remediation: info.Remediation,
			Attempts:    info.Attempts,
		})
		return
	}

	images := res.Catalog
	if images == nil {
		images = gallery.Catalog{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{
		Strategy: res.Strategy,
		Count:    len(images),
		Images:   images,
	})
}

type themeBody struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: string(s.theme(r.Context()))})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "preferences are not persisted"})
		return
	}

	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	t, err := preferences.ParseTheme(body.Theme)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.prefs.SetTheme(r.Context(), t); err != nil {
		slog.Error("Saving theme failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "saving theme failed"})
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(t)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
