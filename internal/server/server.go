// Package server is the local preview server. It serves the gallery page,
// the generated manifest, a directory-index endpoint for the images
// directory, the theme preference API and the live viewer websocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/photowall/internal/config"
	"github.com/ziadkadry99/photowall/internal/imageinfo"
	"github.com/ziadkadry99/photowall/internal/live"
	"github.com/ziadkadry99/photowall/internal/preferences"
	"github.com/ziadkadry99/photowall/internal/site"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	// Origin is scheme://host[:port] the page resolves its catalog against.
	// Defaults to the origin of each page request.
	Origin string
}

// Server serves one gallery.
type Server struct {
	cfg      Config
	gallery  *config.Config
	prefs    *preferences.Store
	renderer *site.Renderer
	live     *live.Handler
	timeout  time.Duration
	router   chi.Router

	httpServer *http.Server
}

// New creates a server for the gallery described by gcfg. prefs may be nil,
// in which case the theme API reports the configured default and rejects
// updates.
func New(cfg Config, gcfg *config.Config, prefs *preferences.Store) (*Server, error) {
	renderer, err := site.NewRenderer()
	if err != nil {
		return nil, err
	}
	timeout, err := gcfg.Timeout()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		gallery:  gcfg,
		prefs:    prefs,
		renderer: renderer,
		live:     live.NewHandler(imageinfo.NewClient(timeout)),
		timeout:  timeout,
	}
	if cfg.Origin != "" {
		s.live.Origin = func(*http.Request) string { return cfg.Origin }
	}
	s.router = s.buildRouter()
	return s, nil
}

// buildRouter creates and configures the chi router with all routes mounted
// under the gallery's base path.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "HEAD", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// The websocket outlives any request timeout.
	pages := chi.NewRouter()
	pages.Get("/ws/viewer", s.live.ServeHTTP)
	pages.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handlePage)
		r.Get("/index.html", s.handlePage)
		r.Get("/style.css", s.handleAsset("text/css; charset=utf-8", site.Stylesheet()))
		r.Get("/script.js", s.handleAsset("text/javascript; charset=utf-8", site.Script()))
		r.Get("/"+s.gallery.ManifestFile, s.handleManifest)
		r.Get("/"+s.imagesPrefix()+"/*", s.handleImages)
		r.Head("/"+s.imagesPrefix()+"/*", s.handleImages)
		r.Get("/api/catalog", s.handleCatalog)
		r.Get("/api/preferences/theme", s.handleGetTheme)
		r.Put("/api/preferences/theme", s.handlePutTheme)
	})

	r.Mount(s.gallery.CleanBasePath(), pages)
	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("photowall server listening", "addr", ln.Addr().String(), "base_path", s.gallery.CleanBasePath())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
