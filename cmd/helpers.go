package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ziadkadry99/photowall/internal/config"
	"github.com/ziadkadry99/photowall/internal/db"
	"github.com/ziadkadry99/photowall/internal/preferences"
	"github.com/ziadkadry99/photowall/internal/server"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `photowall init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openPreferences opens the preference database in the configured data
// directory.
func openPreferences(cfg *config.Config) (*db.DB, *preferences.Store, error) {
	dbPath := filepath.Join(cfg.DataDir, db.FileName)
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	fallback, err := preferences.ParseTheme(cfg.DefaultTheme)
	if err != nil {
		fallback = preferences.ThemeLight
	}
	return database, preferences.NewStore(database, fallback), nil
}

// serveGallery runs the preview server for cfg until ctx is cancelled.
func serveGallery(ctx context.Context, cfg *config.Config, port int, open bool) error {
	database, prefs, err := openPreferences(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	srv, err := server.New(server.Config{Port: port}, cfg, prefs)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d%s", port, strings.TrimSuffix(cfg.CleanBasePath(), "/")+"/")
	fmt.Fprintf(os.Stderr, "photowall %s serving %s at %s\n", Version, cfg.ImagesDir, url)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop.")

	if open {
		go func() {
			time.Sleep(300 * time.Millisecond)
			openBrowser(url)
		}()
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	fmt.Fprintln(os.Stderr, "\nServer stopped.")
	return nil
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
