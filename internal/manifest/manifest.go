// Package manifest generates images.json, the build-time list of gallery
// images read first by the resolver.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/photowall/internal/config"
	"github.com/ziadkadry99/photowall/internal/walker"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Options controls manifest generation.
type Options struct {
	// ImagesDir is the directory scanned on disk.
	ImagesDir string
	// Prefix is prepended to each entry; it defaults to ImagesDir in slash
	// form, or its base name when ImagesDir is absolute.
	Prefix string
	// Output is the manifest file written.
	Output  string
	Include []string
	Exclude []string
	// Debounce overrides DefaultDebounce for Watch.
	Debounce time.Duration
}

// FromConfig derives Options from the project configuration. The manifest is
// written next to the images directory, so entries are listed under the
// directory's base name.
func FromConfig(cfg *config.Config) Options {
	return Options{
		ImagesDir: cfg.ImagesDir,
		Prefix:    filepath.Base(filepath.Clean(cfg.ImagesDir)),
		Output:    filepath.Join(filepath.Dir(filepath.Clean(cfg.ImagesDir)), cfg.ManifestFile),
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
	}
}

// EntryPrefix is the page-relative directory the entries are listed under.
// Directories outside the project fall back to their base name.
func (o Options) EntryPrefix() string {
	if o.Prefix != "" {
		return o.Prefix
	}
	p := path.Clean(filepath.ToSlash(o.ImagesDir))
	if filepath.IsAbs(o.ImagesDir) || p == ".." || strings.HasPrefix(p, "../") {
		return filepath.Base(o.ImagesDir)
	}
	return p
}

// Result describes one generation run.
type Result struct {
	Paths []string
	// Sources holds the file on disk for each entry of Paths.
	Sources []string
	Output  string
	// CreatedDir is set when the images directory did not exist.
	CreatedDir bool
}

// Build lists the manifest entries without writing anything. A missing images
// directory is created empty.
func Build(opts Options) (*Result, error) {
	res := &Result{Output: opts.Output}

	if _, err := os.Stat(opts.ImagesDir); os.IsNotExist(err) {
		slog.Warn("Images directory does not exist; creating it empty", "dir", opts.ImagesDir)
		if err := os.MkdirAll(opts.ImagesDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating images directory: %w", err)
		}
		res.CreatedDir = true
	} else if err != nil {
		return nil, fmt.Errorf("accessing images directory: %w", err)
	}

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir: opts.ImagesDir,
		Include: opts.Include,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	res.Paths = make([]string, 0, len(files))
	res.Sources = make([]string, 0, len(files))
	for _, f := range files {
		res.Paths = append(res.Paths, path.Join(opts.EntryPrefix(), f.RelPath))
		res.Sources = append(res.Sources, f.Path)
	}
	return res, nil
}

// Generate builds the entry list and writes it to opts.Output.
func Generate(opts Options) (*Result, error) {
	res, err := Build(opts)
	if err != nil {
		return nil, err
	}
	if err := Write(opts.Output, res.Paths); err != nil {
		return nil, err
	}
	slog.Info("Manifest written", "file", opts.Output, "images", len(res.Paths))
	return res, nil
}

// Encode renders paths as the manifest body: a pretty-printed JSON array.
func Encode(paths []string) ([]byte, error) {
	if paths == nil {
		paths = []string{}
	}
	data, err := json.MarshalIndent(paths, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write encodes paths and writes them to file.
func Write(file string, paths []string) error {
	data, err := Encode(paths)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", file, err)
	}
	return nil
}

// Watch regenerates the manifest whenever the images directory changes,
// calling onChange after each run, until ctx is cancelled.
func Watch(ctx context.Context, opts Options, onChange func(*Result, error)) error {
	if _, err := Generate(opts); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, opts.ImagesDir); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	output, _ := filepath.Abs(opts.Output)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if abs, _ := filepath.Abs(event.Name); abs == output {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(fw, event.Name)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				fire = time.After(debounce)
			}

		case <-fire:
			fire = nil
			res, err := Generate(opts)
			if onChange != nil {
				onChange(res, err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watch error", "err", err)
		}
	}
}

// addTree watches dir and every subdirectory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
