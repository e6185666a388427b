package site

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/photowall/internal/config"
	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/manifest"
	"github.com/ziadkadry99/photowall/internal/progress"
	"github.com/ziadkadry99/photowall/internal/resolver"
)

// SiteGenerator writes a self-contained static gallery: index.html,
// style.css, script.js, the manifest and a copy of every image.
type SiteGenerator struct {
	Config   *config.Config
	Renderer *Renderer
	// Reporter, when set, receives image copy progress.
	Reporter progress.Reporter
	// Now is used for the footer year.
	Now func() time.Time
}

// NewSiteGenerator creates a SiteGenerator for cfg.
func NewSiteGenerator(cfg *config.Config) (*SiteGenerator, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &SiteGenerator{Config: cfg, Renderer: r, Now: time.Now}, nil
}

// Result summarizes a generation run.
type Result struct {
	OutputDir string
	Images    int
	Copied    int
	Skipped   int
}

// Generate builds the static site. A gallery with no images still produces
// a page, showing the empty-catalog error.
func (g *SiteGenerator) Generate() (*Result, error) {
	cfg := g.Config
	out := cfg.OutputDir
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	opts := manifest.FromConfig(cfg)
	opts.Output = filepath.Join(out, cfg.ManifestFile)

	listing, err := manifest.Build(opts)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	res := &Result{OutputDir: out, Images: len(listing.Paths)}
	if err := g.copyImages(listing, res); err != nil {
		return nil, err
	}

	if err := manifest.Write(opts.Output, listing.Paths); err != nil {
		return nil, err
	}

	page, err := g.page(listing.Paths)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := g.Renderer.Render(&buf, page); err != nil {
		return nil, err
	}

	files := map[string][]byte{
		"index.html": buf.Bytes(),
		"style.css":  []byte(cssContent),
		"script.js":  []byte(jsContent),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(out, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	slog.Info("Site generated", "dir", out, "images", res.Images, "copied", res.Copied)
	return res, nil
}

// page builds the view for the generated index.html.
func (g *SiteGenerator) page(paths []string) (Page, error) {
	cfg := g.Config
	base := cfg.CleanBasePath()

	desc, err := g.description()
	if err != nil {
		return Page{}, err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	p := Page{
		Title:       cfg.Title,
		Description: desc,
		BasePath:    base,
		Theme:       cfg.DefaultTheme,
		Catalog:     gallery.BuildCatalog(paths, base),
		Strategy:    resolver.StrategyManifest,
		ManifestURL: gallery.NormalizePath(cfg.ManifestFile, base),
		CacheBust:   resolver.NewCacheBust(),
		Year:        now().Year(),
	}
	if p.Theme == "" {
		p.Theme = "light"
	}
	if len(p.Catalog) == 0 {
		empty := &resolver.DiscoveryError{Kind: resolver.KindEmpty, Strategy: resolver.StrategyManifest}
		p.Error = NewErrorInfo(empty, base, pageURL(base), cfg.ManifestFile, p.CacheBust)
	}
	return p, nil
}

func (g *SiteGenerator) description() (template.HTML, error) {
	return g.Renderer.DescriptionFile(g.Config.DescriptionFile)
}

// copyImages copies every listed image into the output directory, skipping
// files that are already up to date.
func (g *SiteGenerator) copyImages(listing *manifest.Result, res *Result) error {
	if len(listing.Paths) == 0 {
		return nil
	}
	if g.Reporter != nil {
		g.Reporter.Start(len(listing.Paths), "Copying images")
		defer g.Reporter.Finish()
	}

	for i, p := range listing.Paths {
		dst := filepath.Join(g.Config.OutputDir, filepath.FromSlash(p))

		copied, err := copyIfChanged(listing.Sources[i], dst)
		if err != nil {
			return fmt.Errorf("copying %s: %w", p, err)
		}
		if copied {
			res.Copied++
		} else {
			res.Skipped++
		}
		if g.Reporter != nil {
			g.Reporter.Update(i+1, p)
		}
	}
	return nil
}

// copyIfChanged copies src to dst unless dst has the same size and is not
// older than src. It reports whether a copy happened.
func copyIfChanged(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	if sameFile(src, dst) {
		return false, nil
	}
	if dstInfo, err := os.Stat(dst); err == nil {
		if dstInfo.Size() == srcInfo.Size() && !dstInfo.ModTime().Before(srcInfo.ModTime()) {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	outFile, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(outFile, in); err != nil {
		outFile.Close()
		return false, err
	}
	return true, outFile.Close()
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
