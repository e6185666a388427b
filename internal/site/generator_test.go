package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/photowall/internal/config"
	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/resolver"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Title = "Test Wall"
	cfg.ImagesDir = filepath.Join(root, "images")
	cfg.OutputDir = filepath.Join(root, "out")
	return cfg
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("img:"+n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixedNow() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

func TestGenerate(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir, "a.jpg", "b.png", "notes.txt")

	g, err := NewSiteGenerator(cfg)
	if err != nil {
		t.Fatalf("NewSiteGenerator: %v", err)
	}
	g.Now = fixedNow

	res, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Images != 2 || res.Copied != 2 {
		t.Errorf("result = %+v, want 2 images copied", res)
	}

	for _, name := range []string{"index.html", "style.css", "script.js", "images.json", "images/a.jpg", "images/b.png"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "images.json"))
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		t.Fatalf("images.json: %v", err)
	}
	if strings.Join(paths, ",") != "images/a.jpg,images/b.png" {
		t.Errorf("manifest = %v", paths)
	}

	index, _ := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	page := string(index)
	for _, want := range []string{
		"Found 2 images.",
		`data-src="/images/a.jpg"`,
		`data-title="b"`,
		`loading="lazy"`,
		`decoding="async"`,
		`id="lightbox"`,
		`id="lightbox-image"`,
		`id="zoom-level"`,
		`id="image-size"`,
		`id="image-dimensions"`,
		`id="download"`,
		"&copy; 2026 Test Wall",
		`data-manifest="/images.json"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html missing %q", want)
		}
	}
	if strings.Contains(page, "data-live") {
		t.Error("static output should not enable the live viewer")
	}

	// A second run copies nothing.
	res, err = g.Generate()
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if res.Copied != 0 || res.Skipped != 2 {
		t.Errorf("second run = %+v, want 0 copied 2 skipped", res)
	}
}

func TestGenerateEmptyGallery(t *testing.T) {
	cfg := testConfig(t)

	g, err := NewSiteGenerator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	index, _ := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	page := string(index)
	if !strings.Contains(page, "No valid image paths were found.") {
		t.Error("empty gallery should render the empty-catalog message")
	}
	if !strings.Contains(page, `data-kind="empty"`) {
		t.Error("error kind missing")
	}
	if !strings.Contains(page, `href="/?t=`) {
		t.Error("retry link should carry a cache-busting parameter")
	}
	if !strings.Contains(page, `id="gallery"`) {
		t.Error("gallery container should hold the error")
	}
	if strings.Contains(page, `class="card"`) {
		t.Error("grid cards should be replaced by the error")
	}
}

func TestGenerateDescription(t *testing.T) {
	cfg := testConfig(t)
	writeImages(t, cfg.ImagesDir, "a.jpg")
	desc := filepath.Join(t.TempDir(), "about.md")
	os.WriteFile(desc, []byte("Shots from **Lisbon**.\n\n<script>alert(1)</script>\n"), 0o644)
	cfg.DescriptionFile = desc

	g, _ := NewSiteGenerator(cfg)
	if _, err := g.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	index, _ := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	page := string(index)
	if !strings.Contains(page, "<strong>Lisbon</strong>") {
		t.Error("description markdown not rendered")
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Error("raw HTML in description should be omitted")
	}
}

func TestRenderBasePath(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	err = r.Render(&buf, Page{
		Title:    "Sub",
		BasePath: "/repo",
		Theme:    "dark",
		Catalog:  gallery.BuildCatalog([]string{"images/x.webp"}, "/repo"),
		LiveURL:  "/repo/ws/viewer",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	page := buf.String()
	for _, want := range []string{
		`href="/repo/style.css"`,
		`src="/repo/script.js"`,
		`data-src="/repo/images/x.webp"`,
		`data-theme="dark"`,
		`data-live="/repo/ws/viewer"`,
		"Found 1 image.",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestNewErrorInfo(t *testing.T) {
	notFound := &resolver.DiscoveryError{Kind: resolver.KindNotFound, Strategy: resolver.StrategyManifest, Status: 404}
	chain := &resolver.ChainError{Errors: []error{
		notFound,
		&resolver.DiscoveryError{Kind: resolver.KindEmpty, Strategy: resolver.StrategyProbe},
	}}

	info := NewErrorInfo(chain, "/repo", "http://localhost/repo/", "images.json", "abc")
	if info.Kind != "not_found" {
		t.Errorf("Kind = %q, want not_found", info.Kind)
	}
	if info.Message != "The image manifest (images.json) was not found." {
		t.Errorf("Message = %q", info.Message)
	}
	if len(info.Remediation) == 0 {
		t.Error("expected remediation steps")
	}
	if info.RetryURL != "/repo/?t=abc" {
		t.Errorf("RetryURL = %q, want /repo/?t=abc", info.RetryURL)
	}
	if info.ManifestURL != "/repo/images.json" {
		t.Errorf("ManifestURL = %q", info.ManifestURL)
	}
	if len(info.Attempts) != 2 {
		t.Errorf("Attempts = %d, want 2", len(info.Attempts))
	}

	var buf bytes.Buffer
	r, _ := NewRenderer()
	if err := r.Render(&buf, Page{Title: "x", BasePath: "/repo", Error: info}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"was not found", "Open raw manifest", `href="/repo/images.json"`, "http://localhost/repo/"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("error page missing %q", want)
		}
	}
}

func TestScriptHasNoWindowGlobals(t *testing.T) {
	if strings.Contains(Script(), "window.") {
		t.Error("script should not attach functions to window")
	}
	if !strings.Contains(Script(), `localStorage.setItem("theme"`) {
		t.Error("theme should persist under the theme key")
	}
}

func TestScriptStaticDiscovery(t *testing.T) {
	script := Script()
	for _, want := range []string{
		`body.getAttribute("data-manifest")`,
		`"?t=" + encodeURIComponent(cacheBust)`,
		`closest("#refresh, #retry")`,
		fmt.Sprintf("FETCH_TIMEOUT = %d", resolver.DefaultTimeout.Milliseconds()),
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestScriptDiscoveryMessagesMatchResolver(t *testing.T) {
	script := Script()
	for _, kind := range []resolver.Kind{
		resolver.KindNotFound,
		resolver.KindMalformed,
		resolver.KindEmpty,
		resolver.KindTimeout,
		resolver.KindFetchFailed,
	} {
		t.Run(string(kind), func(t *testing.T) {
			de := &resolver.DiscoveryError{Kind: kind, Strategy: resolver.StrategyManifest}
			if !strings.Contains(script, fmt.Sprintf("%s: %q", kind, de.Message())) {
				t.Errorf("script message for %s should be %q", kind, de.Message())
			}
			for _, step := range de.Remediation() {
				if !strings.Contains(script, fmt.Sprintf("%q", step)) {
					t.Errorf("script missing remediation %q", step)
				}
			}
		})
	}
}

func TestScriptRequiresGalleryContainer(t *testing.T) {
	script := Script()
	lookup := strings.Index(script, `getElementById("gallery")`)
	fatal := strings.Index(script, `console.error("photowall: gallery container #gallery not found")`)
	bind := strings.Index(script, "bindGrid(grid, viewer.open)")
	if lookup < 0 || fatal < 0 || bind < 0 {
		t.Fatalf("script missing gallery initialization (lookup=%d fatal=%d bind=%d)", lookup, fatal, bind)
	}
	if !(lookup < fatal && fatal < bind) {
		t.Error("missing gallery container should stop initialization before binding")
	}
}
