package viewer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ziadkadry99/photowall/internal/gallery"
)

func openLoaded(t *testing.T, path string, w, h float64) *Viewer {
	t.Helper()
	v := New()
	tok := v.Open(gallery.NewEntry(path))
	if err := v.Loaded(tok, w, h); err != nil {
		t.Fatalf("Loaded: %v", err)
	}
	return v
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLifecycle(t *testing.T) {
	v := New()
	if v.State() != Closed {
		t.Fatalf("initial state = %v, want closed", v.State())
	}

	tok := v.Open(gallery.NewEntry("/images/a.jpg"))
	snap := v.Snapshot()
	if snap.State != "loading" {
		t.Errorf("state = %q, want loading", snap.State)
	}
	if snap.SizeLabel != LoadingLabel || snap.Dimensions != UnknownDimensions {
		t.Errorf("readouts = %q / %q, want placeholders", snap.SizeLabel, snap.Dimensions)
	}
	if snap.ScrollLocked {
		t.Error("scroll should not be locked while loading")
	}

	if err := v.Loaded(tok, 1920, 1080); err != nil {
		t.Fatalf("Loaded: %v", err)
	}
	snap = v.Snapshot()
	if snap.State != "open" || !snap.ScrollLocked {
		t.Errorf("state = %q locked = %v, want open true", snap.State, snap.ScrollLocked)
	}
	if snap.Dimensions != "1920 × 1080" {
		t.Errorf("dimensions = %q, want %q", snap.Dimensions, "1920 × 1080")
	}
	if snap.ZoomLabel != "100%" {
		t.Errorf("zoom = %q, want 100%%", snap.ZoomLabel)
	}
	if snap.DownloadName != "a.jpg" {
		t.Errorf("download name = %q, want a.jpg", snap.DownloadName)
	}

	v.Close()
	snap = v.Snapshot()
	if snap.State != "closed" || snap.ScrollLocked || snap.Entry != nil {
		t.Errorf("after close: %+v", snap)
	}
}

func TestLoadFailedAndDismiss(t *testing.T) {
	v := New()
	tok := v.Open(gallery.NewEntry("/images/broken.png"))
	if err := v.LoadFailed(tok, nil); err != nil {
		t.Fatalf("LoadFailed: %v", err)
	}
	snap := v.Snapshot()
	if snap.State != "failed" {
		t.Fatalf("state = %q, want failed", snap.State)
	}
	if want := "/images/broken.png"; !strings.Contains(snap.Error, want) {
		t.Errorf("error %q should name %q", snap.Error, want)
	}

	v.ZoomIn()
	if v.Transform().Scale != 1 {
		t.Error("zoom should be ignored while failed")
	}

	if !v.Dismiss() {
		t.Fatal("Dismiss returned false from failed state")
	}
	if v.State() != Closed {
		t.Errorf("state = %v, want closed", v.State())
	}
	if v.Dismiss() {
		t.Error("Dismiss should be a no-op when closed")
	}
}

func TestStaleTokens(t *testing.T) {
	v := New()
	first := v.Open(gallery.NewEntry("/images/a.jpg"))
	second := v.Open(gallery.NewEntry("/images/b.jpg"))

	if err := v.Loaded(first, 10, 10); !errors.Is(err, ErrStaleToken) {
		t.Errorf("Loaded(first) = %v, want ErrStaleToken", err)
	}
	if err := v.SetMetadata(first, Metadata{Bytes: 99, Known: true}); !errors.Is(err, ErrStaleToken) {
		t.Errorf("SetMetadata(first) = %v, want ErrStaleToken", err)
	}
	if err := v.LoadFailed(first, nil); !errors.Is(err, ErrStaleToken) {
		t.Errorf("LoadFailed(first) = %v, want ErrStaleToken", err)
	}
	if v.State() != Loading {
		t.Fatalf("state = %v, want loading", v.State())
	}

	if err := v.Loaded(second, 20, 10); err != nil {
		t.Fatalf("Loaded(second): %v", err)
	}
	if got := v.Snapshot().Entry.Path; got != "/images/b.jpg" {
		t.Errorf("entry = %q, want /images/b.jpg", got)
	}

	v.Close()
	if err := v.SetMetadata(second, Metadata{}); !errors.Is(err, ErrStaleToken) {
		t.Errorf("SetMetadata after close = %v, want ErrStaleToken", err)
	}
}

func TestMetadataOrderIndependent(t *testing.T) {
	md := Metadata{Bytes: 1536, Known: true}

	a := New()
	tok := a.Open(gallery.NewEntry("/images/a.jpg"))
	if err := a.SetMetadata(tok, md); err != nil {
		t.Fatal(err)
	}
	if err := a.Loaded(tok, 800, 600); err != nil {
		t.Fatal(err)
	}

	b := New()
	tok = b.Open(gallery.NewEntry("/images/a.jpg"))
	if err := b.Loaded(tok, 800, 600); err != nil {
		t.Fatal(err)
	}
	if got := b.Snapshot().SizeLabel; got != LoadingLabel {
		t.Errorf("size before metadata = %q, want %q", got, LoadingLabel)
	}
	if err := b.SetMetadata(tok, md); err != nil {
		t.Fatal(err)
	}

	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.SizeLabel != sb.SizeLabel || sa.Dimensions != sb.Dimensions {
		t.Errorf("readouts differ: %q/%q vs %q/%q", sa.SizeLabel, sa.Dimensions, sb.SizeLabel, sb.Dimensions)
	}
	if sa.SizeLabel != "1.5 KB" || sa.Dimensions != "800 × 600" {
		t.Errorf("readouts = %q / %q, want 1.5 KB / 800 × 600", sa.SizeLabel, sa.Dimensions)
	}

	c := New()
	tok = c.Open(gallery.NewEntry("/images/a.jpg"))
	c.SetMetadata(tok, Metadata{})
	if got := c.Snapshot().SizeLabel; got != "unknown size" {
		t.Errorf("size = %q, want unknown size", got)
	}
}

func TestZoomClamp(t *testing.T) {
	v := openLoaded(t, "/images/a.jpg", 100, 100)
	for i := 0; i < 30; i++ {
		v.ZoomIn()
	}
	if got := v.Transform().Scale; got != MaxScale {
		t.Errorf("scale after zoom in = %v, want %v", got, MaxScale)
	}
	if got := v.Snapshot().ZoomLabel; got != "400%" {
		t.Errorf("zoom label = %q, want 400%%", got)
	}

	for i := 0; i < 30; i++ {
		v.ZoomOut()
		if s := v.Transform().Scale; s < MinScale || s > MaxScale {
			t.Fatalf("scale %v out of bounds", s)
		}
	}
	if got := v.Transform().Scale; got != MinScale {
		t.Errorf("scale after zoom out = %v, want %v", got, MinScale)
	}
	if got := v.Snapshot().ZoomLabel; got != "30%" {
		t.Errorf("zoom label = %q, want 30%%", got)
	}

	for i := 0; i < 50; i++ {
		if i%3 == 0 {
			v.ZoomOut()
		} else {
			v.ZoomIn()
		}
		if s := v.Transform().Scale; s < MinScale || s > MaxScale {
			t.Fatalf("scale %v out of bounds after mixed sequence", s)
		}
	}
}

func TestWheelScale(t *testing.T) {
	container := Size{Width: 800, Height: 600}
	tests := []struct {
		name    string
		current float64
		deltaY  float64
		natural Size
		want    float64
	}{
		{"wide image capped by width", 1, -100, Size{4000, 1000}, 0.2},
		{"tall image capped by height", 1, -200, Size{600, 1200}, 0.5},
		{"matching ratio unclamped", 1, -100, Size{400, 300}, 2},
		{"zoom out not capped", 1, 50, Size{4000, 1000}, 0.5},
		{"global max", 3.5, -500, Size{400, 300}, MaxScale},
		{"global min", 0.5, 500, Size{4000, 1000}, MinScale},
		{"unknown natural size", 1, -100, Size{}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WheelScale(tt.current, tt.deltaY, tt.natural, container)
			if !approx(got, tt.want) {
				t.Errorf("WheelScale = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWheelScenarioC(t *testing.T) {
	v := openLoaded(t, "images/tall.png", 600, 1200)
	v.Wheel(-200, Size{Width: 800, Height: 600})
	if got := v.Transform().Scale; !approx(got, 0.5) {
		t.Errorf("scale = %v, want 0.5", got)
	}
	if got := v.Snapshot().ZoomLabel; got != "50%" {
		t.Errorf("zoom label = %q, want 50%%", got)
	}
}

func TestPan(t *testing.T) {
	v := openLoaded(t, "/images/a.jpg", 100, 100)

	if v.PointerDown(2, Point{10, 10}) {
		t.Error("secondary button should not start a drag")
	}
	v.PointerMove(Point{50, 50})
	if tr := v.Transform(); tr.TranslateX != 0 || tr.TranslateY != 0 {
		t.Errorf("moved without drag: %+v", tr)
	}

	if !v.PointerDown(0, Point{10, 20}) {
		t.Fatal("primary button should start a drag")
	}
	v.PointerMove(Point{110, 70})
	v.PointerUp()
	if tr := v.Transform(); tr.TranslateX != 100 || tr.TranslateY != 50 {
		t.Errorf("translate = (%v, %v), want (100, 50)", tr.TranslateX, tr.TranslateY)
	}

	// A second drag continues from the current offset.
	v.PointerDown(0, Point{0, 0})
	v.PointerMove(Point{-5000, 3})
	v.PointerUp()
	if tr := v.Transform(); tr.TranslateX != -4900 || tr.TranslateY != 53 {
		t.Errorf("translate = (%v, %v), want (-4900, 53)", tr.TranslateX, tr.TranslateY)
	}

	v.PointerMove(Point{1, 1})
	if tr := v.Transform(); tr.TranslateX != -4900 {
		t.Error("move after pointer up should not pan")
	}
}

func TestTouchPan(t *testing.T) {
	v := openLoaded(t, "/images/a.jpg", 100, 100)

	if v.TouchStart([]Point{{0, 0}, {10, 10}}) {
		t.Error("two-finger touch should not start a drag")
	}

	v.TouchStart([]Point{{5, 5}})
	v.TouchMove([]Point{{25, 15}})
	if tr := v.Transform(); tr.TranslateX != 20 || tr.TranslateY != 10 {
		t.Errorf("translate = (%v, %v), want (20, 10)", tr.TranslateX, tr.TranslateY)
	}

	v.TouchMove([]Point{{0, 0}, {1, 1}})
	v.TouchMove([]Point{{100, 100}})
	if tr := v.Transform(); tr.TranslateX != 20 {
		t.Error("second finger should cancel the drag")
	}
	v.TouchEnd()
}

func TestReset(t *testing.T) {
	v := openLoaded(t, "/images/a.jpg", 4000, 1000)
	v.ZoomIn()
	v.Wheel(-37, Size{Width: 800, Height: 600})
	v.PointerDown(0, Point{1, 1})
	v.PointerMove(Point{123.4, -56.7})
	v.ZoomOut()

	v.Reset()
	if got := v.Transform(); got != Identity() {
		t.Errorf("transform after reset = %+v, want identity", got)
	}
	if got := v.Snapshot().CSS; got != "scale(1) translate(0px, 0px)" {
		t.Errorf("css = %q", got)
	}
}

func TestOpenResetsTransform(t *testing.T) {
	v := openLoaded(t, "/images/a.jpg", 100, 100)
	v.ZoomIn()
	v.PointerDown(0, Point{0, 0})
	v.PointerMove(Point{30, 30})

	tok := v.Open(gallery.NewEntry("/images/b.jpg"))
	if got := v.Transform(); got != Identity() {
		t.Errorf("transform after open = %+v, want identity", got)
	}
	if v.Snapshot().Dragging {
		t.Error("drag should end on open")
	}
	if tok != v.Token() {
		t.Errorf("token = %d, want %d", tok, v.Token())
	}
}

func TestTransformCSS(t *testing.T) {
	tr := Transform{Scale: 1.25, TranslateX: -12.5, TranslateY: 40}
	if got, want := tr.CSS(), "scale(1.25) translate(-12.5px, 40px)"; got != want {
		t.Errorf("CSS = %q, want %q", got, want)
	}
	if got := tr.ZoomLabel(); got != "125%" {
		t.Errorf("ZoomLabel = %q, want 125%%", got)
	}
}
