package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/photowall/internal/db"
)

func newTestStore(t *testing.T, fallback Theme) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d, fallback)
}

func TestThemeDefault(t *testing.T) {
	s := newTestStore(t, "")
	got, err := s.Theme(context.Background())
	if err != nil {
		t.Fatalf("Theme() error: %v", err)
	}
	if got != ThemeLight {
		t.Errorf("got %q, want %q", got, ThemeLight)
	}

	s = newTestStore(t, ThemeDark)
	if got, _ := s.Theme(context.Background()); got != ThemeDark {
		t.Errorf("got %q, want configured fallback %q", got, ThemeDark)
	}
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, ThemeLight)

	if err := s.SetTheme(ctx, ThemeDark); err != nil {
		t.Fatalf("SetTheme(dark) error: %v", err)
	}
	if got, _ := s.Theme(ctx); got != ThemeDark {
		t.Errorf("got %q, want dark", got)
	}

	if err := s.SetTheme(ctx, ThemeLight); err != nil {
		t.Fatalf("SetTheme(light) error: %v", err)
	}
	if got, _ := s.Theme(ctx); got != ThemeLight {
		t.Errorf("got %q, want light", got)
	}
}

func TestSetThemeRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, ThemeLight)

	err := s.SetTheme(ctx, "sepia")
	if !errors.Is(err, ErrInvalidTheme) {
		t.Fatalf("SetTheme(sepia) = %v, want ErrInvalidTheme", err)
	}
	if got, _ := s.Theme(ctx); got != ThemeLight {
		t.Errorf("invalid value was stored: got %q", got)
	}
}

func TestThemeIgnoresCorruptRow(t *testing.T) {
	ctx := context.Background()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.Exec(`INSERT INTO preferences (key, value) VALUES ('theme', 'purple')`); err != nil {
		t.Fatal(err)
	}
	s := NewStore(d, ThemeDark)
	if got, err := s.Theme(ctx); err != nil || got != ThemeDark {
		t.Errorf("Theme() = %q, %v; want dark, nil", got, err)
	}
}

func TestParseTheme(t *testing.T) {
	for _, v := range []string{"light", "dark"} {
		if _, err := ParseTheme(v); err != nil {
			t.Errorf("ParseTheme(%q) error: %v", v, err)
		}
	}
	for _, v := range []string{"", "Dark", "auto"} {
		if _, err := ParseTheme(v); err == nil {
			t.Errorf("ParseTheme(%q) should fail", v)
		}
	}
}
