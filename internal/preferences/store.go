// Package preferences persists the viewer's theme choice.
package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ziadkadry99/photowall/internal/db"
)

// Theme is a page color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// themeKey is the preference key; it matches the browser local-storage key.
const themeKey = "theme"

// ErrInvalidTheme is returned for values other than light and dark.
var ErrInvalidTheme = errors.New("theme must be light or dark")

// ParseTheme validates s.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidTheme, s)
}

// Store reads and writes preferences.
type Store struct {
	db       *db.DB
	fallback Theme
}

// NewStore creates a Store backed by the given database. fallback is returned
// by Theme until a value is saved; an invalid fallback means ThemeLight.
func NewStore(database *db.DB, fallback Theme) *Store {
	if _, err := ParseTheme(string(fallback)); err != nil {
		fallback = ThemeLight
	}
	return &Store{db: database, fallback: fallback}
}

// Theme returns the saved theme or the fallback.
func (s *Store) Theme(ctx context.Context) (Theme, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, themeKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return s.fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading theme: %w", err)
	}
	t, err := ParseTheme(v)
	if err != nil {
		// A corrupted row should not break the page.
		return s.fallback, nil
	}
	return t, nil
}

// SetTheme saves the theme.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		themeKey, string(t))
	if err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}
