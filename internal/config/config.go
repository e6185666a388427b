package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PHOTOWALL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// PHOTOWALL_IMAGES_DIR -> images_dir, etc.
	if err := k.Load(env.Provider("PHOTOWALL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PHOTOWALL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Lists set through the environment arrive as one comma-separated value.
	cfg.Include = expandList(cfg.Include)
	cfg.Exclude = expandList(cfg.Exclude)
	cfg.Strategies = expandList(cfg.Strategies)

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStrategies = map[string]bool{
	"manifest":  true,
	"directory": true,
	"probe":     true,
}

var validThemes = map[string]bool{
	"light": true,
	"dark":  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ImagesDir == "" {
		return fmt.Errorf("images_dir is required")
	}
	if c.ManifestFile == "" {
		return fmt.Errorf("manifest_file is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path %q must start with /", c.BasePath)
	}

	if len(c.Strategies) == 0 {
		return fmt.Errorf("at least one strategy is required")
	}
	seen := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if !validStrategies[s] {
			return fmt.Errorf("invalid strategy %q: must be one of manifest, directory, probe", s)
		}
		if seen[s] {
			return fmt.Errorf("strategy %q listed twice", s)
		}
		seen[s] = true
	}

	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.ProbeLimit < 0 {
		return fmt.Errorf("probe_limit must be non-negative")
	}
	if c.DefaultTheme != "" && !validThemes[c.DefaultTheme] {
		return fmt.Errorf("invalid default_theme %q: must be light or dark", c.DefaultTheme)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	return nil
}

// Timeout parses FetchTimeout. An empty value means the resolver default.
func (c *Config) Timeout() (time.Duration, error) {
	if c.FetchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch_timeout %q: %w", c.FetchTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fetch_timeout must be positive")
	}
	return d, nil
}

// CleanBasePath returns BasePath without a trailing slash, or "/" at the root.
func (c *Config) CleanBasePath() string {
	return path.Clean("/" + c.BasePath)
}

// expandList splits comma-separated entries and trims each item.
func expandList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		out = append(out, splitAndTrim(item)...)
	}
	return out
}
