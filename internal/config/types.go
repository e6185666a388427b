package config

// Config is the top-level photowall configuration, corresponding to .photowall.yml.
type Config struct {
	Title           string   `yaml:"title" koanf:"title"`
	DescriptionFile string   `yaml:"description_file" koanf:"description_file"`
	ImagesDir       string   `yaml:"images_dir" koanf:"images_dir"`
	ManifestFile    string   `yaml:"manifest_file" koanf:"manifest_file"`
	OutputDir       string   `yaml:"output_dir" koanf:"output_dir"`
	BasePath        string   `yaml:"base_path" koanf:"base_path"`
	Include         []string `yaml:"include" koanf:"include"`
	Exclude         []string `yaml:"exclude" koanf:"exclude"`
	Strategies      []string `yaml:"strategies" koanf:"strategies"`
	FetchTimeout    string   `yaml:"fetch_timeout" koanf:"fetch_timeout"`
	ProbeLimit      int      `yaml:"probe_limit" koanf:"probe_limit"`
	ProbeExtension  string   `yaml:"probe_extension" koanf:"probe_extension"`
	DefaultTheme    string   `yaml:"default_theme" koanf:"default_theme"`
	DataDir         string   `yaml:"data_dir" koanf:"data_dir"`
	Port            int      `yaml:"port" koanf:"port"`
}

// FileName is the conventional config file name.
const FileName = ".photowall.yml"

// DefaultExcludes are glob patterns, relative to the images directory,
// skipped when building the manifest.
var DefaultExcludes = []string{
	".*",
	"**/.*",
	"**/Thumbs.db",
}

// DefaultStrategies is the full discovery chain in priority order.
var DefaultStrategies = []string{"manifest", "directory", "probe"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Title:          "Photo Gallery",
		ImagesDir:      "images",
		ManifestFile:   "images.json",
		OutputDir:      "site",
		BasePath:       "/",
		Include:        []string{"*"},
		Exclude:        append([]string(nil), DefaultExcludes...),
		Strategies:     append([]string(nil), DefaultStrategies...),
		FetchTimeout:   "8s",
		ProbeLimit:     500,
		ProbeExtension: "jpg",
		DefaultTheme:   "light",
		DataDir:        ".photowall",
		Port:           8080,
	}
}
