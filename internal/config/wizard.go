package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// imagesDirCandidates are directory names checked, in order, when suggesting
// the images directory.
var imagesDirCandidates = []string{"images", "photos", "img", "pictures"}

// detectImagesDir returns the first candidate directory that exists in the
// current directory, or "images".
func detectImagesDir() string {
	for _, name := range imagesDirCandidates {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			return name
		}
	}
	return "images"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .photowall.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to photowall! Let's configure your gallery.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Title.
	titlePrompt := promptui.Prompt{
		Label:   "Gallery title",
		Default: cfg.Title,
	}
	title, err := titlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	cfg.Title = strings.TrimSpace(title)

	// 2. Images directory.
	imagesPrompt := promptui.Prompt{
		Label:   "Images directory",
		Default: detectImagesDir(),
	}
	imagesDir, err := imagesPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("images dir: %w", err)
	}
	cfg.ImagesDir = filepath.ToSlash(strings.TrimSpace(imagesDir))

	// 3. Discovery chain.
	strategyPrompt := promptui.Select{
		Label: "How should the page find images?",
		Items: []string{
			"manifest, then directory index, then numbered probing",
			"manifest only (show an error with a retry button if missing)",
		},
	}
	strategyIdx, _, err := strategyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("strategy selection: %w", err)
	}
	if strategyIdx == 1 {
		cfg.Strategies = []string{"manifest"}
	}

	// 4. Theme.
	themePrompt := promptui.Select{
		Label: "Default theme",
		Items: []string{"light", "dark"},
	}
	_, theme, err := themePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("theme selection: %w", err)
	}
	cfg.DefaultTheme = theme

	// 5. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the generated site",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = strings.TrimSpace(outputDir)

	// 6. Preview port.
	portPrompt := promptui.Prompt{
		Label:   "Preview server port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 7. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(cfg.Exclude, splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ImagesDir); os.IsNotExist(err) {
		fmt.Printf("\nNote: %s does not exist yet. photowall manifest will create it.\n", cfg.ImagesDir)
	}

	if err := cfg.Save(FileName); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", FileName)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty items.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
