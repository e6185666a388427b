package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/photowall/internal/manifest"
	"github.com/ziadkadry99/photowall/internal/progress"
	"github.com/ziadkadry99/photowall/internal/site"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Generate the static gallery website",
	Long: `Generates a self-contained static gallery: index.html, style.css,
script.js, the manifest and a copy of every image. The output can be
published on any static host.`,
	RunE: runSite,
}

func init() {
	siteCmd.Flags().Bool("serve", false, "start a local HTTP server after generating")
	siteCmd.Flags().Int("port", 8080, "port for the local dev server")
	siteCmd.Flags().Bool("open", false, "open browser automatically when serving")
	siteCmd.Flags().String("output", "", "override output directory (defaults to output_dir)")
	rootCmd.AddCommand(siteCmd)
}

func runSite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if outputDir, _ := cmd.Flags().GetString("output"); outputDir != "" {
		cfg.OutputDir = outputDir
	}

	generator, err := site.NewSiteGenerator(cfg)
	if err != nil {
		return fmt.Errorf("creating site generator: %w", err)
	}
	generator.Reporter = progress.NewReporter()

	res, err := generator.Generate()
	if err != nil {
		return fmt.Errorf("generating site: %w", err)
	}

	fmt.Printf("Static site generated: %s (%d images, %d copied, %d unchanged)\n",
		res.OutputDir, res.Images, res.Copied, res.Skipped)
	if res.Images == 0 {
		fmt.Printf("No images found in %s; the page will show the empty gallery message.\n", cfg.ImagesDir)
	}

	serve, _ := cmd.Flags().GetBool("serve")
	if !serve {
		return nil
	}

	// Preview the generated output rather than the source directory.
	port, _ := cmd.Flags().GetInt("port")
	open, _ := cmd.Flags().GetBool("open")
	preview := *cfg
	preview.ImagesDir = filepath.Join(res.OutputDir, manifest.FromConfig(cfg).EntryPrefix())
	return serveGallery(cmd.Context(), &preview, port, open)
}
