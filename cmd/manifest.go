package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/photowall/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Write the image manifest (images.json)",
	Long: `Scans the images directory and writes the manifest next to it: a JSON
array of image paths in directory order. With --watch the manifest is
rewritten whenever the directory changes.`,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().Bool("watch", false, "regenerate the manifest when the images directory changes")
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := manifest.FromConfig(cfg)

	res, err := manifest.Generate(opts)
	if err != nil {
		return fmt.Errorf("generating manifest: %w", err)
	}
	if res.CreatedDir {
		fmt.Printf("Created empty images directory %s\n", opts.ImagesDir)
	}
	fmt.Printf("Manifest written: %s (%d images)\n", res.Output, len(res.Paths))

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", opts.ImagesDir)
	err = manifest.Watch(cmd.Context(), opts, func(res *manifest.Result, err error) {
		if err != nil {
			fmt.Printf("Manifest update failed: %v\n", err)
			return
		}
		fmt.Printf("Manifest updated: %s (%d images)\n", res.Output, len(res.Paths))
	})
	if err != nil {
		return fmt.Errorf("watching: %w", err)
	}
	return nil
}
