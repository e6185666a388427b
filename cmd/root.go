package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/photowall/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "photowall",
	Short: "Static photo gallery with a pan and zoom lightbox",
	Long: `photowall turns a directory of images into a gallery page. The page
finds its images through a build-time manifest, a directory index or
numbered probing, and opens each one in a lightbox with zoom, pan,
size readouts and download.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env file if present (ignore errors)
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.FileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
