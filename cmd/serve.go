package cmd

import (
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gallery locally with a live lightbox",
	Long: `Starts a local preview server for the configured images directory. The
page discovers images from the manifest or the server's directory index,
and the lightbox runs over a websocket session. The theme choice is saved
in the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		port := cfg.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		open, _ := cmd.Flags().GetBool("open")
		return serveGallery(cmd.Context(), cfg, port, open)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (defaults to the configured port)")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	rootCmd.AddCommand(serveCmd)
}
