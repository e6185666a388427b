package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/manifest"
	"github.com/ziadkadry99/photowall/internal/progress"
	"github.com/ziadkadry99/photowall/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <page-url>",
	Short: "Discover a published gallery's images the way the page does",
	Long: `Runs the discovery chain (manifest, directory index, numbered probing)
against a published gallery page and prints the catalog, or the classified
failure with its remediation checklist.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringSlice("strategies", nil, "strategy chain to try (defaults to the configured chain)")
	resolveCmd.Flags().Bool("json", false, "print the catalog as JSON")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	u, err := url.Parse(args[0])
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) page URL", args[0])
	}

	names, _ := cmd.Flags().GetStringSlice("strategies")
	if len(names) == 0 {
		names = cfg.Strategies
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}

	r, err := resolver.NewFromNames(names, resolver.Options{
		Timeout:        timeout,
		ManifestFile:   cfg.ManifestFile,
		ImagesDir:      manifest.FromConfig(cfg).EntryPrefix(),
		ProbeLimit:     cfg.ProbeLimit,
		ProbeExtension: cfg.ProbeExtension,
	})
	if err != nil {
		return err
	}

	// Sequential probing reports each confirmed image as it lands.
	reporter := progress.NewReporter()
	found := 0
	req := resolver.Request{
		Origin:   u.Scheme + "://" + u.Host,
		BasePath: gallery.BasePath(u.Path),
		OnEntry: func(e gallery.ImageEntry) {
			if found == 0 {
				reporter.Start(-1, "Probing images")
			}
			found++
			reporter.Update(found, e.Path)
		},
	}

	res, err := r.Resolve(cmd.Context(), req)
	if found > 0 {
		reporter.Finish()
	}
	if err != nil {
		printDiscoveryError(err)
		return fmt.Errorf("discovery failed")
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Catalog)
	}

	fmt.Printf("Found %d image(s) via %s:\n", len(res.Catalog), res.Strategy)
	for _, e := range res.Catalog {
		fmt.Printf("  %s  %s\n", e.Path, e.Title)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "skipped: %v\n", e)
	}
	return nil
}

// printDiscoveryError writes the user-facing explanation of a failed run.
func printDiscoveryError(err error) {
	de, ok := resolver.AsDiscoveryError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s (%s)\n", de.Message(), de.Kind)
	for _, step := range de.Remediation() {
		fmt.Fprintf(os.Stderr, "  - %s\n", step)
	}
	var chain *resolver.ChainError
	if errors.As(err, &chain) && len(chain.Errors) > 1 {
		fmt.Fprintln(os.Stderr, "\nAttempts:")
		for _, e := range chain.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
	}
}
