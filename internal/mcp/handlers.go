package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/photowall/internal/gallery"
	"github.com/ziadkadry99/photowall/internal/imageinfo"
	"github.com/ziadkadry99/photowall/internal/manifest"
	"github.com/ziadkadry99/photowall/internal/resolver"
)

// handleListImages lists the local gallery from the manifest or the images
// directory.
func (s *Server) handleListImages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := request.GetString("source", "")
	opts := manifest.FromConfig(s.cfg)

	if source == "" {
		source = "directory"
		if _, err := os.Stat(opts.Output); err == nil {
			source = "manifest"
		}
	}

	var raw []string
	switch source {
	case "manifest":
		data, err := os.ReadFile(opts.Output)
		if err != nil {
			if os.IsNotExist(err) {
				return mcp.NewToolResultError(fmt.Sprintf(
					"No manifest found at %s. Run `photowall manifest` to generate it.", opts.Output,
				)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to read manifest: %v", err)), nil
		}
		raw, err = resolver.ParseManifest(data)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("manifest %s is malformed: %v", opts.Output, err)), nil
		}
	case "directory":
		if _, err := os.Stat(s.cfg.ImagesDir); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("images directory %s is not accessible: %v", s.cfg.ImagesDir, err)), nil
		}
		res, err := manifest.Build(opts)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing images failed: %v", err)), nil
		}
		raw = res.Paths
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown source %q", source)), nil
	}

	catalog := gallery.BuildCatalog(raw, s.cfg.CleanBasePath())
	if len(catalog) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No images found (source: %s).", source)), nil
	}
	return mcp.NewToolResultText(formatCatalog(
		fmt.Sprintf("Found %d image(s) (source: %s):", len(catalog), source), catalog,
	)), nil
}

// handleGetImageInfo reports the readout the lightbox shows for one image.
func (s *Server) handleGetImageInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}
	if !gallery.IsImagePath(p) {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not a supported image path", p)), nil
	}

	file := s.localFile(p)
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf("No image found for %q (looked for %s).", p, file)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to stat image: %v", err)), nil
	}

	dims, format := "unknown", strings.TrimPrefix(filepath.Ext(file), ".")
	if f, err := os.Open(file); err == nil {
		if w, h, fmtName, err := imageinfo.Dimensions(f); err == nil {
			dims = fmt.Sprintf("%d × %d", w, h)
			format = fmtName
		}
		f.Close()
	}

	entryPath := gallery.NormalizePath(p, s.cfg.CleanBasePath())
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", gallery.TitleFromPath(entryPath))
	fmt.Fprintf(&sb, "Path: %s\n", entryPath)
	fmt.Fprintf(&sb, "Download name: %s\n", gallery.DownloadName(entryPath))
	fmt.Fprintf(&sb, "Size: %s\n", imageinfo.SizeLabel(info.Size(), true))
	fmt.Fprintf(&sb, "Dimensions: %s\n", dims)
	fmt.Fprintf(&sb, "Format: %s\n", format)
	return mcp.NewToolResultText(sb.String()), nil
}

// localFile maps a page path such as /gallery/images/a.jpg to the file in
// the images directory.
func (s *Server) localFile(p string) string {
	rel := strings.TrimPrefix(path.Clean("/"+p), "/")
	if base := strings.Trim(s.cfg.CleanBasePath(), "/"); base != "" {
		rel = strings.TrimPrefix(rel, base+"/")
	}
	rel = strings.TrimPrefix(rel, manifest.FromConfig(s.cfg).EntryPrefix()+"/")
	return filepath.Join(s.cfg.ImagesDir, filepath.FromSlash(rel))
}

// handleResolveCatalog runs the discovery chain against a published page.
func (s *Server) handleResolveCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not an http(s) page URL", raw)), nil
	}

	names := s.cfg.Strategies
	if list := request.GetString("strategies", ""); list != "" {
		names = nil
		for _, part := range strings.Split(list, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}

	r, err := resolver.NewFromNames(names, resolver.Options{
		Client:         s.client,
		Timeout:        s.timeout,
		ManifestFile:   s.cfg.ManifestFile,
		ImagesDir:      manifest.FromConfig(s.cfg).EntryPrefix(),
		ProbeLimit:     s.cfg.ProbeLimit,
		ProbeExtension: s.cfg.ProbeExtension,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := resolver.Request{
		Origin:   u.Scheme + "://" + u.Host,
		BasePath: gallery.BasePath(u.Path),
	}
	res, err := r.Resolve(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(formatDiscoveryError(err)), nil
	}

	var sb strings.Builder
	sb.WriteString(formatCatalog(
		fmt.Sprintf("Resolved %d image(s) via the %s strategy:", len(res.Catalog), res.Strategy), res.Catalog,
	))
	if len(res.Errors) > 0 {
		sb.WriteString("\nEarlier strategies failed:\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&sb, "- %v\n", e)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatCatalog(header string, catalog gallery.Catalog) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	for i, e := range catalog {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, e.Path, e.Title)
	}
	return sb.String()
}

// formatDiscoveryError renders a discovery failure with its remediation
// checklist for agent consumption.
func formatDiscoveryError(err error) string {
	de, ok := resolver.AsDiscoveryError(err)
	if !ok {
		return fmt.Sprintf("Discovery failed: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Discovery failed (%s): %s\n", de.Kind, de.Message())
	if steps := de.Remediation(); len(steps) > 0 {
		sb.WriteString("\nChecklist:\n")
		for _, step := range steps {
			fmt.Fprintf(&sb, "- %s\n", step)
		}
	}

	var chain *resolver.ChainError
	if errors.As(err, &chain) {
		sb.WriteString("\nAttempts:\n")
		for _, e := range chain.Errors {
			fmt.Fprintf(&sb, "- %v\n", e)
		}
	}
	return sb.String()
}
