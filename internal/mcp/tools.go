package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listImagesTool defines the list_images MCP tool.
var listImagesTool = mcp.NewTool("list_images",
	mcp.WithDescription("List the gallery's images in display order, with the title shown for each."),
	mcp.WithString("source",
		mcp.Description("Where to read the list from (default: the manifest when present, otherwise the images directory)"),
		mcp.Enum("manifest", "directory"),
	),
)

// getImageInfoTool defines the get_image_info MCP tool.
var getImageInfoTool = mcp.NewTool("get_image_info",
	mcp.WithDescription("Get the title, download name, file size and pixel dimensions of one gallery image."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Image path as listed by list_images, e.g. images/sunset.jpg"),
	),
)

// resolveCatalogTool defines the resolve_catalog MCP tool.
var resolveCatalogTool = mcp.NewTool("resolve_catalog",
	mcp.WithDescription("Discover a published gallery's images the way the page does: manifest, then directory index, then numbered probing. Reports the winning strategy or the classified failure."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("URL of the gallery page, e.g. https://example.com/gallery/index.html"),
	),
	mcp.WithString("strategies",
		mcp.Description("Comma-separated strategy chain to try (default from config)"),
	),
)
