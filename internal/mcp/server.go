package mcp

import (
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/photowall/internal/config"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes gallery tools.
type Server struct {
	cfg     *config.Config
	client  *http.Client
	timeout time.Duration
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server for the gallery described by cfg.
func NewServer(cfg *config.Config) *Server {
	// An invalid timeout falls back to the resolver default.
	timeout, _ := cfg.Timeout()
	s := &Server{
		cfg:     cfg,
		client:  &http.Client{},
		timeout: timeout,
	}

	s.mcp = server.NewMCPServer(
		"photowall",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listImagesTool, s.handleListImages)
	s.mcp.AddTool(getImageInfoTool, s.handleGetImageInfo)
	s.mcp.AddTool(resolveCatalogTool, s.handleResolveCatalog)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
