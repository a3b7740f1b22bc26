package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/Acid-base/researcher/internal/research"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the research index as tools.
type Server struct {
	research *research.Service
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *research.Service) *Server {
	s := &Server{research: svc}

	s.mcp = server.NewMCPServer(
		"researcher",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(retrieveTool, s.handleRetrieve)
	s.mcp.AddTool(processURLsTool, s.handleProcessURLs)
	s.mcp.AddTool(indexInfoTool, s.handleIndexInfo)
	s.mcp.AddTool(generateReportTool, s.handleGenerateReport)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
