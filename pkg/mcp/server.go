// Package mcp exposes a read-only Model Context Protocol surface over HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/milestone-gateway/pkg/mcp/tools"
	"github.com/ekaya-inc/milestone-gateway/pkg/services"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "milestone-gateway"

// Server holds the MCP server and its registered tools.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// Deps are the services the MCP tools read from.
type Deps struct {
	Version          string
	Model            string
	MilestoneService services.MilestoneService
}

// NewServer creates the MCP server with every tool registered.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		deps.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	logger = logger.Named("mcp")
	tools.RegisterHealthTool(mcpServer, deps.Version, deps.Model)
	tools.RegisterMilestoneTools(mcpServer, &tools.MilestoneToolDeps{
		MilestoneService: deps.MilestoneService,
		Logger:           logger,
	})
	tools.RegisterVerdictTool(mcpServer)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this server.
// Routing is left to the caller's mux.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
