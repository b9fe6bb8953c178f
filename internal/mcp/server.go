// ABOUTME: MCP server setup for the fitlog store.
// ABOUTME: Every tool call runs against the entitlement snapshot taken when it starts.
package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/router"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with router access.
type Server struct {
	mcpServer *mcp.Server
	router    *router.Router
	resolver  *entitlement.Resolver
	logger    *log.Logger
}

// NewServer creates a new MCP server over the router.
func NewServer(r *router.Router, resolver *entitlement.Resolver, logger *log.Logger) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fitlog",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		router:    r,
		resolver:  resolver,
		logger:    logging.OrDiscard(logger),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) snapshot() entitlement.Context {
	return s.resolver.Context()
}
