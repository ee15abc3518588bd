// ABOUTME: MCP server initialization and configuration
// ABOUTME: Sets up server with location tools and resources for AI agents

package mcp

import (
	"context"
	"fmt"

	"github.com/harper/geolocation/internal/repository"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Server wraps the MCP server with the location repository.
type Server struct {
	mcp    *mcp.Server
	repo   *repository.LocationRepository
	logger zerolog.Logger
}

// NewServer creates MCP server with all capabilities.
func NewServer(repo *repository.LocationRepository, logger zerolog.Logger) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("location repository is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "geolocation",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		repo:   repo,
		logger: logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Debug().Msg("serving mcp over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
