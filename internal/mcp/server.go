// Package mcp exposes property search over the Model Context Protocol. The
// tools are the boundary between a language-model caller, which extracts
// structured filters from natural language, and the SQL compiler behind them.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/scoutdata/parcelscout/internal/property"
	"github.com/scoutdata/parcelscout/internal/registry"
	"github.com/scoutdata/parcelscout/internal/search"
)

// Server manages the MCP server lifecycle.
type Server struct {
	registry *registry.Store
	searches *search.Service
	props    *property.Service
	mcp      *server.MCPServer
}

// NewServer creates an MCP server exposing the property tools. The registry
// must already be loaded; tool calls against an unloaded registry fail.
func NewServer(store *registry.Store, searches *search.Service, props *property.Service) (*Server, error) {
	if store == nil || searches == nil || props == nil {
		return nil, fmt.Errorf("registry, search service, and property service are required")
	}

	mcpServer := server.NewMCPServer(
		"parcelscout-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddPropertySearchTool(mcpServer, searches)
	AddPropertyFiltersTool(mcpServer, store)
	AddPropertyDetailTool(mcpServer, props)
	AddMarketStatsTool(mcpServer, props)
	AddNearbyPropertiesTool(mcpServer, props)

	return &Server{
		registry: store,
		searches: searches,
		props:    props,
		mcp:      mcpServer,
	}, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	if s.props != nil {
		s.props.Close()
	}
	return nil
}
