package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// AddPropertyFiltersTool registers the property_filters tool with an MCP
// server. It lets the model discover which filter keys exist before building
// a property_search call.
func AddPropertyFiltersTool(s *server.MCPServer, store *registry.Store) {
	tool := mcp.NewTool(
		"property_filters",
		mcp.WithDescription("List all available property search filters grouped by category. Each entry includes the filter key, display name, value type, accepted aliases, and allowed values where the filter is an enum. Call this before property_search to learn valid filter keys."),
	)

	s.AddTool(tool, createPropertyFiltersHandler(store))
}

func createPropertyFiltersHandler(store *registry.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalog, err := store.DescribeByCategory()
		if err != nil {
			if errors.Is(err, registry.ErrNotLoaded) {
				return mcp.NewToolResultError("filter registry is not loaded yet"), nil
			}
			return nil, fmt.Errorf("describing filters: %w", err)
		}
		return mcp.NewToolResultText(catalog), nil
	}
}
