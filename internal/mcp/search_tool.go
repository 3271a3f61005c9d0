package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scoutdata/parcelscout/internal/search"
)

// AddPropertySearchTool registers the property_search tool with an MCP server.
// This function is composable - it can be combined with other tool registrations.
func AddPropertySearchTool(s *server.MCPServer, searches *search.Service) {
	tool := mcp.NewTool(
		"property_search",
		mcp.WithDescription("Search properties using structured filters extracted from a natural language request. Each filter is a (key, operator, value) triple; keys come from the property_filters tool. Supports spatial constraints (bbox, zip, radius, polygon), sorting, and result insights."),
		mcp.WithArray("filters",
			mcp.Description("Filter triples, e.g. [{\"key\": \"year-built\", \"operator\": \"gte\", \"value\": 1990}]. Operators depend on the filter's type: enum (eq, in, not_eq, not_in), numeric_range (eq, gt, gte, lt, lte, between), date_range (numeric_range operators plus within_days, within_months), boolean (eq), text_search (eq, contains, starts_with).")),
		mcp.WithObject("spatial",
			mcp.Description("Spatial constraint. One of: {\"type\": \"bbox\", \"bounds\": [west, south, east, north]}, {\"type\": \"zip\", \"code\": \"78701\"}, {\"type\": \"radius\", \"center\": {\"lat\": ..., \"lon\": ...}, \"meters\": 1600}, {\"type\": \"polygon\", \"geometry\": <GeoJSON geometry>}.")),
		mcp.WithObject("sort",
			mcp.Description("Sort directive: {\"field\": <base column or filter key>, \"order\": \"asc\"|\"desc\"}. Defaults to descending.")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (1-200, default: 50).")),
		mcp.WithArray("insights",
			mcp.Description("Filter keys to compute insight counts over the result set, e.g. [\"tax-delinquent\", \"absentee-owner\"]. Only boolean and date filters produce insights.")),
	)

	s.AddTool(tool, createPropertySearchHandler(searches))
}

// createPropertySearchHandler creates the handler function for property_search.
func createPropertySearchHandler(searches *search.Service) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		// Round-trip through JSON so nested filter and spatial objects decode
		// into the typed request.
		raw, err := json.Marshal(argsMap)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		var req search.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		resp, err := searches.Search(ctx, req)
		if err != nil {
			// Malformed input goes back to the model as a tool error it can
			// correct; infrastructure failures propagate.
			if search.IsClientError(err) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("search failed: %w", err)
		}

		jsonData, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
