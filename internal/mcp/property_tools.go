package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/scoutdata/parcelscout/internal/property"
)

// AddPropertyDetailTool registers the property_detail tool with an MCP server.
func AddPropertyDetailTool(s *server.MCPServer, props *property.Service) {
	tool := mcp.NewTool(
		"property_detail",
		mcp.WithDescription("Fetch the complete record for one parcel: the property row plus ownership, tax assessments, sales history, loans, valuations, climate risk, building permits, and foreclosure records."),
		mcp.WithNumber("parcel_id",
			mcp.Required(),
			mcp.Description("Parcel identifier, as returned by property_search.")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := argsMap["parcel_id"].(float64)
		if !ok {
			return mcp.NewToolResultError("parcel_id parameter is required"), nil
		}

		detail, err := props.Detail(ctx, int64(id))
		if err != nil {
			var notFound *property.NotFoundError
			if errors.As(err, &notFound) {
				return mcp.NewToolResultError(notFound.Error()), nil
			}
			return nil, fmt.Errorf("fetching detail: %w", err)
		}
		return marshalResult(detail)
	})
}

// AddMarketStatsTool registers the market_stats tool with an MCP server.
func AddMarketStatsTool(s *server.MCPServer, props *property.Service) {
	tool := mcp.NewTool(
		"market_stats",
		mcp.WithDescription("Aggregate market statistics (parcel count, average year built, building size, assessed value, sale prices, recent sales volume) for an area. Requires at least one of zip, city, or fips."),
		mcp.WithString("zip", mcp.Description("5-digit postal code.")),
		mcp.WithString("city", mcp.Description("City name, matched case-insensitively.")),
		mcp.WithString("state", mcp.Description("2-letter state code, narrows a city match.")),
		mcp.WithString("fips", mcp.Description("County FIPS code.")),
		mcp.WithString("property_use_group", mcp.Description("Narrow to one use group, e.g. \"Residential\".")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		req := property.StatsRequest{
			Zip:              stringArg(argsMap, "zip"),
			City:             stringArg(argsMap, "city"),
			State:            stringArg(argsMap, "state"),
			Fips:             stringArg(argsMap, "fips"),
			PropertyUseGroup: stringArg(argsMap, "property_use_group"),
		}

		stats, err := props.MarketStats(ctx, req)
		if err != nil {
			if errors.Is(err, property.ErrNoStatsArea) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("computing stats: %w", err)
		}
		return marshalResult(stats)
	})
}

// AddNearbyPropertiesTool registers the nearby_properties tool with an MCP
// server.
func AddNearbyPropertiesTool(s *server.MCPServer, props *property.Service) {
	tool := mcp.NewTool(
		"nearby_properties",
		mcp.WithDescription("List parcels within a radius of a point, nearest first, with the distance in meters for each."),
		mcp.WithNumber("lat", mcp.Required(), mcp.Description("Center latitude.")),
		mcp.WithNumber("lon", mcp.Required(), mcp.Description("Center longitude.")),
		mcp.WithNumber("meters", mcp.Description("Search radius in meters (default: 1600, max: 16000).")),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (1-100, default: 25).")),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		lat, latOK := argsMap["lat"].(float64)
		lon, lonOK := argsMap["lon"].(float64)
		if !latOK || !lonOK {
			return mcp.NewToolResultError("lat and lon parameters are required"), nil
		}

		meters := 1600.0
		if m, ok := argsMap["meters"].(float64); ok {
			meters = m
		}
		limit := 0
		if l, ok := argsMap["limit"].(float64); ok {
			limit = int(l)
		}

		rows, err := props.Nearby(ctx, lat, lon, meters, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return marshalResult(map[string]any{
			"properties": rows,
			"count":      len(rows),
		})
	})
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
