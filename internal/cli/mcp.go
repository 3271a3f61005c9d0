package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scoutdata/parcelscout/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for property search",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered
assistants search the property database with structured filters.

The MCP server:
- Loads the filter registry from Postgres
- Provides property_search, property_filters, property_detail,
  market_stats, and nearby_properties tools
- Communicates via stdio (standard MCP transport)

Example:
  parcelscout mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	app.startRegistryReload(ctx)

	fmt.Fprintf(os.Stderr, "Parcelscout MCP Server\n")
	fmt.Fprintf(os.Stderr, "Database: %s@%s:%d/%s\n\n",
		app.cfg.Database.User, app.cfg.Database.Host, app.cfg.Database.Port, app.cfg.Database.Name)

	server, err := mcp.NewServer(app.registry, app.searches, app.props)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
