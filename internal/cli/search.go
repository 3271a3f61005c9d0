package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scoutdata/parcelscout/internal/search"
)

var searchFile string

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search request from a JSON file or stdin",
	Long: `Run a single property search. The request is a JSON document with
filters, an optional spatial constraint, sort, limit, and insight keys:

  {
    "filters": [
      {"key": "property-use-group", "operator": "eq", "value": "Residential"},
      {"key": "year-built", "operator": "gte", "value": 1990}
    ],
    "spatial": {"type": "zip", "code": "78701"},
    "sort": {"field": "last_sale_date", "order": "desc"},
    "limit": 25
  }

Example:
  parcelscout search -f request.json
  cat request.json | parcelscout search`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFile, "file", "f", "", "request file (default: stdin)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if searchFile != "" {
		raw, err = os.ReadFile(searchFile)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	var req search.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}

	ctx := context.Background()
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	resp, err := app.searches.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
