package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// registryCmd represents the registry command
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the filter registry",
}

// registryListCmd prints the filter catalog grouped by category.
var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the active filter catalog grouped by category",
	RunE:  runRegistryList,
}

func init() {
	registryCmd.AddCommand(registryListCmd)
	rootCmd.AddCommand(registryCmd)
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	catalog, err := app.registry.DescribeByCategory()
	if err != nil {
		return fmt.Errorf("failed to describe filters: %w", err)
	}

	// Re-indent for terminal readability.
	var pretty map[string]any
	if err := json.Unmarshal([]byte(catalog), &pretty); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
