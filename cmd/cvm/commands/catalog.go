package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
)

// catalogCmd validates a rule/offer catalog
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate a catalog file and print its hash",
	Long: `Load a YAML catalog (or the embedded default), validate it and
print its identity, thresholds and offer pools.

Example:
  go run ./cmd/cvm catalog
  go run ./cmd/cvm catalog --path ./catalog.yaml`,
	RunE: runCatalog,
}

var catalogPath string

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringVar(&catalogPath, "path", "", "catalog file (default: embedded)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	hash, err := catalog.Hash(cat)
	if err != nil {
		return err
	}

	source := catalogPath
	if source == "" {
		source = "embedded"
	}

	PrintDoubleSeparator()
	fmt.Printf("  Catalog %s v%d\n", cat.Meta.CatalogID, cat.Meta.Version)
	PrintSeparator()
	PrintKeyValue("Source", source, 16)
	PrintKeyValue("Hash", hash, 16)
	PrintKeyValue("New user tenure", strconv.FormatFloat(cat.Lifecycle.NewUserMaxTenure, 'f', -1, 64), 16)
	PrintKeyValue("Upsell max churn", strconv.FormatFloat(cat.Opportunity.UpsellMaxChurn, 'f', -1, 64), 16)
	PrintSeparator()

	for _, s := range contracts.AllStrategies() {
		fmt.Printf("  %s\n", s)
		PrintNumberedList(cat.Offers.Pool(s))
	}

	PrintSuccess("Catalog is valid")
	return nil
}
