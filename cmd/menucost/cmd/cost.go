// Package cmd - cost command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"menucost/internal/costing"
)

var (
	costDate string
	asJSON   bool
)

// costCmd represents the cost command
var costCmd = &cobra.Command{
	Use:   "cost [recipe]",
	Short: "Compute a recipe's cost in ARS and USD as of a date",
	Long: `Compute the total and per-ingredient cost of a recipe as of a date.

Each ingredient resolves to the most recent price record effective on or
before the date; the same date picks the ARS/USD rate. Recipe names match
case-insensitively.

Examples:
  menucost cost "Pan"
  menucost cost --date 2024-01-02 "Pan"
  menucost cost --json "Milanesa con pure"`,
	Args: cobra.ExactArgs(1),
	RunE: runCost,
}

func init() {
	costCmd.Flags().StringVarP(&costDate, "date", "d", "", "costing date, YYYY-MM-DD (default today)")
	costCmd.Flags().BoolVar(&asJSON, "json", false, "emit the breakdown as JSON")
}

func runCost(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	asOf := time.Now().UTC()
	if costDate != "" {
		parsed, err := time.Parse("2006-01-02", costDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", costDate)
		}
		asOf = parsed
	}

	st, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cost, err := costing.NewCalculator(st, logger).CostOf(ctx, args[0], asOf)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cost)
	}

	cmd.Printf("%s as of %s\n", cost.Recipe, cost.AsOf.Format("2006-01-02"))
	for _, line := range cost.Lines {
		cmd.Printf("  %-24s %8s kg @ %s %s/kg (%s) = %s ARS / %s USD\n",
			line.Ingredient,
			line.QuantityKG.String(),
			line.UnitPricePerKG.String(),
			line.PriceCurrency,
			line.PriceDate.Format("2006-01-02"),
			line.CostARS.StringFixed(2),
			line.CostUSD.StringFixed(4),
		)
	}
	cmd.Printf("total: %s ARS / %s USD\n", cost.TotalARS.StringFixed(2), cost.TotalUSD.StringFixed(4))
	return nil
}
