// Package cmd - load command
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"menucost/constants"
	"menucost/internal/common"
	"menucost/internal/loader"
)

var (
	docType  string
	loadDate string
	currency string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Ingest a price list, recipe document, or exchange rate history",
	Long: `Ingest one document into the referential store.

The document type is inferred from the file extension unless --type is given:
pdf -> PRICE_LIST_TABLE, xlsx -> PRICE_LIST_SHEET, md/txt -> RECIPE_TEXT,
json -> EXCHANGE_RATES. A load is all-or-nothing: any bad row aborts the
whole file and the store keeps none of it.

Examples:
  menucost load --date 2024-01-01 precios.xlsx
  menucost load --type PRICE_LIST_TABLE lista.pdf
  menucost load --currency USD importados.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&docType, "type", "t", "", fmt.Sprintf("document type (%s)", strings.Join(constants.DocTypes, ", ")))
	loadCmd.Flags().StringVarP(&loadDate, "date", "d", "", "effective date for price rows, YYYY-MM-DD (default today)")
	loadCmd.Flags().StringVarP(&currency, "currency", "c", "", "currency for price rows that state none (default $DEFAULT_CURRENCY or ARS)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	dt := docType
	if dt == "" {
		ext := constants.NormalizeExt(filepath.Ext(path))
		inferred, ok := constants.DefaultExtensions[ext]
		if !ok {
			return fmt.Errorf("cannot infer document type from %q; pass --type", path)
		}
		dt = inferred
	}

	var effective time.Time
	if loadDate != "" {
		parsed, err := time.Parse("2006-01-02", loadDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", loadDate)
		}
		effective = parsed
	}

	cur := currency
	if cur == "" {
		cur = cfg.Loader.DefaultCurrency
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := loader.New(st, logger).Load(ctx, loader.Request{
		DocType:         dt,
		SourceName:      filepath.Base(path),
		Document:        f,
		EffectiveDate:   effective,
		DefaultCurrency: cur,
	})
	if err != nil {
		var abort *common.TransactionAbortError
		if errors.As(err, &abort) {
			cmd.PrintErrf("load aborted: %s (%d bad rows, nothing was stored)\n", abort.Source, len(abort.Rows))
			for _, row := range abort.Rows {
				cmd.PrintErrf("  row %d [%s] %q: %v\n", row.Row, row.Kind, row.Raw, row.Err)
			}
		}
		return err
	}

	cmd.Printf("loaded %s (%s)\n", filepath.Base(path), dt)
	cmd.Printf("  source file:         %s\n", result.SourceFileID)
	if result.IngredientsCreated > 0 {
		cmd.Printf("  ingredients created: %d\n", result.IngredientsCreated)
	}
	if result.PriceRecords > 0 {
		cmd.Printf("  price records:       %d\n", result.PriceRecords)
	}
	if result.RecipesCreated > 0 || result.RecipesUpdated > 0 {
		cmd.Printf("  recipes created:     %d\n", result.RecipesCreated)
		cmd.Printf("  recipes updated:     %d\n", result.RecipesUpdated)
		cmd.Printf("  recipe lines:        %d\n", result.RecipeLines)
	}
	if result.ExchangeRates > 0 {
		cmd.Printf("  exchange rates:      %d\n", result.ExchangeRates)
	}
	return nil
}
