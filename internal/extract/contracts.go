// Package extract turns raw documents into typed extraction records.
// Extractors are pure: they never touch persistent storage, and every
// malformed row is reported next to the records instead of being dropped.
package extract

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"menucost/constants"
	"menucost/internal/common"
)

// PriceRow is one extracted price-list entry. Price is quoted per one
// UnitRaw (empty means per kilogram, the table documents carry no unit
// column). Currency is empty unless the document states it.
type PriceRow struct {
	Row               int
	IngredientNameRaw string
	PriceRaw          string
	Price             decimal.Decimal
	UnitRaw           string
	Currency          string
}

// RecipeLine is one `<quantity> <unit> of <ingredient>` line.
type RecipeLine struct {
	Row               int
	QuantityRaw       string
	Quantity          decimal.Decimal
	UnitRaw           string
	IngredientNameRaw string
}

// RecipeDoc is one recipe parsed out of a recipe document.
type RecipeDoc struct {
	Row          int
	Name         string
	Instructions string
	Lines        []RecipeLine
}

// RateRow is one exchange-rate history point.
type RateRow struct {
	Row           int
	Pair          string
	Rate          decimal.Decimal
	EffectiveDate time.Time
}

// Result carries every record a document produced plus the parallel list
// of row-level errors. Exactly one of the record slices is populated,
// matching the document type.
type Result struct {
	Prices    []PriceRow
	Recipes   []RecipeDoc
	Rates     []RateRow
	RowErrors []common.RowError
}

// Extractor is the single capability all document types implement:
// produce extraction records from one raw document.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (Result, error)
}

// ForType selects the extractor for a declared document type. The loader
// never branches on format internals; this is the only dispatch point.
func ForType(docType string) (Extractor, error) {
	switch docType {
	case constants.TypePriceListTable:
		return NewTableExtractor(), nil
	case constants.TypePriceListSheet:
		return NewSheetExtractor(), nil
	case constants.TypeRecipeText:
		return NewRecipeExtractor(), nil
	case constants.TypeExchangeRates:
		return NewRatesExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown document type %q: %w", docType, common.ErrInvalidInput)
	}
}
