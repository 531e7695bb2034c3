// Package loader executes one atomic unit of work per uploaded document:
// extract, normalize, resolve referential entities, persist. A single
// row-level error aborts and rolls back the whole file; price data is
// financial-critical and a half-loaded file is worse than no load at all.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"menucost/constants"
	"menucost/internal/common"
	"menucost/internal/entity"
	"menucost/internal/extract"
	"menucost/internal/store"
	"menucost/internal/units"
)

// Request describes one document upload. EffectiveDate dates the price
// rows of table/sheet documents (they carry no dates themselves);
// DefaultCurrency applies where the document states none.
type Request struct {
	DocType         string
	SourceName      string
	Document        io.Reader
	EffectiveDate   time.Time
	DefaultCurrency string
}

// Result reports what a successful load created or updated.
type Result struct {
	SourceFileID       uuid.UUID `json:"source_file_id"`
	IngredientsCreated int       `json:"ingredients_created"`
	PriceRecords       int       `json:"price_records"`
	RecipesCreated     int       `json:"recipes_created"`
	RecipesUpdated     int       `json:"recipes_updated"`
	RecipeLines        int       `json:"recipe_lines"`
	ExchangeRates      int       `json:"exchange_rates"`
}

type Loader struct {
	store  store.Store
	logger *slog.Logger
}

func New(st store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: st, logger: logger}
}

// Load runs the full ingest of one document. On any row-level failure it
// returns a *common.TransactionAbortError carrying every offending row,
// and the store keeps zero rows attributable to the file.
func (l *Loader) Load(ctx context.Context, req Request) (*Result, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(req.Document)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", req.SourceName, err)
	}
	sum := sha256.Sum256(data)

	extractor, err := extract.ForType(req.DocType)
	if err != nil {
		return nil, err
	}
	extracted, err := extractor.Extract(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, abort(req.SourceName, []common.RowError{common.NewRowError(0, req.SourceName, err)})
	}

	result := &Result{SourceFileID: uuid.New()}
	src := &entity.SourceFile{
		ID:         result.SourceFileID,
		Name:       req.SourceName,
		DocType:    req.DocType,
		HashHex:    hex.EncodeToString(sum[:]),
		UploadedAt: time.Now().UTC(),
	}

	err = l.store.WithinTx(ctx, func(tx store.Tx) error {
		rowErrs := append([]common.RowError(nil), extracted.RowErrors...)

		if err := tx.RegisterSourceFile(ctx, src); err != nil {
			return common.WrapError(err, fmt.Sprintf("register %q", req.SourceName))
		}

		switch req.DocType {
		case constants.TypePriceListTable, constants.TypePriceListSheet:
			rowErrs = append(rowErrs, l.loadPrices(ctx, tx, &req, src.ID, extracted.Prices, result)...)
		case constants.TypeRecipeText:
			rowErrs = append(rowErrs, l.loadRecipes(ctx, tx, extracted.Recipes, result)...)
		case constants.TypeExchangeRates:
			rowErrs = append(rowErrs, l.loadRates(ctx, tx, src.ID, extracted.Rates, result)...)
		}

		if len(rowErrs) > 0 {
			return abort(req.SourceName, rowErrs)
		}
		return nil
	})
	if err != nil {
		l.logger.Error("load.aborted", "source", req.SourceName, "doc_type", req.DocType, "error", err)
		return nil, err
	}

	l.logger.Info("load.ok",
		"source", req.SourceName,
		"doc_type", req.DocType,
		"ingredients_created", result.IngredientsCreated,
		"price_records", result.PriceRecords,
		"recipes_created", result.RecipesCreated,
		"recipes_updated", result.RecipesUpdated,
		"recipe_lines", result.RecipeLines,
		"exchange_rates", result.ExchangeRates,
	)
	return result, nil
}

func (l *Loader) loadPrices(ctx context.Context, tx store.Tx, req *Request, srcID uuid.UUID, rows []extract.PriceRow, result *Result) []common.RowError {
	var rowErrs []common.RowError
	for _, row := range rows {
		name := entity.CanonicalName(row.IngredientNameRaw)
		if name == "" {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, row.IngredientNameRaw,
				fmt.Errorf("empty ingredient name: %w", common.ErrParse)))
			continue
		}

		currency := row.Currency
		if currency == "" {
			currency = req.DefaultCurrency
		}
		if currency != entity.CurrencyARS && currency != entity.CurrencyUSD {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, currency,
				fmt.Errorf("unsupported currency %q: %w", currency, common.ErrParse)))
			continue
		}

		// Prices quoted per some mass unit become per-KG; no unit column
		// means the list quotes per kilogram already.
		perKG := row.Price
		if row.UnitRaw != "" {
			converted, err := units.PerKGPrice(row.Price, row.UnitRaw)
			if err != nil {
				rowErrs = append(rowErrs, common.NewRowError(row.Row, row.UnitRaw, err))
				continue
			}
			perKG = converted
		}

		ing, created, err := tx.GetOrCreateIngredient(ctx, name)
		if err != nil {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, name,
				common.WrapError(err, "resolve ingredient")))
			continue
		}
		if created {
			result.IngredientsCreated++
		}

		// A repeat of the identical (ingredient, date, source) triple
		// within one file is the same event stated twice, not new data.
		dup, err := tx.HasPriceRecord(ctx, ing.ID, req.EffectiveDate, srcID)
		if err != nil {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, name, err))
			continue
		}
		if dup {
			continue
		}

		if err := tx.InsertPriceRecord(ctx, &entity.PriceRecord{
			IngredientID:  ing.ID,
			PricePerKG:    perKG,
			CurrencyCode:  currency,
			EffectiveDate: req.EffectiveDate,
			SourceFileID:  srcID,
		}); err != nil {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, row.PriceRaw, err))
			continue
		}
		result.PriceRecords++
	}
	return rowErrs
}

func (l *Loader) loadRecipes(ctx context.Context, tx store.Tx, docs []extract.RecipeDoc, result *Result) []common.RowError {
	var rowErrs []common.RowError
	for _, doc := range docs {
		name := entity.CanonicalName(doc.Name)
		if name == "" {
			rowErrs = append(rowErrs, common.NewRowError(doc.Row, doc.Name,
				fmt.Errorf("empty recipe name: %w", common.ErrParse)))
			continue
		}

		lines := make([]entity.RecipeIngredient, 0, len(doc.Lines))
		ok := true
		for _, line := range doc.Lines {
			ingName := entity.CanonicalName(line.IngredientNameRaw)
			// Recipes reference ingredients by exact canonical name; a
			// recipe never creates ingredients, that is the price lists'
			// job. Missing means the whole file aborts.
			ing, err := tx.FindIngredient(ctx, ingName)
			if err != nil {
				rowErrs = append(rowErrs, common.NewRowError(line.Row, line.IngredientNameRaw,
					fmt.Errorf("recipe %q references unknown ingredient %q: %w", doc.Name, ingName, common.ErrReferential)))
				ok = false
				continue
			}
			kg, err := units.Normalize(line.Quantity, line.UnitRaw)
			if err != nil {
				rowErrs = append(rowErrs, common.NewRowError(line.Row, line.UnitRaw, err))
				ok = false
				continue
			}
			lines = append(lines, entity.RecipeIngredient{
				IngredientID: ing.ID,
				QuantityRaw:  line.Quantity,
				UnitRaw:      line.UnitRaw,
				QuantityKG:   kg,
			})
		}
		if !ok {
			continue
		}

		rec, created, err := tx.UpsertRecipe(ctx, name, doc.Instructions)
		if err != nil {
			rowErrs = append(rowErrs, common.NewRowError(doc.Row, doc.Name,
				common.WrapError(err, "upsert recipe")))
			continue
		}
		if err := tx.ReplaceRecipeLines(ctx, rec.ID, lines); err != nil {
			rowErrs = append(rowErrs, common.NewRowError(doc.Row, doc.Name,
				common.WrapError(err, "replace recipe lines")))
			continue
		}
		if created {
			result.RecipesCreated++
		} else {
			result.RecipesUpdated++
		}
		result.RecipeLines += len(lines)
	}
	return rowErrs
}

func (l *Loader) loadRates(ctx context.Context, tx store.Tx, srcID uuid.UUID, rows []extract.RateRow, result *Result) []common.RowError {
	var rowErrs []common.RowError
	for _, row := range rows {
		if err := tx.InsertExchangeRate(ctx, &entity.ExchangeRate{
			Pair:          row.Pair,
			Rate:          row.Rate,
			EffectiveDate: row.EffectiveDate,
			SourceFileID:  srcID,
		}); err != nil {
			rowErrs = append(rowErrs, common.NewRowError(row.Row, row.Pair, err))
			continue
		}
		result.ExchangeRates++
	}
	return rowErrs
}

func validate(req *Request) error {
	if !constants.ValidDocType(req.DocType) {
		return fmt.Errorf("unknown document type %q: %w", req.DocType, common.ErrInvalidInput)
	}
	if req.SourceName == "" {
		return fmt.Errorf("source name is required: %w", common.ErrInvalidInput)
	}
	if req.Document == nil {
		return fmt.Errorf("document is required: %w", common.ErrInvalidInput)
	}
	if req.DefaultCurrency == "" {
		req.DefaultCurrency = entity.CurrencyARS
	}
	if req.EffectiveDate.IsZero() {
		req.EffectiveDate = time.Now().UTC()
	}
	req.EffectiveDate = truncateToDay(req.EffectiveDate)
	return nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func abort(source string, rows []common.RowError) error {
	return &common.TransactionAbortError{Source: source, Rows: rows}
}
