package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"menucost/constants"
	"menucost/internal/common"
	"menucost/internal/costing"
	"menucost/internal/entity"
	"menucost/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sheetBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, cells := range rows {
		for j, v := range cells {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func mustLoad(t *testing.T, l *Loader, req Request) *Result {
	t.Helper()
	res, err := l.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("Load(%s): %v", req.SourceName, err)
	}
	return res
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadPriceSheet(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := sheetBytes(t, [][]any{
		{"Ingrediente", "Unidad", "Precio"},
		{"Harina", "kg", "1200.50"},
		{"Sal", "g", "2.50"},
	})
	res := mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(doc),
		EffectiveDate: day(2024, 1, 1),
	})
	if res.IngredientsCreated != 2 || res.PriceRecords != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}

	harina, err := st.IngredientByName(context.Background(), "harina")
	if err != nil {
		t.Fatalf("IngredientByName: %v", err)
	}
	price, err := st.PriceAsOf(context.Background(), harina.ID, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("PriceAsOf: %v", err)
	}
	if price.PricePerKG.String() != "1200.5" || price.CurrencyCode != "ARS" {
		t.Fatalf("unexpected price record: %+v", price)
	}

	// Sal was quoted per gram; stored per kilogram.
	sal, err := st.IngredientByName(context.Background(), "sal")
	if err != nil {
		t.Fatalf("IngredientByName: %v", err)
	}
	salPrice, err := st.PriceAsOf(context.Background(), sal.ID, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("PriceAsOf: %v", err)
	}
	if salPrice.PricePerKG.String() != "2500" {
		t.Fatalf("per-gram price not normalized: %s", salPrice.PricePerKG.String())
	}
}

func TestLoadSheetCurrencyColumnOverridesDefault(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio", "Moneda"},
		{"Aceite de oliva", "15.00", "USD"},
		{"Harina", "1200", ""},
	})
	mustLoad(t, l, Request{
		DocType:         constants.TypePriceListSheet,
		SourceName:      "precios.xlsx",
		Document:        bytes.NewReader(doc),
		EffectiveDate:   day(2024, 1, 1),
		DefaultCurrency: "ARS",
	})

	aceite, err := st.IngredientByName(context.Background(), "aceite de oliva")
	if err != nil {
		t.Fatalf("IngredientByName: %v", err)
	}
	price, err := st.PriceAsOf(context.Background(), aceite.ID, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("PriceAsOf: %v", err)
	}
	if price.CurrencyCode != entity.CurrencyUSD {
		t.Fatalf("currency column ignored: %+v", price)
	}

	harina, err := st.IngredientByName(context.Background(), "harina")
	if err != nil {
		t.Fatalf("IngredientByName: %v", err)
	}
	price, err = st.PriceAsOf(context.Background(), harina.ID, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("PriceAsOf: %v", err)
	}
	if price.CurrencyCode != entity.CurrencyARS {
		t.Fatalf("default currency not applied: %+v", price)
	}
}

func TestLoadAbortsWholeFileOnOneBadRow(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"Harina", "1200.50"},
		{"Sal", "sin precio"},
	})
	_, err := l.Load(context.Background(), Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(doc),
		EffectiveDate: day(2024, 1, 1),
	})
	var abort *common.TransactionAbortError
	if !errors.As(err, &abort) {
		t.Fatalf("expected TransactionAbortError, got %v", err)
	}
	if len(abort.Rows) != 1 || !errors.Is(abort.Rows[0], common.ErrParse) {
		t.Fatalf("unexpected abort rows: %+v", abort.Rows)
	}
	// The good row must not survive the rollback.
	if _, err := st.IngredientByName(context.Background(), "harina"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected nothing stored after abort, got %v", err)
	}
}

func TestLoadCanonicalizesIngredientNames(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	first := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"  HARINA   0000 ", "1200"},
	})
	second := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"harina 0000", "1300"},
	})
	mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "enero.xlsx",
		Document:      bytes.NewReader(first),
		EffectiveDate: day(2024, 1, 1),
	})
	res := mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "febrero.xlsx",
		Document:      bytes.NewReader(second),
		EffectiveDate: day(2024, 2, 1),
	})
	if res.IngredientsCreated != 0 {
		t.Fatalf("differently-spelled name created a second ingredient: %+v", res)
	}
	if _, err := st.IngredientByName(context.Background(), "harina 0000"); err != nil {
		t.Fatalf("IngredientByName: %v", err)
	}
}

func TestLoadRejectsDuplicateUpload(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"Harina", "1200"},
	})
	mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(doc),
		EffectiveDate: day(2024, 1, 1),
	})
	_, err := l.Load(context.Background(), Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios-copia.xlsx",
		Document:      bytes.NewReader(doc),
		EffectiveDate: day(2024, 1, 2),
	})
	if !errors.Is(err, common.ErrReferential) {
		t.Fatalf("expected ErrReferential for identical content, got %v", err)
	}
}

func TestLoadSkipsRepeatedRowsWithinOneFile(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"Harina", "1200"},
		{"Harina", "1200"},
	})
	res := mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(doc),
		EffectiveDate: day(2024, 1, 1),
	})
	if res.PriceRecords != 1 {
		t.Fatalf("repeated row stored twice: %+v", res)
	}
}

func TestLoadRecipeRequiresKnownIngredients(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	recipe := "# Pan\n## Ingredientes\n- 500 g de Harina\n"
	_, err := l.Load(context.Background(), Request{
		DocType:    constants.TypeRecipeText,
		SourceName: "recetas.md",
		Document:   strings.NewReader(recipe),
	})
	if !errors.Is(err, common.ErrReferential) {
		t.Fatalf("expected ErrReferential for unknown ingredient, got %v", err)
	}
	if _, err := st.RecipeByName(context.Background(), "pan"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("recipe stored despite abort: %v", err)
	}
}

func TestLoadRecipeReplacesLinesOnReload(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	prices := sheetBytes(t, [][]any{
		{"Ingrediente", "Precio"},
		{"Harina", "1200"},
		{"Sal", "800"},
	})
	mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(prices),
		EffectiveDate: day(2024, 1, 1),
	})

	v1 := "# Pan\n## Ingredientes\n- 500 g de Harina\n- 10 g de Sal\n"
	res := mustLoad(t, l, Request{
		DocType:    constants.TypeRecipeText,
		SourceName: "pan-v1.md",
		Document:   strings.NewReader(v1),
	})
	if res.RecipesCreated != 1 || res.RecipeLines != 2 {
		t.Fatalf("unexpected v1 result: %+v", res)
	}

	v2 := "# Pan\n## Ingredientes\n- 600 g de Harina\n"
	res = mustLoad(t, l, Request{
		DocType:    constants.TypeRecipeText,
		SourceName: "pan-v2.md",
		Document:   strings.NewReader(v2),
	})
	if res.RecipesUpdated != 1 || res.RecipeLines != 1 {
		t.Fatalf("unexpected v2 result: %+v", res)
	}

	rec, err := st.RecipeByName(context.Background(), "pan")
	if err != nil {
		t.Fatalf("RecipeByName: %v", err)
	}
	lines, err := st.RecipeLines(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("RecipeLines: %v", err)
	}
	if len(lines) != 1 || lines[0].QuantityKG.String() != "0.6" {
		t.Fatalf("old lines not replaced: %+v", lines)
	}
}

func TestLoadExchangeRates(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	doc := `{"rates": [{"pair": "ARS/USD", "rate": "1000", "date": "2024-01-01"}]}`
	res := mustLoad(t, l, Request{
		DocType:    constants.TypeExchangeRates,
		SourceName: "rates.json",
		Document:   strings.NewReader(doc),
	})
	if res.ExchangeRates != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	rate, err := st.RateAsOf(context.Background(), entity.PairARSUSD, day(2024, 6, 1))
	if err != nil {
		t.Fatalf("RateAsOf: %v", err)
	}
	if rate.Rate.String() != "1000" {
		t.Fatalf("rate = %s, want 1000", rate.Rate.String())
	}
}

func TestLoadValidatesRequest(t *testing.T) {
	l := New(store.NewMemory(), testLogger())
	_, err := l.Load(context.Background(), Request{
		DocType:    "CSV",
		SourceName: "x.csv",
		Document:   strings.NewReader(""),
	})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = l.Load(context.Background(), Request{
		DocType:  constants.TypeRecipeText,
		Document: strings.NewReader(""),
	})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty source name, got %v", err)
	}
}

// End to end: ingest prices, a rate history, and a recipe, then cost the
// recipe the day after the price took effect.
func TestLoadThenCost(t *testing.T) {
	st := store.NewMemory()
	l := New(st, testLogger())

	prices := sheetBytes(t, [][]any{
		{"Ingrediente", "Unidad", "Precio"},
		{"Harina", "kg", "1200.50"},
	})
	mustLoad(t, l, Request{
		DocType:       constants.TypePriceListSheet,
		SourceName:    "precios.xlsx",
		Document:      bytes.NewReader(prices),
		EffectiveDate: day(2024, 1, 1),
	})
	mustLoad(t, l, Request{
		DocType:    constants.TypeExchangeRates,
		SourceName: "rates.json",
		Document:   strings.NewReader(`{"rates": [{"pair": "ARS/USD", "rate": "1000", "date": "2024-01-01"}]}`),
	})
	mustLoad(t, l, Request{
		DocType:    constants.TypeRecipeText,
		SourceName: "pan.md",
		Document:   strings.NewReader("# Pan\n## Ingredientes\n- 500 g de Harina\n"),
	})

	cost, err := costing.NewCalculator(st, testLogger()).CostOf(context.Background(), "Pan", day(2024, 1, 2))
	if err != nil {
		t.Fatalf("CostOf: %v", err)
	}
	if cost.TotalARS.String() != "600.25" {
		t.Fatalf("TotalARS = %s, want 600.25", cost.TotalARS.String())
	}
	if cost.TotalUSD.String() != "0.60025" {
		t.Fatalf("TotalUSD = %s, want 0.60025", cost.TotalUSD.String())
	}
	if len(cost.Lines) != 1 || cost.Lines[0].Ingredient != "harina" {
		t.Fatalf("unexpected breakdown: %+v", cost.Lines)
	}
}
