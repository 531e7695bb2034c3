package extract

import (
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"

	"menucost/internal/common"
)

func TestGroupRowsBucketsByBaseline(t *testing.T) {
	texts := []pdf.Text{
		{S: "Lista de precios", X: 100, Y: 760},
		{S: "$1.200,50", X: 300, Y: 700.8},
		{S: "Harina", X: 50, Y: 700},
		{S: "000", X: 330, Y: 680},
		{S: "Carne picada", X: 50, Y: 680.5},
		{S: "$9.", X: 300, Y: 680.2},
	}
	rows := groupRows(texts)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "Lista de precios" {
		t.Fatalf("rows not ordered top-down: %v", rows)
	}
	// Same baseline within tolerance, cells ordered left to right.
	if rows[1][0] != "Harina" || rows[1][1] != "$1.200,50" {
		t.Fatalf("unexpected second row: %v", rows[1])
	}
	if len(rows[2]) != 3 || rows[2][0] != "Carne picada" {
		t.Fatalf("unexpected third row: %v", rows[2])
	}
}

func TestParseTableRowsSkipsPreambleUntilTable(t *testing.T) {
	rows := [][]string{
		{"Distribuidora La Esperanza"},
		{"Lista de precios enero"},
		{"Corte", "Precio"},
		{"Harina", "$1.200,50"},
		{"Carne picada", "8500"},
	}
	res := parseTableRows(rows)
	if len(res.RowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", res.RowErrors)
	}
	if len(res.Prices) != 2 {
		t.Fatalf("expected 2 price rows, got %d", len(res.Prices))
	}
	if res.Prices[0].IngredientNameRaw != "Harina" || res.Prices[0].Price.String() != "1200.5" {
		t.Fatalf("unexpected first row: %+v", res.Prices[0])
	}
}

func TestParseTableRowsDollarSignOpensRegion(t *testing.T) {
	rows := [][]string{
		{"Precios vigentes"},
		{"Harina", "$1200"},
		{"Sal", "fuera de stock"},
	}
	res := parseTableRows(rows)
	if len(res.Prices) != 1 {
		t.Fatalf("expected 1 price row, got %d", len(res.Prices))
	}
	// Once inside the region, a non-numeric price is an error, not noise.
	if len(res.RowErrors) != 1 {
		t.Fatalf("expected 1 row error, got %d: %v", len(res.RowErrors), res.RowErrors)
	}
	if !errors.Is(res.RowErrors[0], common.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", res.RowErrors[0])
	}
}

func TestParseTableRowsMultiCellNames(t *testing.T) {
	rows := [][]string{
		{"Producto", "Precio"},
		{"Aceite", "de", "oliva", "$15.000"},
	}
	res := parseTableRows(rows)
	if len(res.Prices) != 1 {
		t.Fatalf("expected 1 price row, got %+v", res)
	}
	if res.Prices[0].IngredientNameRaw != "Aceite de oliva" {
		t.Fatalf("name = %q, want %q", res.Prices[0].IngredientNameRaw, "Aceite de oliva")
	}
	if res.Prices[0].Price.String() != "15000" {
		t.Fatalf("price = %s, want 15000", res.Prices[0].Price.String())
	}
}

func TestIsTableHeader(t *testing.T) {
	if !isTableHeader([]string{"Corte", "Precio"}) {
		t.Fatal("Corte/Precio should be a header")
	}
	if !isTableHeader([]string{"Ingredient", "Price"}) {
		t.Fatal("Ingredient/Price should be a header")
	}
	if isTableHeader([]string{"Harina", "$1200"}) {
		t.Fatal("a data row is not a header")
	}
}
