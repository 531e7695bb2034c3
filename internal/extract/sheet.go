package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"menucost/internal/common"
)

// sheetExtractor reads XLSX price lists with named header columns:
// ingredient, unit, price and an optional currency. Blank rows are layout,
// not data, and are skipped; a present row with an unparseable price is a
// row-level ParseError.
type sheetExtractor struct{}

func NewSheetExtractor() Extractor { return sheetExtractor{} }

// Column header spellings accepted on the first non-empty row.
var (
	nameHeaders     = []string{"ingrediente", "ingredient", "producto", "nombre", "name", "corte"}
	unitHeaders     = []string{"unidad", "unit"}
	priceHeaders    = []string{"precio", "price"}
	currencyHeaders = []string{"moneda", "currency", "divisa"}
)

func (sheetExtractor) Extract(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open spreadsheet: %w: %v", common.ErrParse, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Result{}, fmt.Errorf("spreadsheet has no sheets: %w", common.ErrParse)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var res Result
	nameCol, unitCol, priceCol, currencyCol := -1, -1, -1, -1
	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if blankRow(cells) {
			continue
		}

		if nameCol == -1 {
			nameCol = findColumn(cells, nameHeaders)
			unitCol = findColumn(cells, unitHeaders)
			priceCol = findColumn(cells, priceHeaders)
			currencyCol = findColumn(cells, currencyHeaders)
			if nameCol == -1 || priceCol == -1 {
				return Result{}, fmt.Errorf("header row %d lacks ingredient/price columns: %w", i+1, common.ErrParse)
			}
			continue
		}

		name := cellAt(cells, nameCol)
		priceRaw := cellAt(cells, priceCol)
		raw := strings.Join(cells, " | ")
		if name == "" {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, raw,
				fmt.Errorf("missing ingredient name: %w", common.ErrParse)))
			continue
		}
		price, err := ParsePrice(priceRaw)
		if err != nil {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, raw, err))
			continue
		}
		res.Prices = append(res.Prices, PriceRow{
			Row:               i,
			IngredientNameRaw: name,
			PriceRaw:          priceRaw,
			Price:             price,
			UnitRaw:           cellAt(cells, unitCol),
			Currency:          strings.ToUpper(cellAt(cells, currencyCol)),
		})
	}
	if nameCol == -1 {
		return Result{}, fmt.Errorf("spreadsheet has no header row: %w", common.ErrParse)
	}
	return res, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func findColumn(cells, headers []string) int {
	for i, c := range cells {
		c = strings.ToLower(strings.TrimSpace(c))
		for _, h := range headers {
			if c == h {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}
