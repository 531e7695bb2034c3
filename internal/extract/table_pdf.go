package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"menucost/internal/common"
)

// yTolerance groups PDF text runs whose baselines differ by less than this
// into one table row.
const yTolerance = 2.0

// tableExtractor reads PDF price lists laid out as a table whose ingredient
// name column is immediately followed by its price column. Text outside the
// table region (page titles, footers) is ignored; once inside the region a
// row with a non-numeric price cell is a row-level ParseError, visible to
// the caller, never silently dropped.
type tableExtractor struct{}

func NewTableExtractor() Extractor { return tableExtractor{} }

func (tableExtractor) Extract(ctx context.Context, r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w: %v", common.ErrParse, err)
	}

	var rows [][]string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		p := reader.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		rows = append(rows, groupRows(p.Content().Text)...)
	}

	return parseTableRows(rows), nil
}

type textRow struct {
	y     float64
	cells []string
	xs    []float64
}

// groupRows buckets text runs into rows by Y coordinate and orders the
// cells of each row left to right.
func groupRows(texts []pdf.Text) [][]string {
	var rows []textRow
	for _, t := range texts {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		placed := false
		for i := range rows {
			if abs(rows[i].y-t.Y) < yTolerance {
				rows[i].cells = append(rows[i].cells, s)
				rows[i].xs = append(rows[i].xs, t.X)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, cells: []string{s}, xs: []float64{t.X}})
		}
	}
	// Pages render top-down: higher Y first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		order := make([]int, len(row.cells))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool { return row.xs[order[i]] < row.xs[order[j]] })
		cells := make([]string, len(row.cells))
		for i, idx := range order {
			cells[i] = row.cells[idx]
		}
		out = append(out, cells)
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// parseTableRows walks the grouped rows, detects the table region, and
// extracts {name, price} pairs. The name is everything left of the price
// cell, which is always the rightmost cell of the row.
func parseTableRows(rows [][]string) Result {
	var res Result
	inTable := false
	for i, cells := range rows {
		if len(cells) == 0 {
			continue
		}
		joined := strings.Join(cells, " ")
		if isTableHeader(cells) {
			inTable = true
			continue
		}
		if !inTable {
			if !strings.Contains(joined, "$") {
				continue // title/footer text above the table region
			}
			inTable = true
		}

		if len(cells) < 2 {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, joined,
				fmt.Errorf("row has no price cell: %w", common.ErrParse)))
			continue
		}
		name := strings.TrimSpace(strings.Join(cells[:len(cells)-1], " "))
		priceRaw := cells[len(cells)-1]
		if name == "" {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, joined,
				fmt.Errorf("row has no ingredient name: %w", common.ErrParse)))
			continue
		}
		price, err := ParsePrice(priceRaw)
		if err != nil {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, joined, err))
			continue
		}
		res.Prices = append(res.Prices, PriceRow{
			Row:               i,
			IngredientNameRaw: name,
			PriceRaw:          priceRaw,
			Price:             price,
		})
	}
	return res
}

// isTableHeader recognizes the column header row that opens the table
// region in the supplier lists.
func isTableHeader(cells []string) bool {
	joined := strings.ToLower(strings.Join(cells, " "))
	hasName := strings.Contains(joined, "corte") || strings.Contains(joined, "producto") ||
		strings.Contains(joined, "ingrediente") || strings.Contains(joined, "ingredient")
	hasPrice := strings.Contains(joined, "precio") || strings.Contains(joined, "price")
	return hasName && hasPrice
}
