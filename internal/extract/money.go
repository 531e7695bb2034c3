package extract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"menucost/internal/common"
)

// ParsePrice parses a raw price cell. Supplier lists mix notations:
// "1200.50", "$1.200,50", "1.200", "1200,50". A leading currency sign and
// grouping separators are tolerated; the result must be positive.
//
// Separator rules: with both "." and "," present, the one occurring last
// is the decimal separator. A lone "," is decimal. A lone "." is decimal
// unless exactly three digits follow it, which supplier lists use for
// thousands ("1.200" is twelve hundred, never 1.2).
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty price: %w", common.ErrParse)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price %q is not numeric: %w", raw, common.ErrParse)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("price %q is not positive: %w", raw, common.ErrParse)
	}
	return d, nil
}

// parseQuantity parses a recipe quantity: a positive decimal with either a
// comma or a dot separator, no grouping.
func parseQuantity(raw string) (decimal.Decimal, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quantity %q is not numeric: %w", raw, common.ErrParse)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("quantity %q is not positive: %w", raw, common.ErrParse)
	}
	return d, nil
}
