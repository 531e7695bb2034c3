// Package units holds the static unit conversion table and the normalizer
// that turns quantity+unit into a canonical KG amount. Unrecognized tokens
// are rejected, never defaulted: a guessed factor would silently corrupt
// every cost computed from the record.
package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"menucost/internal/common"
)

// factors maps a canonical unit token to its KG equivalent. Mass units
// only; volume, count and "to taste" are out of scope.
var factors = map[string]decimal.Decimal{
	"mg": decimal.New(1, -6),
	"g":  decimal.New(1, -3),
	"kg": decimal.New(1, 0),
	"t":  decimal.New(1000, 0),
	"lb": decimal.RequireFromString("0.45359237"),
	"oz": decimal.RequireFromString("0.028349523125"),
}

// aliases folds spelled-out and Spanish tokens onto canonical ones.
// Singular/plural pairs are listed explicitly; stripping a trailing "s"
// would turn unknown tokens into accidental matches.
var aliases = map[string]string{
	"gram": "g", "grams": "g", "gramo": "g", "gramos": "g", "gr": "g",
	"milligram": "mg", "milligrams": "mg", "miligramo": "mg", "miligramos": "mg",
	"kilogram": "kg", "kilograms": "kg", "kilogramo": "kg", "kilogramos": "kg",
	"kilo": "kg", "kilos": "kg",
	"ton": "t", "tons": "t", "tonne": "t", "tonnes": "t", "tonelada": "t", "toneladas": "t",
	"pound": "lb", "pounds": "lb", "lbs": "lb", "libra": "lb", "libras": "lb",
	"ounce": "oz", "ounces": "oz", "onza": "oz", "onzas": "oz",
}

// Canonical resolves a raw unit token to its canonical form, reporting
// whether the token is supported. Lookup is case-insensitive.
func Canonical(unit string) (string, bool) {
	tok := strings.ToLower(strings.TrimSpace(unit))
	if _, ok := factors[tok]; ok {
		return tok, true
	}
	if c, ok := aliases[tok]; ok {
		return c, true
	}
	return "", false
}

// Supported reports whether the unit token is in the conversion table.
func Supported(unit string) bool {
	_, ok := Canonical(unit)
	return ok
}

// Normalize converts quantity expressed in unit to kilograms. Pure and
// deterministic; an unsupported unit fails with the unit named, and the
// caller must not substitute a default factor.
func Normalize(quantity decimal.Decimal, unit string) (decimal.Decimal, error) {
	tok, ok := Canonical(unit)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unsupported unit %q: %w", unit, common.ErrUnitConversion)
	}
	return quantity.Mul(factors[tok]), nil
}

// PerKGPrice converts a price quoted per (1 unit) into a per-KG price.
// A price per gram becomes a thousandfold price per kilogram.
func PerKGPrice(price decimal.Decimal, unit string) (decimal.Decimal, error) {
	tok, ok := Canonical(unit)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unsupported unit %q: %w", unit, common.ErrUnitConversion)
	}
	// factors[tok] is never zero by construction.
	return price.Div(factors[tok]), nil
}
