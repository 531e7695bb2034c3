package units

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"menucost/internal/common"
)

func TestNormalizeMassUnits(t *testing.T) {
	cases := []struct {
		qty  string
		unit string
		want string
	}{
		{"500", "g", "0.5"},
		{"500", "G", "0.5"},
		{"2", "kg", "2"},
		{"1", "Kilos", "1"},
		{"250", "gramos", "0.25"},
		{"1", "t", "1000"},
		{"2", "lb", "0.90718474"},
		{"100", "mg", "0.0001"},
	}
	for _, tc := range cases {
		got, err := Normalize(decimal.RequireFromString(tc.qty), tc.unit)
		if err != nil {
			t.Fatalf("Normalize(%s %s): %v", tc.qty, tc.unit, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("Normalize(%s %s) = %s, want %s", tc.qty, tc.unit, got, tc.want)
		}
	}
}

func TestNormalizeRejectsUnknownUnits(t *testing.T) {
	for _, unit := range []string{"ml", "l", "cup", "taza", "unidad", "", "kgx", "glb"} {
		_, err := Normalize(decimal.NewFromInt(1), unit)
		if err == nil {
			t.Fatalf("Normalize(1 %q) succeeded, want unit conversion error", unit)
		}
		if !errors.Is(err, common.ErrUnitConversion) {
			t.Fatalf("Normalize(1 %q) error = %v, want ErrUnitConversion", unit, err)
		}
	}
}

func TestNormalizeNeverStripsPlurals(t *testing.T) {
	// "gs" is not a unit even though "g" is; plural folding is explicit.
	if _, err := Normalize(decimal.NewFromInt(1), "gs"); err == nil {
		t.Fatal("Normalize(1 gs) succeeded, want error")
	}
}

func TestPerKGPrice(t *testing.T) {
	// 1.5 per gram is 1500 per kg.
	got, err := PerKGPrice(decimal.RequireFromString("1.5"), "g")
	if err != nil {
		t.Fatalf("PerKGPrice: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("PerKGPrice(1.5, g) = %s, want 1500", got)
	}

	// Per-kg price passes through unchanged.
	got, err = PerKGPrice(decimal.RequireFromString("1200.50"), "kg")
	if err != nil {
		t.Fatalf("PerKGPrice: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("PerKGPrice(1200.50, kg) = %s, want 1200.50", got)
	}
}
