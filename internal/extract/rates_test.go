package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"menucost/internal/common"
)

func TestRatesExtractorParsesHistory(t *testing.T) {
	doc := `{"rates": [
		{"pair": "ARS/USD", "rate": "1000", "date": "2024-01-01"},
		{"pair": "ARS/USD", "rate": 1050.5, "date": "2024-01-15"}
	]}`
	res, err := NewRatesExtractor().Extract(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.RowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", res.RowErrors)
	}
	if len(res.Rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(res.Rates))
	}
	if res.Rates[0].Rate.String() != "1000" {
		t.Fatalf("rate = %s, want 1000", res.Rates[0].Rate.String())
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !res.Rates[1].EffectiveDate.Equal(want) {
		t.Fatalf("date = %s, want %s", res.Rates[1].EffectiveDate, want)
	}
}

func TestRatesExtractorRejectsMalformedDocument(t *testing.T) {
	cases := []string{
		`{}`,
		`{"rates": [{"pair": "ARS/USD"}]}`,
		`{"rates": [{"pair": "pesos", "rate": "1000", "date": "2024-01-01"}]}`,
		`{"rates": [{"pair": "ARS/USD", "rate": "1000", "date": "enero"}]}`,
		`not json at all`,
	}
	for _, doc := range cases {
		_, err := NewRatesExtractor().Extract(context.Background(), strings.NewReader(doc))
		if !errors.Is(err, common.ErrParse) {
			t.Fatalf("document %q: expected ErrParse, got %v", doc, err)
		}
	}
}

func TestRatesExtractorRowErrors(t *testing.T) {
	doc := `{"rates": [
		{"pair": "EUR/USD", "rate": "1.08", "date": "2024-01-01"},
		{"pair": "ARS/USD", "rate": "-5", "date": "2024-01-01"},
		{"pair": "ARS/USD", "rate": "1000", "date": "2024-01-01"}
	]}`
	res, err := NewRatesExtractor().Extract(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Rates) != 1 {
		t.Fatalf("expected 1 valid rate, got %d", len(res.Rates))
	}
	if len(res.RowErrors) != 2 {
		t.Fatalf("expected 2 row errors, got %d: %v", len(res.RowErrors), res.RowErrors)
	}
}
