package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"menucost/internal/common"
	"menucost/internal/entity"
)

// ratesSchema constrains a rate document before extraction (draft 2020-12
// subset). Rates are strings so the decimal value survives the JSON trip
// without float rounding.
var ratesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"rates"},
	"properties": map[string]any{
		"rates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"pair", "rate", "date"},
				"properties": map[string]any{
					"pair": map[string]any{"type": "string", "pattern": `^[A-Z]{3}/[A-Z]{3}$`},
					"rate": map[string]any{"type": []any{"string", "number"}},
					"date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				},
			},
		},
	},
}

type rateDocument struct {
	Rates []struct {
		Pair string          `json:"pair"`
		Rate json.RawMessage `json:"rate"`
		Date string          `json:"date"`
	} `json:"rates"`
}

// ratesExtractor reads exchange-rate JSON documents. The document is
// validated against ratesSchema as a whole; per-row problems the schema
// cannot express (unknown pair, non-positive rate) become row errors.
type ratesExtractor struct{}

func NewRatesExtractor() Extractor { return ratesExtractor{} }

func (ratesExtractor) Extract(ctx context.Context, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read rates document: %w", err)
	}
	if err := validateAgainstSchema(ratesSchema, data); err != nil {
		return Result{}, fmt.Errorf("rates document rejected: %w: %v", common.ErrParse, err)
	}

	var doc rateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("decode rates document: %w: %v", common.ErrParse, err)
	}

	var res Result
	for i, row := range doc.Rates {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		raw := fmt.Sprintf("%s %s %s", row.Pair, row.Rate, row.Date)

		if row.Pair != entity.PairARSUSD {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, raw,
				fmt.Errorf("unsupported currency pair %q: %w", row.Pair, common.ErrParse)))
			continue
		}
		rate, err := decimal.NewFromString(unquote(row.Rate))
		if err != nil || !rate.IsPositive() {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, raw,
				fmt.Errorf("rate %s is not a positive decimal: %w", row.Rate, common.ErrParse)))
			continue
		}
		day, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			res.RowErrors = append(res.RowErrors, common.NewRowError(i, raw,
				fmt.Errorf("invalid date %q: %w", row.Date, common.ErrParse)))
			continue
		}
		res.Rates = append(res.Rates, RateRow{
			Row:           i,
			Pair:          row.Pair,
			Rate:          rate,
			EffectiveDate: day,
		})
	}
	return res, nil
}

// validateAgainstSchema validates data against a schema expressed as a
// generic map.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return schema.Validate(v)
}

func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
