package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRecord is one append-only point in an ingredient's price history.
// Rows are never mutated or deleted after commit; a correction is a new row
// with a later effective date. The int id is the insertion-order tie-break
// for records sharing an effective date.
type PriceRecord struct {
	ID            int             `json:"id"`
	IngredientID  uuid.UUID       `json:"ingredient_id"`
	PricePerKG    decimal.Decimal `json:"price_per_kg"`
	CurrencyCode  string          `json:"currency_code"`
	EffectiveDate time.Time       `json:"effective_date"`
	SourceFileID  uuid.UUID       `json:"source_file_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
