package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PairARSUSD is the canonical currency pair: the rate is ARS per 1 USD.
const PairARSUSD = "ARS/USD"

// Supported price currencies.
const (
	CurrencyARS = "ARS"
	CurrencyUSD = "USD"
)

// ExchangeRate is one append-only point in a currency pair's rate history,
// with the same point-in-time semantics as PriceRecord.
type ExchangeRate struct {
	ID            int             `json:"id"`
	Pair          string          `json:"pair"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	SourceFileID  uuid.UUID       `json:"source_file_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
