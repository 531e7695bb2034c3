// Package costing computes point-in-time recipe costs over the immutable
// price and rate histories. Everything here is a pure read: no locking
// beyond the store's snapshot consistency, no writes, ever.
package costing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"menucost/internal/entity"
	"menucost/internal/store"
)

// Resolver answers "value as of date" questions against the append-only
// histories. Resolution is monotonic: the same (entity, date) pair keeps
// resolving to the same record as later-dated records arrive, and a record
// dated after the query date is never returned.
type Resolver struct {
	store store.Store
}

func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// PriceAsOf returns the ingredient's price record with the maximum
// effective date not exceeding date. Ties on effective date resolve to the
// latest inserted row.
func (r *Resolver) PriceAsOf(ctx context.Context, ingredientID uuid.UUID, date time.Time) (*entity.PriceRecord, error) {
	return r.store.PriceAsOf(ctx, ingredientID, day(date))
}

// RateAsOf is the symmetric query over the exchange-rate history.
func (r *Resolver) RateAsOf(ctx context.Context, pair string, date time.Time) (*entity.ExchangeRate, error) {
	return r.store.RateAsOf(ctx, pair, day(date))
}

// day pins a timestamp to its UTC calendar date; effective dates have day
// granularity.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
