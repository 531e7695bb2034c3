package costing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"menucost/internal/common"
	"menucost/internal/entity"
	"menucost/internal/store"
)

// Line is one per-ingredient entry of a cost breakdown, kept for audit:
// the resolved record is identified by its own effective date and
// currency, next to the derived costs in both currencies.
type Line struct {
	Ingredient     string          `json:"ingredient"`
	QuantityKG     decimal.Decimal `json:"quantity_kg"`
	UnitPricePerKG decimal.Decimal `json:"unit_price_per_kg"`
	PriceCurrency  string          `json:"price_currency"`
	PriceDate      time.Time       `json:"price_date"`
	CostARS        decimal.Decimal `json:"cost_ars"`
	CostUSD        decimal.Decimal `json:"cost_usd"`
}

// Cost is the result of one point-in-time recipe costing.
type Cost struct {
	Recipe   string          `json:"recipe"`
	AsOf     time.Time       `json:"as_of"`
	TotalARS decimal.Decimal `json:"total_ars"`
	TotalUSD decimal.Decimal `json:"total_usd"`
	Lines    []Line          `json:"lines"`
}

// Calculator composes the referential store and the resolver into recipe
// costing. It fails whole: one unresolvable price or rate fails the
// calculation with the ingredient and date named, never a zero line.
type Calculator struct {
	store    store.Store
	resolver *Resolver
	logger   *slog.Logger
}

func NewCalculator(st store.Store, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{store: st, resolver: NewResolver(st), logger: logger}
}

// CostOf computes the recipe's total cost in ARS and USD as of date.
func (c *Calculator) CostOf(ctx context.Context, recipeName string, date time.Time) (*Cost, error) {
	asOf := day(date)
	name := entity.CanonicalName(recipeName)

	recipe, err := c.store.RecipeByName(ctx, name)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("recipe %q", recipeName))
	}
	lines, err := c.store.RecipeLines(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}

	// One rate serves the whole calculation; resolved lazily so a recipe
	// with no lines costs zero without requiring a rate history.
	var rate *entity.ExchangeRate

	cost := &Cost{Recipe: recipe.Name, AsOf: asOf}
	for _, line := range lines {
		ing, err := c.store.IngredientByID(ctx, line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("recipe %q line %d references ingredient %s: %w",
				recipe.Name, line.Position, line.IngredientID, common.ErrReferential)
		}
		price, err := c.resolver.PriceAsOf(ctx, ing.ID, asOf)
		if err != nil {
			return nil, fmt.Errorf("no price for ingredient %q as of %s: %w",
				ing.Name, asOf.Format("2006-01-02"), common.ErrCostCalculation)
		}
		if rate == nil {
			rate, err = c.resolver.RateAsOf(ctx, entity.PairARSUSD, asOf)
			if err != nil {
				return nil, fmt.Errorf("no %s rate as of %s: %w",
					entity.PairARSUSD, asOf.Format("2006-01-02"), common.ErrCostCalculation)
			}
		}

		native := line.QuantityKG.Mul(price.PricePerKG)
		var costARS, costUSD decimal.Decimal
		switch price.CurrencyCode {
		case entity.CurrencyARS:
			costARS = native
			costUSD = native.Div(rate.Rate)
		case entity.CurrencyUSD:
			costUSD = native
			costARS = native.Mul(rate.Rate)
		default:
			return nil, fmt.Errorf("price record %d has unsupported currency %q: %w",
				price.ID, price.CurrencyCode, common.ErrCostCalculation)
		}

		cost.Lines = append(cost.Lines, Line{
			Ingredient:     ing.Name,
			QuantityKG:     line.QuantityKG,
			UnitPricePerKG: price.PricePerKG,
			PriceCurrency:  price.CurrencyCode,
			PriceDate:      price.EffectiveDate,
			CostARS:        costARS,
			CostUSD:        costUSD,
		})
		cost.TotalARS = cost.TotalARS.Add(costARS)
		cost.TotalUSD = cost.TotalUSD.Add(costUSD)
	}

	c.logger.Debug("cost.computed",
		"recipe", recipe.Name,
		"as_of", asOf.Format("2006-01-02"),
		"lines", len(cost.Lines),
		"total_ars", cost.TotalARS.String(),
		"total_usd", cost.TotalUSD.String(),
	)
	return cost, nil
}
