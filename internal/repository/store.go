// Package repository is the ent-backed implementation of the store
// contracts. Writers run inside one database transaction per load;
// readers are plain queries over the append-only tables.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"menucost/gen/ent"
	"menucost/gen/ent/exchangerate"
	"menucost/gen/ent/ingredient"
	"menucost/gen/ent/pricerecord"
	"menucost/gen/ent/recipe"
	"menucost/gen/ent/recipeingredient"
	"menucost/internal/common"
	"menucost/internal/entity"
	"menucost/internal/store"
)

// EntStore implements store.Store over an ent client.
type EntStore struct {
	client *ent.Client
	logger *slog.Logger
}

var _ store.Store = (*EntStore)(nil)

func NewEntStore(client *ent.Client, logger *slog.Logger) *EntStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntStore{client: client, logger: logger}
}

// WithinTx runs fn inside one database transaction: commit on nil,
// rollback on error. The referential store's isolation serializes
// concurrent loads touching the same ingredient rows.
func (s *EntStore) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return common.WrapError(err, "begin transaction")
	}
	if err := fn(&entTx{client: tx.Client()}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			s.logger.Error("rollback failed", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit transaction")
	}
	return nil
}

func (s *EntStore) IngredientByName(ctx context.Context, canonicalName string) (*entity.Ingredient, error) {
	row, err := s.client.Ingredient.Query().
		Where(ingredient.Name(canonicalName)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("ingredient %q: %w", canonicalName, common.ErrNotFound)
		}
		return nil, err
	}
	return toIngredient(row), nil
}

func (s *EntStore) IngredientByID(ctx context.Context, id uuid.UUID) (*entity.Ingredient, error) {
	row, err := s.client.Ingredient.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("ingredient %s: %w", id, common.ErrNotFound)
		}
		return nil, err
	}
	return toIngredient(row), nil
}

func (s *EntStore) RecipeByName(ctx context.Context, canonicalName string) (*entity.Recipe, error) {
	row, err := s.client.Recipe.Query().
		Where(recipe.Name(canonicalName)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("recipe %q: %w", canonicalName, common.ErrNotFound)
		}
		return nil, err
	}
	return toRecipe(row), nil
}

func (s *EntStore) RecipeLines(ctx context.Context, recipeID uuid.UUID) ([]entity.RecipeIngredient, error) {
	rows, err := s.client.RecipeIngredient.Query().
		Where(recipeingredient.RecipeID(recipeID)).
		Order(recipeingredient.ByPosition()).
		All(ctx)
	if err != nil {
		return nil, err
	}
	lines := make([]entity.RecipeIngredient, len(rows))
	for i, row := range rows {
		lines[i] = entity.RecipeIngredient{
			ID:           row.ID,
			RecipeID:     row.RecipeID,
			IngredientID: row.IngredientID,
			QuantityRaw:  decimal.NewFromFloat(row.QuantityRaw),
			UnitRaw:      row.UnitRaw,
			QuantityKG:   decimal.NewFromFloat(row.QuantityKg),
			Position:     row.Position,
		}
	}
	return lines, nil
}

// PriceAsOf selects the row with the maximum effective date <= asOf;
// ties on effective date resolve to the highest id, i.e. latest insertion.
func (s *EntStore) PriceAsOf(ctx context.Context, ingredientID uuid.UUID, asOf time.Time) (*entity.PriceRecord, error) {
	row, err := s.client.PriceRecord.Query().
		Where(
			pricerecord.IngredientID(ingredientID),
			pricerecord.EffectiveDateLTE(asOf),
		).
		Order(
			pricerecord.ByEffectiveDate(entsql.OrderDesc()),
			pricerecord.ByID(entsql.OrderDesc()),
		).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("no price for ingredient %s as of %s: %w",
				ingredientID, asOf.Format("2006-01-02"), common.ErrNotFound)
		}
		return nil, err
	}
	return toPriceRecord(row), nil
}

func (s *EntStore) RateAsOf(ctx context.Context, pair string, asOf time.Time) (*entity.ExchangeRate, error) {
	row, err := s.client.ExchangeRate.Query().
		Where(
			exchangerate.Pair(pair),
			exchangerate.EffectiveDateLTE(asOf),
		).
		Order(
			exchangerate.ByEffectiveDate(entsql.OrderDesc()),
			exchangerate.ByID(entsql.OrderDesc()),
		).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("no %s rate as of %s: %w",
				pair, asOf.Format("2006-01-02"), common.ErrNotFound)
		}
		return nil, err
	}
	return toExchangeRate(row), nil
}

func toIngredient(row *ent.Ingredient) *entity.Ingredient {
	return &entity.Ingredient{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
}

func toRecipe(row *ent.Recipe) *entity.Recipe {
	return &entity.Recipe{
		ID:           row.ID,
		Name:         row.Name,
		Instructions: row.Instructions,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toPriceRecord(row *ent.PriceRecord) *entity.PriceRecord {
	return &entity.PriceRecord{
		ID:            row.ID,
		IngredientID:  row.IngredientID,
		PricePerKG:    decimal.NewFromFloat(row.PricePerKg),
		CurrencyCode:  row.CurrencyCode,
		EffectiveDate: row.EffectiveDate,
		SourceFileID:  row.SourceFileID,
		CreatedAt:     row.CreatedAt,
	}
}

func toExchangeRate(row *ent.ExchangeRate) *entity.ExchangeRate {
	return &entity.ExchangeRate{
		ID:            row.ID,
		Pair:          row.Pair,
		Rate:          decimal.NewFromFloat(row.Rate),
		EffectiveDate: row.EffectiveDate,
		SourceFileID:  row.SourceFileID,
		CreatedAt:     row.CreatedAt,
	}
}
