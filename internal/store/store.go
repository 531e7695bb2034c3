// Package store defines the persistence contracts of the costing engine:
// a transactional write surface consumed by the loader and monotonic
// point-in-time read queries consumed by the resolver and calculator.
// Implementations: ent/postgres in internal/repository, in-memory below.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"menucost/internal/entity"
)

// Tx is the write surface available inside one atomic load. Entity
// creation happens only here; readers never mutate.
type Tx interface {
	// RegisterSourceFile persists the upload row. A file whose content
	// hash was already registered fails with ErrReferential.
	RegisterSourceFile(ctx context.Context, f *entity.SourceFile) error

	// GetOrCreateIngredient resolves an ingredient by canonical name with
	// exact equality, creating it on first sighting.
	GetOrCreateIngredient(ctx context.Context, canonicalName string) (ing *entity.Ingredient, created bool, err error)

	// FindIngredient resolves by canonical name without creating;
	// ErrNotFound when absent.
	FindIngredient(ctx context.Context, canonicalName string) (*entity.Ingredient, error)

	// InsertPriceRecord appends one immutable price history row.
	InsertPriceRecord(ctx context.Context, rec *entity.PriceRecord) error

	// HasPriceRecord reports whether the identical (ingredient, effective
	// date, source file) triple is already present in this load.
	HasPriceRecord(ctx context.Context, ingredientID uuid.UUID, effectiveDate time.Time, sourceFileID uuid.UUID) (bool, error)

	// UpsertRecipe resolves or creates a recipe by canonical name. The
	// name and id never change on update; instructions may.
	UpsertRecipe(ctx context.Context, canonicalName, instructions string) (rec *entity.Recipe, created bool, err error)

	// ReplaceRecipeLines swaps a recipe's ordered ingredient lines.
	ReplaceRecipeLines(ctx context.Context, recipeID uuid.UUID, lines []entity.RecipeIngredient) error

	// InsertExchangeRate appends one immutable rate history row.
	InsertExchangeRate(ctx context.Context, rate *entity.ExchangeRate) error
}

// Store is the full persistence contract. WithinTx runs fn as one atomic
// unit of work: if fn returns an error every change it attempted is rolled
// back. Reads observe a consistent snapshot and never see half-committed
// loads.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	IngredientByName(ctx context.Context, canonicalName string) (*entity.Ingredient, error)
	IngredientByID(ctx context.Context, id uuid.UUID) (*entity.Ingredient, error)
	RecipeByName(ctx context.Context, canonicalName string) (*entity.Recipe, error)
	RecipeLines(ctx context.Context, recipeID uuid.UUID) ([]entity.RecipeIngredient, error)

	// PriceAsOf returns the price record for the ingredient with the
	// maximum effective date <= asOf; ties on effective date resolve to
	// the latest inserted row. ErrNotFound when no record qualifies.
	PriceAsOf(ctx context.Context, ingredientID uuid.UUID, asOf time.Time) (*entity.PriceRecord, error)

	// RateAsOf is the symmetric query over the exchange-rate history.
	RateAsOf(ctx context.Context, pair string, asOf time.Time) (*entity.ExchangeRate, error)
}
