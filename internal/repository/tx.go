package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"menucost/gen/ent"
	"menucost/gen/ent/ingredient"
	"menucost/gen/ent/pricerecord"
	"menucost/gen/ent/recipe"
	"menucost/gen/ent/recipeingredient"
	"menucost/internal/common"
	"menucost/internal/entity"
	"menucost/internal/store"
)

// entTx implements the transactional write surface over a tx-scoped ent
// client. Every method runs inside the load's transaction; nothing is
// visible until EntStore.WithinTx commits.
type entTx struct {
	client *ent.Client
}

var _ store.Tx = (*entTx)(nil)

func (t *entTx) RegisterSourceFile(ctx context.Context, f *entity.SourceFile) error {
	_, err := t.client.SourceFile.Create().
		SetID(f.ID).
		SetName(f.Name).
		SetDocType(f.DocType).
		SetContentHash(f.HashHex).
		SetUploadedAt(f.UploadedAt).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return fmt.Errorf("file %q already loaded (identical content): %w", f.Name, common.ErrReferential)
		}
		return err
	}
	return nil
}

func (t *entTx) GetOrCreateIngredient(ctx context.Context, canonicalName string) (*entity.Ingredient, bool, error) {
	row, err := t.client.Ingredient.Query().
		Where(ingredient.Name(canonicalName)).
		Only(ctx)
	if err == nil {
		return toIngredient(row), false, nil
	}
	if !ent.IsNotFound(err) {
		return nil, false, err
	}
	row, err = t.client.Ingredient.Create().
		SetName(canonicalName).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			// lost a race with a concurrent load; the ingredient exists now
			row, err = t.client.Ingredient.Query().Where(ingredient.Name(canonicalName)).Only(ctx)
			if err != nil {
				return nil, false, err
			}
			return toIngredient(row), false, nil
		}
		return nil, false, err
	}
	return toIngredient(row), true, nil
}

func (t *entTx) FindIngredient(ctx context.Context, canonicalName string) (*entity.Ingredient, error) {
	row, err := t.client.Ingredient.Query().
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

func (t *entTx) InsertPriceRecord(ctx context.Context, rec *entity.PriceRecord) error {
	row, err := t.client.PriceRecord.Create().
		SetIngredientID(rec.IngredientID).
		SetPricePerKg(rec.PricePerKG.InexactFloat64()).
		SetCurrencyCode(rec.CurrencyCode).
		SetEffectiveDate(rec.EffectiveDate).
		SetSourceFileID(rec.SourceFileID).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return fmt.Errorf("duplicate price record for ingredient %s: %w", rec.IngredientID, common.ErrReferential)
		}
		return err
	}
	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	return nil
}

func (t *entTx) HasPriceRecord(ctx context.Context, ingredientID uuid.UUID, effectiveDate time.Time, sourceFileID uuid.UUID) (bool, error) {
	return t.client.PriceRecord.Query().
		Where(
			pricerecord.IngredientID(ingredientID),
			pricerecord.EffectiveDate(effectiveDate),
			pricerecord.SourceFileID(sourceFileID),
		).
		Exist(ctx)
}

func (t *entTx) UpsertRecipe(ctx context.Context, canonicalName, instructions string) (*entity.Recipe, bool, error) {
	row, err := t.client.Recipe.Query().
		Where(recipe.Name(canonicalName)).
		Only(ctx)
	if err == nil {
		row, err = row.Update().SetInstructions(instructions).Save(ctx)
		if err != nil {
			return nil, false, err
		}
		return toRecipe(row), false, nil
	}
	if !ent.IsNotFound(err) {
		return nil, false, err
	}
	row, err = t.client.Recipe.Create().
		SetName(canonicalName).
		SetInstructions(instructions).
		Save(ctx)
	if err != nil {
		return nil, false, err
	}
	return toRecipe(row), true, nil
}

func (t *entTx) ReplaceRecipeLines(ctx context.Context, recipeID uuid.UUID, lines []entity.RecipeIngredient) error {
	if _, err := t.client.RecipeIngredient.Delete().
		Where(recipeingredient.RecipeID(recipeID)).
		Exec(ctx); err != nil {
		return common.WrapError(err, "delete previous recipe lines")
	}
	if len(lines) == 0 {
		return nil
	}
	builders := make([]*ent.RecipeIngredientCreate, len(lines))
	for i, l := range lines {
		builders[i] = t.client.RecipeIngredient.Create().
			SetRecipeID(recipeID).
			SetIngredientID(l.IngredientID).
			SetQuantityRaw(l.QuantityRaw.InexactFloat64()).
			SetUnitRaw(l.UnitRaw).
			SetQuantityKg(l.QuantityKG.InexactFloat64()).
			SetPosition(i)
	}
	if _, err := t.client.RecipeIngredient.CreateBulk(builders...).Save(ctx); err != nil {
		return common.WrapError(err, "insert recipe lines")
	}
	return nil
}

func (t *entTx) InsertExchangeRate(ctx context.Context, rate *entity.ExchangeRate) error {
	row, err := t.client.ExchangeRate.Create().
		SetPair(rate.Pair).
		SetRate(rate.Rate.InexactFloat64()).
		SetEffectiveDate(rate.EffectiveDate).
		SetSourceFileID(rate.SourceFileID).
		Save(ctx)
	if err != nil {
		return err
	}
	rate.ID = row.ID
	rate.CreatedAt = row.CreatedAt
	return nil
}
