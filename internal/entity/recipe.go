package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe is the header row; ingredient lines live in RecipeIngredient.
type Recipe struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecipeIngredient links a recipe to an ingredient. The raw quantity and
// unit are retained verbatim next to the normalized KG amount for audit.
type RecipeIngredient struct {
	ID           int             `json:"id"`
	RecipeID     uuid.UUID       `json:"recipe_id"`
	IngredientID uuid.UUID       `json:"ingredient_id"`
	QuantityRaw  decimal.Decimal `json:"quantity_raw"`
	UnitRaw      string          `json:"unit_raw"`
	QuantityKG   decimal.Decimal `json:"quantity_kg"`
	Position     int             `json:"position"`
}
