package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

// RecipeIngredient keeps the raw quantity and unit exactly as written in
// the source document next to the normalized KG amount, for audit.
type RecipeIngredient struct {
	ent.Schema
}

func (RecipeIngredient) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "recipe_ingredients"},
	}
}

func (RecipeIngredient) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("recipe_id", uuid.UUID{}),
		field.UUID("ingredient_id", uuid.UUID{}),
		field.Float("quantity_raw").
			Positive().
			SchemaType(map[string]string{dialect.Postgres: "numeric(10,4)"}),
		field.String("unit_raw").NotEmpty(),
		field.Float("quantity_kg").
			Positive().
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,6)"}),
		field.Int("position").NonNegative(),
	}
}

func (RecipeIngredient) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("recipe", Recipe.Type).
			Ref("lines").
			Field("recipe_id").
			Required().
			Unique(),
		edge.From("ingredient", Ingredient.Type).
			Ref("recipe_lines").
			Field("ingredient_id").
			Required().
			Unique(),
	}
}

func (RecipeIngredient) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("recipe_id", "position").Unique(),
	}
}
