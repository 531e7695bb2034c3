package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
)

// Ingredient is the referential anchor of every price history. The name is
// the canonical form (lower-case, collapsed whitespace), unique, and
// immutable: renaming would break historical price continuity.
type Ingredient struct {
	ent.Schema
}

func (Ingredient) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "ingredients"},
	}
}

func (Ingredient) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("name").
			NotEmpty().
			Unique().
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (Ingredient) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("prices", PriceRecord.Type),
		edge.To("recipe_lines", RecipeIngredient.Type),
	}
}
