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

// Recipe is the header; ordered ingredient lines live in RecipeIngredient.
// The canonical name is unique and never changes; reloading a recipe
// document replaces the lines under the same id.
type Recipe struct {
	ent.Schema
}

func (Recipe) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "recipes"},
	}
}

func (Recipe) Fields() []ent.Field {
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
		field.Text("instructions").Optional(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Recipe) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("lines", RecipeIngredient.Type),
	}
}
