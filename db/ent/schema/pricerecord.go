package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

// PriceRecord rows are append-only: no update or delete path exists in the
// application, corrections are new rows with a later effective date. The
// default autoincrement id doubles as the insertion-order tie-break when
// two rows share an effective date.
type PriceRecord struct {
	ent.Schema
}

func (PriceRecord) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "price_records"},
	}
}

func (PriceRecord) Fields() []ent.Field {
	return []ent.Field{
		// explicit FKs so the point-in-time index can cover them
		field.UUID("ingredient_id", uuid.UUID{}).Immutable(),
		field.Float("price_per_kg").
			Positive().
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(14,4)"}),
		field.String("currency_code").NotEmpty().MinLen(3).MaxLen(3).
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "char(3)"}),
		field.Time("effective_date").
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.UUID("source_file_id", uuid.UUID{}).Immutable(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (PriceRecord) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("ingredient", Ingredient.Type).
			Ref("prices").
			Field("ingredient_id").
			Required().
			Unique().
			Immutable(),
		edge.From("source_file", SourceFile.Type).
			Ref("prices").
			Field("source_file_id").
			Required().
			Unique().
			Immutable(),
	}
}

func (PriceRecord) Indexes() []ent.Index {
	return []ent.Index{
		// serves priceAsOf: max effective_date <= query date per ingredient
		index.Fields("ingredient_id", "effective_date"),
		index.Fields("ingredient_id", "effective_date", "source_file_id").Unique(),
	}
}
