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

// ExchangeRate shares the append-only, point-in-time semantics of
// PriceRecord: autoincrement id as insertion-order tie-break, no mutation
// after commit.
type ExchangeRate struct {
	ent.Schema
}

func (ExchangeRate) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "exchange_rates"},
	}
}

func (ExchangeRate) Fields() []ent.Field {
	return []ent.Field{
		field.String("pair").NotEmpty().MaxLen(7).
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "char(7)"}),
		field.Float("rate").
			Positive().
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(18,6)"}),
		field.Time("effective_date").
			Immutable().
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.UUID("source_file_id", uuid.UUID{}).Immutable(),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (ExchangeRate) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("source_file", SourceFile.Type).
			Ref("rates").
			Field("source_file_id").
			Required().
			Unique().
			Immutable(),
	}
}

func (ExchangeRate) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("pair", "effective_date"),
	}
}
