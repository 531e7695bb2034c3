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

// SourceFile records one uploaded document; the unique content hash
// rejects byte-identical re-uploads at insert time.
type SourceFile struct {
	ent.Schema
}

func (SourceFile) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "source_files"},
	}
}

func (SourceFile) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("name").NotEmpty(),
		field.String("doc_type").NotEmpty(),
		field.String("content_hash").NotEmpty().Unique().
			SchemaType(map[string]string{dialect.Postgres: "char(64)"}),
		field.Time("uploaded_at").Default(time.Now),
	}
}

func (SourceFile) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("prices", PriceRecord.Type),
		edge.To("rates", ExchangeRate.Type),
	}
}
