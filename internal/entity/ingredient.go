package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ingredient is a canonical, never-renamed referential entity. Price history
// hangs off its id, so the name is immutable once created.
type Ingredient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalName trims, lower-cases and collapses internal whitespace.
// Matching against price lists and recipes uses this form with exact
// equality only; "Cebolla Morada" and "Cebolla" stay distinct entities.
func CanonicalName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}
