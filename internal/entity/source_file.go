package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceFile records one uploaded document. The sha256 content hash rejects
// byte-identical re-uploads and every price/rate row points back at the
// file that produced it.
type SourceFile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	DocType    string    `json:"doc_type"`
	HashHex    string    `json:"content_hash_hex"`
	UploadedAt time.Time `json:"uploaded_at"`
}
