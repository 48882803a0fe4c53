package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediaforge/renditions/common/attachment"
)

// MediaRecord is one stored image and its rendition snapshot
// Maps to: media_record table
type MediaRecord struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Original client file name before sanitization
	FileName string `db:"file_name" json:"file_name"`

	// Persisted attachment snapshot, stored as JSONB
	Attachment attachment.Record `db:"attachment" json:"attachment"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
