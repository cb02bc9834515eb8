package tag

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a curated tag in the catalog.
type Tag struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	MediaCount int64     `json:"media_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
