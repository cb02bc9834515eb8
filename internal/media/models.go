package media

import (
	"mime/multipart"
	"time"

	"github.com/google/uuid"
)

// Asset is the metadata record for one stored upload.
type Asset struct {
	ID           uuid.UUID `json:"id"`
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Path         string    `json:"path"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UploadInput carries one multipart file and its optional tags.
type UploadInput struct {
	File *multipart.FileHeader
	Tags []string
}

// BatchFailure describes one id that could not be deleted.
type BatchFailure struct {
	ID       uuid.UUID `json:"id"`
	Error    string    `json:"error"`
	NotFound bool      `json:"not_found"`
}

// BatchResult aggregates the per-item outcomes of a batch delete.
type BatchResult struct {
	Requested int            `json:"requested"`
	Deleted   int            `json:"deleted"`
	Failed    int            `json:"failed"`
	Failures  []BatchFailure `json:"failures"`
	Message   string         `json:"message,omitempty"`
}

// Succeeded reports whether every requested id was deleted.
func (r BatchResult) Succeeded() bool {
	return r.Failed == 0
}

// Partial reports whether some but not all ids were deleted.
func (r BatchResult) Partial() bool {
	return r.Deleted > 0 && r.Failed > 0
}

// AllNotFound reports a total failure caused only by unknown ids.
func (r BatchResult) AllNotFound() bool {
	if r.Deleted > 0 || r.Failed == 0 {
		return false
	}
	for _, f := range r.Failures {
		if !f.NotFound {
			return false
		}
	}
	return true
}
