package documents

import (
	"time"

	"docchat-backend/internal/extraction"
)

// Document represents an uploaded document owned by a user.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	PageCount        *int
	Content          *string
	ExtractionStatus extraction.Status
	FailureReason    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasContent reports whether extraction finished and stored text.
func (d Document) HasContent() bool {
	return d.ExtractionStatus == extraction.StatusComplete && d.Content != nil
}
