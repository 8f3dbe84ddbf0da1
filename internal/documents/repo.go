package documents

import (
	"context"
	"errors"

	"docchat-backend/internal/extraction"
)

// DocumentsRepo defines persistence operations for documents. Every method
// is scoped to the owning user.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	UpdateExtraction(ctx context.Context, userID, documentID string, outcome extraction.Outcome) error
	Delete(ctx context.Context, userID, documentID string) (Document, error)
}

// ExtractionRepo exposes a DocumentsRepo to the extraction pipeline.
type ExtractionRepo struct {
	Repo DocumentsRepo
}

// GetExtractionTarget returns the stored location of an owned document.
func (r ExtractionRepo) GetExtractionTarget(ctx context.Context, userID, documentID string) (extraction.Target, error) {
	doc, err := r.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return extraction.Target{}, mapNotFound(err)
	}
	return extraction.Target{DocumentID: doc.ID, UserID: doc.UserID, StorageKey: doc.StorageKey}, nil
}

// UpdateExtraction stores the pipeline outcome.
func (r ExtractionRepo) UpdateExtraction(ctx context.Context, userID, documentID string, outcome extraction.Outcome) error {
	return mapNotFound(r.Repo.UpdateExtraction(ctx, userID, documentID, outcome))
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return extraction.ErrNotFound
	}
	return err
}

var _ extraction.Repository = ExtractionRepo{}
