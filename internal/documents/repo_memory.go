package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"docchat-backend/internal/extraction"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]map[string]Document // userId -> documentId -> document
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]map[string]Document),
		now:  time.Now,
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[doc.UserID] == nil {
		r.data[doc.UserID] = make(map[string]Document)
	}
	if doc.ExtractionStatus == "" {
		doc.ExtractionStatus = extraction.StatusPending
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	r.data[doc.UserID][doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a document by ID for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userId, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[userId][documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// UpdateExtraction stores the extraction outcome for a document.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, userId, documentID string, outcome extraction.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userId][documentID]
	if !ok {
		return ErrNotFound
	}
	doc.ExtractionStatus = outcome.Status
	doc.Content = nil
	doc.FailureReason = nil
	if outcome.Status == extraction.StatusComplete {
		doc.Content = copyString(outcome.Content)
	}
	if outcome.Status == extraction.StatusFailed {
		doc.FailureReason = copyString(outcome.FailureReason)
	}
	doc.UpdatedAt = r.now().UTC()
	r.data[userId][documentID] = doc
	return nil
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := make([]Document, 0, len(r.data[userId]))
	for _, doc := range r.data[userId] {
		docs = append(docs, cloneDocument(doc))
	}
	r.mu.RUnlock()

	if len(docs) == 0 || offset >= len(docs) {
		return []Document{}, nil
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return docs[offset:end], nil
}

// Delete removes a document and returns the removed row.
func (r *MemoryRepo) Delete(ctx context.Context, userId, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[userId][documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	delete(r.data[userId], documentID)
	return doc, nil
}

func cloneDocument(doc Document) Document {
	doc.Content = copyString(doc.Content)
	doc.FailureReason = copyString(doc.FailureReason)
	if doc.PageCount != nil {
		n := *doc.PageCount
		doc.PageCount = &n
	}
	return doc
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
