package documents

import (
	"context"
	"database/sql"
	"errors"

	"docchat-backend/internal/extraction"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, page_count, content, extraction_status, failure_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var pageCount sql.NullInt64
	var content sql.NullString
	var status string
	var failureReason sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageProvider,
		&doc.StorageKey,
		&pageCount,
		&content,
		&status,
		&failureReason,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.ExtractionStatus = extraction.Status(status)
	if pageCount.Valid {
		n := int(pageCount.Int64)
		doc.PageCount = &n
	}
	if content.Valid {
		doc.Content = &content.String
	}
	if failureReason.Valid {
		doc.FailureReason = &failureReason.String
	}
	return doc, nil
}

// Create inserts a new document in status pending.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    page_count,
    extraction_status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	var pageCount sql.NullInt64
	if doc.PageCount != nil {
		pageCount = sql.NullInt64{Int64: int64(*doc.PageCount), Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		doc.StorageKey,
		pageCount,
		string(extraction.StatusPending),
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userId, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first. Content is not loaded.
func (r *PGRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, page_count, NULL::text, extraction_status, failure_reason, created_at, updated_at
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateExtraction stores the extraction outcome. Content and failure
// reason are cleared unless the status calls for them.
func (r *PGRepo) UpdateExtraction(ctx context.Context, userId, documentID string, outcome extraction.Outcome) error {
	const query = `
UPDATE documents
SET extraction_status = $1, content = $2, failure_reason = $3, updated_at = now()
WHERE id = $4 AND user_id = $5`

	var content, reason sql.NullString
	if outcome.Status == extraction.StatusComplete && outcome.Content != nil {
		content = sql.NullString{String: *outcome.Content, Valid: true}
	}
	if outcome.Status == extraction.StatusFailed && outcome.FailureReason != nil {
		reason = sql.NullString{String: *outcome.FailureReason, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, string(outcome.Status), content, reason, documentID, userId)
	if err != nil {
		return err
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document and returns the removed row.
func (r *PGRepo) Delete(ctx context.Context, userId, documentID string) (Document, error) {
	query := `
DELETE FROM documents
WHERE id = $1 AND user_id = $2
RETURNING ` + documentColumns
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
