package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/extraction"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/shared/util"
)

const defaultMaxUploadSize = 10_000_000

// Service contains business logic for documents.
type Service struct {
	Store           object.ObjectStore
	Repo            DocumentsRepo
	Trigger         extraction.Trigger
	StorageProvider string
	MaxUploadSize   int64
	UploadsPrefix   string
	Now             func() time.Time
}

// Upload saves the file to object storage, records the document as pending
// and hands it to the extraction trigger.
func (s *Service) Upload(ctx context.Context, userId, fileName string, r io.Reader) (Document, error) {
	if strings.TrimSpace(userId) == "" {
		return Document{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	limit := s.maxUploadSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return Document{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userId, name, bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	doc := s.newDocument(userId, name, mimeType, size, storageKey)
	if isPDF(mimeType, name) {
		doc.PageCount = pageCountOrNil(data, doc.ID)
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), storageKey); delErr != nil {
			telemetry.Error("documents.upload.cleanup_failed", map[string]any{
				"document_id": doc.ID,
				"error":       delErr.Error(),
			})
		}
		return Document{}, err
	}

	s.trigger(ctx, doc)
	return doc, nil
}

// CreateFromStorage registers a blob the client uploaded with a presigned
// URL. The key must live under the caller's upload prefix.
func (s *Service) CreateFromStorage(ctx context.Context, userId, storageKey, originalFileName, contentType string, sizeBytes int64) (Document, error) {
	if strings.TrimSpace(userId) == "" {
		return Document{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	key, err := extraction.NormalizePath(storageKey)
	if err != nil {
		return Document{}, fmt.Errorf("%w: invalid storageKey", ErrInvalidInput)
	}
	if !strings.HasPrefix(key, UserUploadPrefix(s.UploadsPrefix, userId)) {
		return Document{}, fmt.Errorf("%w: storageKey does not belong to user", ErrInvalidInput)
	}
	name, err := util.SanitizeFileName(originalFileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if sizeBytes <= 0 {
		return Document{}, fmt.Errorf("%w: sizeBytes must be positive", ErrInvalidInput)
	}
	if sizeBytes > s.maxUploadSize() {
		return Document{}, ErrTooLarge
	}

	mimeType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if mimeType == "" {
		mimeType = object.DetectMimeType(name, nil)
	}

	doc := s.newDocument(userId, name, mimeType, sizeBytes, key)
	if isPDF(mimeType, name) {
		doc.PageCount = s.pageCountFromStore(ctx, key, doc.ID)
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	s.trigger(ctx, doc)
	return doc, nil
}

// List returns the caller's documents newest first.
func (s *Service) List(ctx context.Context, userId string, limit, offset int) ([]Document, error) {
	if strings.TrimSpace(userId) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	return s.Repo.ListByUser(ctx, userId, limit, offset)
}

// Get returns one of the caller's documents including extracted content.
func (s *Service) Get(ctx context.Context, userId, documentID string) (Document, error) {
	if strings.TrimSpace(userId) == "" || strings.TrimSpace(documentID) == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, documentID)
}

// Delete removes the row, then the blob. A blob removal failure is logged
// and does not fail the call.
func (s *Service) Delete(ctx context.Context, userId, documentID string) error {
	if strings.TrimSpace(userId) == "" || strings.TrimSpace(documentID) == "" {
		return ErrInvalidInput
	}
	doc, err := s.Repo.Delete(ctx, userId, documentID)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Error("documents.delete.blob_failed", map[string]any{
			"document_id": documentID,
			"user_id":     userId,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
		})
	}
	return nil
}

// Reextract resets the document to pending and triggers extraction again.
func (s *Service) Reextract(ctx context.Context, userId, documentID string) (Document, error) {
	doc, err := s.Get(ctx, userId, documentID)
	if err != nil {
		return Document{}, err
	}
	if s.Trigger == nil {
		return Document{}, errors.New("extraction trigger not configured")
	}
	if err := s.Repo.UpdateExtraction(ctx, userId, documentID, extraction.Outcome{Status: extraction.StatusPending}); err != nil {
		return Document{}, err
	}
	doc.ExtractionStatus = extraction.StatusPending
	doc.Content = nil
	doc.FailureReason = nil

	req := extraction.Request{DocumentID: doc.ID, FilePath: doc.StorageKey, UserID: doc.UserID}
	if err := s.Trigger.Trigger(ctx, req); err != nil {
		return Document{}, fmt.Errorf("trigger extraction: %w", err)
	}
	return doc, nil
}

// UserUploadPrefix is the key prefix presigned uploads for userId use.
func UserUploadPrefix(uploadsPrefix, userId string) string {
	return path.Join(strings.Trim(uploadsPrefix, "/"), util.HashUserKey(userId)) + "/"
}

func (s *Service) newDocument(userId, name, mimeType string, size int64, key string) Document {
	now := s.now().UTC()
	provider := s.StorageProvider
	if provider == "" {
		provider = "local"
	}
	return Document{
		ID:               uuid.NewString(),
		UserID:           userId,
		FileName:         name,
		MimeType:         mimeType,
		SizeBytes:        size,
		StorageProvider:  provider,
		StorageKey:       key,
		ExtractionStatus: extraction.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// trigger fires extraction without waiting. Errors leave the document
// pending and are only logged.
func (s *Service) trigger(ctx context.Context, doc Document) {
	if s.Trigger == nil {
		return
	}
	req := extraction.Request{DocumentID: doc.ID, FilePath: doc.StorageKey, UserID: doc.UserID}
	if err := s.Trigger.Trigger(ctx, req); err != nil {
		telemetry.Error("documents.extraction.trigger_failed", map[string]any{
			"document_id": doc.ID,
			"user_id":     doc.UserID,
			"request_id":  extraction.RequestIDFromContext(ctx),
			"error":       err.Error(),
		})
	}
}

func (s *Service) pageCountFromStore(ctx context.Context, key, documentID string) *int {
	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil
	}
	defer body.Close()
	data, err := io.ReadAll(io.LimitReader(body, s.maxUploadSize()+1))
	if err != nil || int64(len(data)) > s.maxUploadSize() {
		return nil
	}
	return pageCountOrNil(data, documentID)
}

func pageCountOrNil(data []byte, documentID string) *int {
	n, err := countPDFPages(data)
	if err != nil {
		telemetry.Info("documents.pagecount.unavailable", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return nil
	}
	return &n
}

func (s *Service) maxUploadSize() int64 {
	if s.MaxUploadSize > 0 {
		return s.MaxUploadSize
	}
	return defaultMaxUploadSize
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
