package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
)

// Status is the extraction state stored on a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

const (
	defaultMaxDownloadBytes = 50 << 20
	persistTimeout          = 10 * time.Second
)

// Target is the subset of a document row the pipeline needs.
type Target struct {
	DocumentID string
	UserID     string
	StorageKey string
}

// Outcome is the terminal state written back to a document row. Content is
// set only when Status is StatusComplete.
type Outcome struct {
	Status        Status
	Content       *string
	FailureReason *string
}

// Repository reads and updates documents scoped to their owner. Both methods
// return ErrNotFound when no row matches (documentID, userID).
type Repository interface {
	GetExtractionTarget(ctx context.Context, userID, documentID string) (Target, error)
	UpdateExtraction(ctx context.Context, userID, documentID string, outcome Outcome) error
}

// Request identifies a document to extract on behalf of a user.
type Request struct {
	DocumentID string
	FilePath   string
	UserID     string
}

// Result is returned for runs that completed successfully.
type Result struct {
	DocumentID string
	Status     Status
	Content    string
}

// Service runs the extraction pipeline: fetch, extract, sanitize, persist.
type Service struct {
	Store            object.ObjectStore
	Repo             Repository
	Extractor        *Extractor
	MaxDownloadBytes int64
	Now              func() time.Time
}

// NewService wires a Service with the given limits.
func NewService(store object.ObjectStore, repo Repository, limits Limits, maxDownloadBytes int64) *Service {
	return &Service{
		Store:            store,
		Repo:             repo,
		Extractor:        NewExtractor(limits),
		MaxDownloadBytes: maxDownloadBytes,
		Now:              time.Now,
	}
}

// NormalizePath strips leading separators and cleans the path. Paths that
// escape their root or are empty are rejected.
func NormalizePath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", fmt.Errorf("%w: filePath is required", ErrInvalidInput)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: filePath must not contain '..'", ErrInvalidInput)
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", fmt.Errorf("%w: filePath is required", ErrInvalidInput)
	}
	return cleaned, nil
}

// Run extracts the document's content and stores the outcome. Input and
// ownership problems return before any row is written. Every later
// terminal path writes exactly one outcome.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	if s == nil || s.Store == nil || s.Repo == nil {
		return Result{}, errors.New("extraction service not configured")
	}
	docID := strings.TrimSpace(req.DocumentID)
	userID := strings.TrimSpace(req.UserID)
	if docID == "" {
		return Result{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if userID == "" {
		return Result{}, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	key, err := NormalizePath(req.FilePath)
	if err != nil {
		return Result{}, err
	}

	target, err := s.Repo.GetExtractionTarget(ctx, userID, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("load document: %w", err)
	}
	if target.StorageKey != key {
		return Result{}, fmt.Errorf("%w: filePath does not match the document", ErrInvalidInput)
	}

	start := s.now()
	metrics.IncExtractionStarted()
	fields := map[string]any{
		"document_id": docID,
		"user_id":     userID,
		"path":        key,
		"request_id":  RequestIDFromContext(ctx),
	}
	telemetry.Info("extraction.started", fields)

	data, err := s.download(ctx, key)
	if err != nil {
		var unproc *UnprocessableError
		if errors.As(err, &unproc) {
			return s.fail(ctx, start, fields, unproc.Reason, err)
		}
		fields["error"] = err.Error()
		if _, failErr := s.fail(ctx, start, fields, ErrDownload.Error(), err); errors.Is(failErr, ErrNotFound) || errors.Is(failErr, ErrPersist) {
			return Result{}, failErr
		}
		return Result{}, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	content, err := s.Extractor.Extract(ctx, key, data)
	if err != nil {
		var unproc *UnprocessableError
		if errors.As(err, &unproc) {
			return s.fail(ctx, start, fields, unproc.Reason, err)
		}
		return s.fail(ctx, start, fields, "extraction canceled", err)
	}

	if err := s.persist(ctx, userID, docID, Outcome{Status: StatusComplete, Content: &content}); err != nil {
		metrics.IncExtractionFailed()
		fields["error"] = err.Error()
		telemetry.Error("extraction.persist_failed", fields)
		return Result{}, err
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(float64(s.now().Sub(start).Milliseconds()))
	fields["status"] = string(StatusComplete)
	fields["bytes"] = len(content)
	fields["duration_ms"] = s.now().Sub(start).Milliseconds()
	telemetry.Info("extraction.completed", fields)

	return Result{DocumentID: docID, Status: StatusComplete, Content: content}, nil
}

// fail stores a failed outcome and returns the error the caller should see.
// A persistence problem takes precedence over cause.
func (s *Service) fail(ctx context.Context, start time.Time, fields map[string]any, reason string, cause error) (Result, error) {
	reason = capReason(reason)
	metrics.IncExtractionFailed()
	metrics.ObserveExtractionDurationMs(float64(s.now().Sub(start).Milliseconds()))
	fields["status"] = string(StatusFailed)
	fields["reason"] = reason
	fields["duration_ms"] = s.now().Sub(start).Milliseconds()
	telemetry.Error("extraction.failed", fields)

	userID, _ := fields["user_id"].(string)
	docID, _ := fields["document_id"].(string)
	if err := s.persist(ctx, userID, docID, Outcome{Status: StatusFailed, FailureReason: &reason}); err != nil {
		return Result{}, err
	}

	var unproc *UnprocessableError
	if errors.As(cause, &unproc) {
		return Result{}, unproc
	}
	return Result{}, cause
}

func (s *Service) download(ctx context.Context, key string) ([]byte, error) {
	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	limit := s.MaxDownloadBytes
	if limit <= 0 {
		limit = defaultMaxDownloadBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, unprocessable(fmt.Sprintf("file exceeds the %d byte limit", limit), nil)
	}
	return data, nil
}

// persist writes the outcome on a context detached from the request so a
// client disconnect does not leave the row pending.
func (s *Service) persist(ctx context.Context, userID, docID string, outcome Outcome) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.Repo.UpdateExtraction(writeCtx, userID, docID, outcome); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
