package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"docchat-backend/internal/extraction"
)

var documentColumnNames = []string{"id", "user_id", "file_name", "mime_type", "size_bytes", "storage_provider", "storage_key", "page_count", "content", "extraction_status", "failure_reason", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateStartsPending(t *testing.T) {
	repo, mock := newMockRepo(t)
	pages := 3
	doc := Document{
		ID:         "doc-1",
		UserID:     "user-1",
		FileName:   "report.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  1024,
		StorageKey: "abc/report.pdf",
		PageCount:  &pages,
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.UserID, doc.FileName, doc.MimeType, doc.SizeBytes, "local", doc.StorageKey, int64(3), "pending", doc.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND id = $2")).
		WithArgs("user-1", "doc-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "user-1", "a.txt", "text/plain", int64(5), "local", "k/a.txt", nil, "hello", "complete", nil, now, now))

	doc, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !doc.HasContent() || *doc.Content != "hello" {
		t.Fatalf("expected content, got %+v", doc)
	}
	if doc.PageCount != nil || doc.FailureReason != nil {
		t.Fatalf("expected nil optional fields, got %+v", doc)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM documents").
		WithArgs("user-2", "doc-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames))

	if _, err := repo.GetByID(context.Background(), "user-2", "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateExtractionScopesByOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	content := "text"

	mock.ExpectExec("UPDATE documents").
		WithArgs("complete", content, nil, "doc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateExtraction(context.Background(), "user-1", "doc-1", extraction.Outcome{Status: extraction.StatusComplete, Content: &content})
	if err != nil {
		t.Fatalf("UpdateExtraction: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateExtractionFailedDropsContent(t *testing.T) {
	repo, mock := newMockRepo(t)
	content := "stale"
	reason := "download failed"

	mock.ExpectExec("UPDATE documents").
		WithArgs("failed", nil, reason, "doc-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome := extraction.Outcome{Status: extraction.StatusFailed, Content: &content, FailureReason: &reason}
	if err := repo.UpdateExtraction(context.Background(), "user-1", "doc-1", outcome); err != nil {
		t.Fatalf("UpdateExtraction: %v", err)
	}
}

func TestPGRepoUpdateExtractionZeroRowsIsNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	reason := "x"
	mock.ExpectExec("UPDATE documents").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateExtraction(context.Background(), "user-b", "doc-1", extraction.Outcome{Status: extraction.StatusFailed, FailureReason: &reason})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("user-1", 100, 0).
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-2", "user-1", "b.pdf", "application/pdf", int64(9), "s3", "k/b.pdf", int64(2), nil, "pending", nil, now, now).
			AddRow("doc-1", "user-1", "a.pdf", "application/pdf", int64(8), "s3", "k/a.pdf", nil, nil, "failed", "PDF is encrypted or password-protected", now, now))

	docs, err := repo.ListByUser(context.Background(), "user-1", 500, -3)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-2" || *docs[0].PageCount != 2 {
		t.Fatalf("unexpected docs %+v", docs)
	}
	if docs[1].ExtractionStatus != extraction.StatusFailed || docs[1].FailureReason == nil {
		t.Fatalf("expected failure reason, got %+v", docs[1])
	}
}

func TestPGRepoDeleteReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("DELETE FROM documents").
		WithArgs("doc-1", "user-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "user-1", "a.pdf", "application/pdf", int64(8), "local", "k/a.pdf", nil, nil, "pending", nil, now, now))

	doc, err := repo.Delete(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if doc.StorageKey != "k/a.pdf" {
		t.Fatalf("unexpected storage key %q", doc.StorageKey)
	}
}
