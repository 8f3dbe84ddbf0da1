package chat

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoAppendMessage(t *testing.T) {
	repo, mock := newMockRepo(t)
	msg := Message{ID: "m1", SessionID: "s1", UserID: "u1", Role: RoleUser, Content: "hi", CreatedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs("m1", "s1", "u1", "user", "hi", msg.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AppendMessage(context.Background(), msg); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetSessionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM chat_sessions").
		WithArgs("s1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at"}))

	if _, err := repo.GetSession(context.Background(), "u2", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListMessagesKeepsMostRecent(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM chat_sessions").
		WithArgs("s1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at"}).AddRow("s1", "u1", "t", now))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq DESC")).
		WithArgs("s1", "u1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "user_id", "role", "content", "created_at"}).
			AddRow("m1", "s1", "u1", "user", "q", now).
			AddRow("m2", "s1", "u1", "assistant", "a", now))

	msgs, err := repo.ListMessages(context.Background(), "u1", "s1", 20)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Role != RoleAssistant {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteSessionNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM chat_sessions").
		WithArgs("s1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSession(context.Background(), "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
