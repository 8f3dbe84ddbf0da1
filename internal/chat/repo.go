package chat

import "context"

// Repo persists sessions and messages. Every lookup is scoped by owner.
type Repo interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, userId, sessionID string) (Session, error)
	ListSessions(ctx context.Context, userId string, limit int) ([]Session, error)
	DeleteSession(ctx context.Context, userId, sessionID string) error
	AppendMessage(ctx context.Context, msg Message) error
	// ListMessages returns messages oldest first. A positive limit keeps
	// only the most recent ones.
	ListMessages(ctx context.Context, userId, sessionID string, limit int) ([]Message, error)
}
