package chat

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session groups the messages of one conversation.
type Session struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

// Message is a stored chat turn.
type Message struct {
	ID        string
	SessionID string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}
