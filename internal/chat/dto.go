package chat

import "time"

type askRequest struct {
	SessionID   string   `json:"sessionId"`
	Message     string   `json:"message"`
	DocumentIDs []string `json:"documentIds"`
}

// MessageResponse is the API shape of a chat message.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type askResponse struct {
	SessionID string          `json:"sessionId"`
	Message   MessageResponse `json:"message"`
}

// SessionResponse is the API shape of a chat session.
type SessionResponse struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMessageResponse(m Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toSessionResponse(s Session) SessionResponse {
	return SessionResponse{SessionID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt}
}
