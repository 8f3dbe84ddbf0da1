package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/extraction"
	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/shared/util"
)

const (
	MaxMessageBytes     = 8000
	DefaultContextBytes = 60000
	maxTitleRunes       = 80
	maxContextDocuments = 10
	historyLimit        = 20
	// recent documents scanned when the caller names none
	recentScanLimit = 50
)

const systemPrompt = `You are a helpful assistant that answers questions about the user's documents.
Base your answers on the document excerpts below. If they do not contain the answer, say so plainly.
Quote file names when you refer to a document.`

// DocumentSource reads the caller's documents. documents.DocumentsRepo
// satisfies it.
type DocumentSource interface {
	GetByID(ctx context.Context, userId, documentID string) (documents.Document, error)
	ListByUser(ctx context.Context, userId string, limit, offset int) ([]documents.Document, error)
}

// AskRequest is one user turn.
type AskRequest struct {
	SessionID   string
	Message     string
	DocumentIDs []string
}

// AskResult carries the session and the stored assistant reply.
type AskResult struct {
	SessionID string
	Reply     Message
}

// Service answers questions over extracted document content.
type Service struct {
	Repo         Repo
	Docs         DocumentSource
	LLM          llm.Client
	ContextBytes int
	Now          func() time.Time
}

// Ask stores the user message, asks the LLM with document context and
// stores the reply. When the LLM fails the error wraps ErrCompletion and
// the result still names the session holding the user message.
func (s *Service) Ask(ctx context.Context, userId string, req AskRequest) (AskResult, error) {
	if strings.TrimSpace(userId) == "" {
		return AskResult{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return AskResult{}, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(text) > MaxMessageBytes {
		return AskResult{}, fmt.Errorf("%w: message exceeds %d bytes", ErrInvalidInput, MaxMessageBytes)
	}
	if len(req.DocumentIDs) > maxContextDocuments {
		return AskResult{}, fmt.Errorf("%w: at most %d documentIds", ErrInvalidInput, maxContextDocuments)
	}

	session, err := s.session(ctx, userId, strings.TrimSpace(req.SessionID), text)
	if err != nil {
		return AskResult{}, err
	}
	result := AskResult{SessionID: session.ID}

	if err := s.Repo.AppendMessage(ctx, s.newMessage(session, RoleUser, text)); err != nil {
		return result, err
	}

	docContext, err := s.buildContext(ctx, userId, req.DocumentIDs)
	if err != nil {
		return result, err
	}
	history, err := s.Repo.ListMessages(ctx, userId, session.ID, historyLimit)
	if err != nil {
		return result, err
	}

	prompt := make([]llm.Message, 0, len(history)+1)
	prompt = append(prompt, llm.Message{Role: llm.RoleSystem, Content: systemPrompt + "\n\n" + docContext})
	for _, m := range history {
		role := llm.RoleUser
		if m.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		prompt = append(prompt, llm.Message{Role: role, Content: m.Content})
	}

	start := s.now()
	answer, err := s.LLM.Chat(ctx, prompt)
	if err != nil {
		metrics.IncChatCompletionsFailed()
		telemetry.Error("chat.completion.failed", map[string]any{
			"session_id": session.ID,
			"user_id":    userId,
			"request_id": extraction.RequestIDFromContext(ctx),
			"error":      err.Error(),
		})
		return result, fmt.Errorf("%w: %v", ErrCompletion, err)
	}

	reply := s.newMessage(session, RoleAssistant, answer)
	if err := s.Repo.AppendMessage(context.WithoutCancel(ctx), reply); err != nil {
		return result, err
	}
	metrics.IncChatCompletions()
	telemetry.Info("chat.completion", map[string]any{
		"session_id":    session.ID,
		"user_id":       userId,
		"history":       len(history),
		"context_bytes": len(docContext),
		"duration_ms":   s.now().Sub(start).Milliseconds(),
	})

	result.Reply = reply
	return result, nil
}

// Sessions lists the caller's sessions newest first.
func (s *Service) Sessions(ctx context.Context, userId string) ([]Session, error) {
	if strings.TrimSpace(userId) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListSessions(ctx, userId, 0)
}

// Messages returns the full ordered conversation of a session.
func (s *Service) Messages(ctx context.Context, userId, sessionID string) ([]Message, error) {
	if strings.TrimSpace(userId) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListMessages(ctx, userId, sessionID, 0)
}

// DeleteSession removes a session and its messages.
func (s *Service) DeleteSession(ctx context.Context, userId, sessionID string) error {
	if strings.TrimSpace(userId) == "" || strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}
	return s.Repo.DeleteSession(ctx, userId, sessionID)
}

func (s *Service) session(ctx context.Context, userId, sessionID, firstMessage string) (Session, error) {
	if sessionID != "" {
		return s.Repo.GetSession(ctx, userId, sessionID)
	}
	session := Session{
		ID:        uuid.NewString(),
		UserID:    userId,
		Title:     Title(firstMessage),
		CreatedAt: s.now().UTC(),
	}
	if err := s.Repo.CreateSession(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// buildContext concatenates complete documents, newest first, until the
// byte budget is spent. Named documents must exist; pending or failed
// ones are skipped.
func (s *Service) buildContext(ctx context.Context, userId string, ids []string) (string, error) {
	var docs []documents.Document
	if len(ids) > 0 {
		for _, id := range ids {
			doc, err := s.Docs.GetByID(ctx, userId, strings.TrimSpace(id))
			if err != nil {
				return "", err
			}
			if doc.ExtractionStatus == extraction.StatusComplete && doc.HasContent() {
				docs = append(docs, doc)
			}
		}
	} else {
		recent, err := s.Docs.ListByUser(ctx, userId, recentScanLimit, 0)
		if err != nil {
			return "", err
		}
		for _, doc := range recent {
			if len(docs) == maxContextDocuments {
				break
			}
			if doc.ExtractionStatus != extraction.StatusComplete {
				continue
			}
			full, err := s.Docs.GetByID(ctx, userId, doc.ID)
			if err != nil {
				if errors.Is(err, documents.ErrNotFound) {
					continue
				}
				return "", err
			}
			if full.HasContent() {
				docs = append(docs, full)
			}
		}
	}

	if len(docs) == 0 {
		return "No document content is available.", nil
	}

	budget := s.contextBytes()
	var b strings.Builder
	for _, doc := range docs {
		header := fmt.Sprintf("### %s\n", doc.FileName)
		remaining := budget - b.Len() - len(header) - 2
		if remaining <= 0 {
			break
		}
		b.WriteString(header)
		b.WriteString(util.TruncateUTF8(*doc.Content, remaining))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Title derives a session title from the opening message.
func Title(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxTitleRunes]))
}

func (s *Service) newMessage(session Session, role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		UserID:    session.UserID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
}

func (s *Service) contextBytes() int {
	if s.ContextBytes > 0 {
		return s.ContextBytes
	}
	return DefaultContextBytes
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
