package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/extraction"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

// Handler wires chat routes to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.ask)
	rg.GET("/chat/sessions", h.sessions)
	rg.GET("/chat/sessions/:id/messages", h.messages)
	rg.DELETE("/chat/sessions/:id", h.deleteSession)
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := extraction.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Ask(ctx, userID, AskRequest{
		SessionID:   req.SessionID,
		Message:     req.Message,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		if errors.Is(err, ErrCompletion) {
			respond.Error(c, http.StatusBadGateway, "llm_failed", "assistant reply failed", gin.H{"sessionId": result.SessionID})
			return
		}
		writeError(c, err, "failed to process chat message")
		return
	}

	respond.OK(c, askResponse{SessionID: result.SessionID, Message: toMessageResponse(result.Reply)})
}

func (h *Handler) sessions(c *gin.Context) {
	sessions, err := h.Svc.Sessions(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list sessions")
		return
	}
	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	respond.OK(c, resp)
}

func (h *Handler) messages(c *gin.Context) {
	msgs, err := h.Svc.Messages(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to list messages")
		return
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	respond.OK(c, resp)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.Svc.DeleteSession(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "failed to delete session")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "chat session not found", nil)
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
