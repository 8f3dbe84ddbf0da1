package extraction

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

// Handler exposes the pipeline over HTTP.
type Handler struct {
	Svc Runner
}

// NewHandler constructs a Handler.
func NewHandler(svc Runner) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the extraction route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract", h.extract)
}

type extractRequest struct {
	DocumentID string `json:"documentId"`
	FilePath   string `json:"filePath"`
}

type extractResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
}

func (h *Handler) extract(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	if req.DocumentID == "" || strings.TrimSpace(req.FilePath) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId and filePath are required", nil)
		return
	}
	c.Set("documentId", req.DocumentID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Run(ctx, Request{DocumentID: req.DocumentID, FilePath: req.FilePath, UserID: userID})
	if err != nil {
		WriteError(c, err)
		return
	}

	c.Set("extractionStatus", string(result.Status))
	respond.OK(c, extractResponse{Success: true, Content: result.Content})
}

// WriteError maps pipeline errors to HTTP responses.
func WriteError(c *gin.Context, err error) {
	var unproc *UnprocessableError
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", ErrNotFound.Error(), nil)
	case errors.As(err, &unproc):
		c.Set("extractionStatus", string(StatusFailed))
		respond.Error(c, http.StatusUnprocessableEntity, "unprocessable_document", unproc.Reason, nil)
	case errors.Is(err, ErrDownload):
		c.Set("extractionStatus", string(StatusFailed))
		respond.Error(c, http.StatusBadGateway, "download_failed", ErrDownload.Error(), nil)
	case errors.Is(err, ErrPersist):
		respond.Error(c, http.StatusInternalServerError, "persist_failed", ErrPersist.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "extraction failed", nil)
	}
}
