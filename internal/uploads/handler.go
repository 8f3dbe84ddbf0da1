package uploads

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/shared/util"
)

const (
	presignExpires       = 15 * time.Minute
	defaultRegion        = "us-east-1"
	defaultUploadsPrefix = "uploads/"
	defaultMaxUploadSize = 10_000_000
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf":  {},
	"text/plain":       {},
	"text/markdown":    {},
	"text/csv":         {},
	"application/json": {},
}

// Presigner signs PUT requests. *s3.PresignClient satisfies it.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures presigned uploads.
type Options struct {
	Region        string
	Bucket        string
	S3Prefix      string
	UploadsPrefix string
	MaxUploadSize int64
}

// Handler issues presigned upload URLs into the document bucket.
// A handler without a presigner answers 503.
type Handler struct {
	Presign Presigner
	Opts    Options
}

// NewHandler builds a handler backed by the default AWS credential chain.
// An empty bucket yields an unconfigured handler.
func NewHandler(ctx context.Context, opts Options) (*Handler, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return &Handler{Opts: opts}, nil
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Handler{
		Presign: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		Opts:    opts,
	}, nil
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	StorageKey       string `json:"storageKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// RegisterRoutes attaches the presign route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/presign", h.presign)
}

func (h *Handler) presign(c *gin.Context) {
	if h.Presign == nil || strings.TrimSpace(h.Opts.Bucket) == "" {
		respond.Error(c, http.StatusServiceUnavailable, "uploads_unavailable", "uploads not configured", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(req.ContentType, ";")[0]))

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes must be positive", nil)
		return
	}
	if req.SizeBytes > h.maxUploadSize() {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "sizeBytes exceeds limit", nil)
		return
	}

	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	storageKey := StorageKey(h.uploadsPrefix(), userID, uuid.NewString(), sanitized)
	objectKey := storageKey
	if prefix := strings.Trim(h.Opts.S3Prefix, "/"); prefix != "" {
		objectKey = path.Join(prefix, storageKey)
	}

	out, err := h.Presign.PresignPutObject(c.Request.Context(), presignInput(h.Opts.Bucket, objectKey, contentType), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"error":       err.Error(),
			"bucket":      h.Opts.Bucket,
			"key":         objectKey,
			"contentType": contentType,
			"sizeBytes":   req.SizeBytes,
			"request_id":  middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.OK(c, presignResponse{
		UploadURL:        out.URL,
		StorageKey:       storageKey,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	})
}

// StorageKey builds the key a presigned upload lands on, relative to the
// store prefix. documents.Service accepts it back for the same user.
func StorageKey(uploadsPrefix, userID, id, fileName string) string {
	return documents.UserUploadPrefix(uploadsPrefix, userID) + id + "-" + fileName
}

func presignInput(bucket, key, contentType string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
}

func (h *Handler) uploadsPrefix() string {
	if strings.TrimSpace(h.Opts.UploadsPrefix) == "" {
		return defaultUploadsPrefix
	}
	return h.Opts.UploadsPrefix
}

func (h *Handler) maxUploadSize() int64 {
	if h.Opts.MaxUploadSize > 0 {
		return h.Opts.MaxUploadSize
	}
	return defaultMaxUploadSize
}
