package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "docchat-backend/internal/auth"
	"docchat-backend/internal/chat"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/extraction"
	"docchat-backend/internal/llm"
	openai "docchat-backend/internal/llm/openai"
	"docchat-backend/internal/queue"
	"docchat-backend/internal/services/health"
	"docchat-backend/internal/shared/auth"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/object"
	localstore "docchat-backend/internal/shared/storage/object/local"
	s3store "docchat-backend/internal/shared/storage/object/s3"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/uploads"
	"docchat-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	Verifier          auth.Verifier
	Signer            *auth.JWTVerifier
	LLM               llm.Client
	DocumentsRepo     documents.DocumentsRepo
	ChatRepo          chat.Repo
	UsersRepo         users.Repo
	ExtractionService *extraction.Service
	Trigger           extraction.Trigger
	DocumentsService  *documents.Service
	ChatService       *chat.Service
	UsersService      *users.Service
}

// Build prepares dependencies and wires the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	verifier, signer, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Queue:    queueClient,
		Verifier: verifier,
		Signer:   signer,
		LLM:      llmClient,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Error("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ExtractionQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ExtractionQueueURL, cfg.AWSRegion)
}

// buildVerifier returns the token verifier and, in jwt mode, the signer
// used by the Google login.
func buildVerifier(cfg config.Config) (auth.Verifier, *auth.JWTVerifier, error) {
	if cfg.AuthMode == "remote" {
		return auth.NewRemoteVerifier(cfg.AuthUserInfoURL, nil), nil, nil
	}
	jwt, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return jwt, jwt, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(client), nil
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var docRepo documents.DocumentsRepo
	var chatRepo chat.Repo
	var userRepo users.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		chatRepo = &chat.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		chatRepo = chat.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	limits := extraction.Limits{
		MaxPages:  cfg.PDFMaxPages,
		ScanPages: cfg.PDFScanPages,
		Timeout:   cfg.ExtractTimeout,
	}
	extractionSvc := extraction.NewService(app.Store, documents.ExtractionRepo{Repo: docRepo}, limits, cfg.MaxUploadSize)

	var trigger extraction.Trigger
	if app.Queue != nil {
		trigger = &extraction.QueueTrigger{Client: app.Queue}
	} else {
		trigger = &extraction.AsyncTrigger{Runner: extractionSvc}
	}

	docSvc := &documents.Service{
		Store:           app.Store,
		Repo:            docRepo,
		Trigger:         trigger,
		StorageProvider: cfg.ObjectStoreType,
		MaxUploadSize:   cfg.MaxUploadSize,
		UploadsPrefix:   cfg.UploadsPrefix,
	}

	chatSvc := &chat.Service{
		Repo:         chatRepo,
		Docs:         docRepo,
		LLM:          app.LLM,
		ContextBytes: cfg.ChatContextBytes,
	}

	userSvc := users.NewService(userRepo)

	var signer googleauth.TokenSigner
	if app.Signer != nil {
		signer = app.Signer
	}
	googleAuth := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		signer,
		userSvc,
	)

	uploadsBucket := ""
	if cfg.ObjectStoreType == "s3" {
		uploadsBucket = cfg.S3Bucket
	}
	uploadsHandler, err := uploads.NewHandler(ctx, uploads.Options{
		Region:        cfg.AWSRegion,
		Bucket:        uploadsBucket,
		S3Prefix:      cfg.S3Prefix,
		UploadsPrefix: cfg.UploadsPrefix,
		MaxUploadSize: cfg.MaxUploadSize,
	})
	if err != nil {
		return err
	}

	app.DocumentsRepo = docRepo
	app.ChatRepo = chatRepo
	app.UsersRepo = userRepo
	app.ExtractionService = extractionSvc
	app.Trigger = trigger
	app.DocumentsService = docSvc
	app.ChatService = chatSvc
	app.UsersService = userSvc

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Verifier:    app.Verifier,
		Health:      health.NewService(app.DB),
		RateLimiter: middleware.NewRateLimiter(nil),
		Handlers: []server.RouteRegistrar{
			googleAuth,
			users.NewHandler(userSvc),
			extraction.NewHandler(extractionSvc),
			documents.NewHandler(docSvc),
			uploadsHandler,
			chat.NewHandler(chatSvc),
		},
	})
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
