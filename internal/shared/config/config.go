package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/joho/godotenv"
)

const (
	defaultMaxUploadSize   = "10MB"
	defaultPDFMaxPages     = 500
	defaultPDFScanPages    = 200
	defaultExtractTimeout  = 60 * time.Second
	defaultChatContextSize = 60000

	defaultShutdownTimeout   = 30 * time.Second
	defaultWorkerConcurrency = 4
	defaultSQSVisibility     = 300 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	UploadsPrefix      string
	LLMProvider        string
	LLMModel           string
	LLMBaseURL         string
	OpenAIAPIKey       string
	DatabaseURL        string
	Env                string
	AuthMode           string
	JWTSecret          string
	AuthUserInfoURL    string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	ExtractionQueueURL string
	MaxUploadSize      int64
	PDFMaxPages        int
	PDFScanPages       int
	ExtractTimeout     time.Duration
	ChatContextBytes   int

	ShutdownTimeout      time.Duration
	WorkerConcurrency    int
	SQSVisibilityTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		UploadsPrefix:      getEnv("UPLOADS_S3_PREFIX", "uploads/"),
		LLMProvider:        normalizeProvider(getEnv("LLM_PROVIDER", "placeholder")),
		LLMModel:           getEnv("LLM_MODEL", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Env:                env,
		AuthMode:           normalizeAuthMode(getEnv("AUTH_MODE", "jwt")),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AuthUserInfoURL:    getEnv("AUTH_USERINFO_URL", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		ExtractionQueueURL: getEnv("EXTRACTION_QUEUE_URL", ""),
		MaxUploadSize:      getEnvSize("MAX_UPLOAD_SIZE", defaultMaxUploadSize),
		PDFMaxPages:        getEnvInt("PDF_MAX_PAGES", defaultPDFMaxPages),
		PDFScanPages:       getEnvInt("PDF_SCAN_PAGES", defaultPDFScanPages),
		ExtractTimeout:     getEnvDuration("EXTRACT_TIMEOUT", defaultExtractTimeout),
		ChatContextBytes:   getEnvInt("CHAT_CONTEXT_BYTES", defaultChatContextSize),

		ShutdownTimeout:      getEnvSeconds("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeout),
		WorkerConcurrency:    getEnvPositiveInt("WORKER_CONCURRENCY", defaultWorkerConcurrency),
		SQSVisibilityTimeout: getEnvSeconds("SQS_VISIBILITY_TIMEOUT_SECONDS", defaultSQSVisibility),
	}
}

// Validate reports every missing or inconsistent required value at once.
// Callers treat a non-nil result as fatal at startup.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "production" {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.AuthMode == "jwt" && strings.TrimSpace(c.JWTSecret) == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
	}
	if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		errs = append(errs, errors.New("OBJECT_STORE=s3 requires S3_BUCKET"))
	}
	if c.LLMProvider == "openai" {
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			errs = append(errs, errors.New("LLM_PROVIDER=openai requires OPENAI_API_KEY"))
		}
		if strings.TrimSpace(c.LLMModel) == "" {
			errs = append(errs, errors.New("LLM_PROVIDER=openai requires LLM_MODEL"))
		}
	}
	if c.AuthMode == "remote" && strings.TrimSpace(c.AuthUserInfoURL) == "" {
		errs = append(errs, errors.New("AUTH_MODE=remote requires AUTH_USERINFO_URL"))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_SIZE must be positive"))
	}
	if c.PDFMaxPages <= 0 || c.PDFScanPages <= 0 {
		errs = append(errs, errors.New("PDF_MAX_PAGES and PDF_SCAN_PAGES must be positive"))
	} else if c.PDFScanPages > c.PDFMaxPages {
		errs = append(errs, fmt.Errorf("PDF_SCAN_PAGES (%d) must not exceed PDF_MAX_PAGES (%d)", c.PDFScanPages, c.PDFMaxPages))
	}
	if c.ExtractTimeout <= 0 {
		errs = append(errs, errors.New("EXTRACT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// loadEnvFiles loads KEY=VALUE files for local development. Values already
// present in the environment win; missing files are skipped.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: skip env file %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

// getEnvPositiveInt falls back to def for zero or negative values.
func getEnvPositiveInt(key string, def int) int {
	if val := getEnvInt(key, def); val > 0 {
		return val
	}
	return def
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	return time.Duration(getEnvPositiveInt(key, int(def/time.Second))) * time.Second
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func getEnvSize(key, def string) int64 {
	raw := strings.TrimSpace(getEnv(key, def))
	val, err := units.FromHumanSize(raw)
	if err != nil {
		log.Printf("config: %s invalid size %q, using %s", key, raw, def)
		val, _ = units.FromHumanSize(def)
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "placeholder"
	}
}

func normalizeAuthMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "remote":
		return "remote"
	default:
		return "jwt"
	}
}
