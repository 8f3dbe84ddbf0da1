package health

import (
	"context"
	"database/sql"
	"time"

	"docchat-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Status is the health payload.
type Status struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. database may be nil for
// in-memory deployments.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status pings the database when one is configured.
func (s *Service) Status(ctx context.Context) Status {
	if s == nil || s.DB == nil {
		return Status{OK: true, DB: "disabled"}
	}
	if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
		return Status{OK: false, DB: "down"}
	}
	return Status{OK: true, DB: "up"}
}
