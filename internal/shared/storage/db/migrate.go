package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"docchat-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

var (
	gooseOnce sync.Once
	gooseErr  error
)

// RunMigrations applies every pending migration. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "up")
}

// Migrate runs one of up, down, status or version against the embedded
// migrations.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	run, ok := migrateCommands[command]
	if !ok {
		return fmt.Errorf("unknown migrate command %q", command)
	}
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationFiles)
		gooseErr = goose.SetDialect("postgres")
	})
	if gooseErr != nil {
		return gooseErr
	}

	start := time.Now()
	err := run(ctx, database)
	fields := map[string]any{"command": command, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Error("db.migrate.failed", fields)
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	telemetry.Info("db.migrate", fields)
	return nil
}

var migrateCommands = map[string]func(context.Context, *sql.DB) error{
	"up": func(ctx context.Context, database *sql.DB) error {
		return goose.UpContext(ctx, database, migrationsDir)
	},
	"down": func(ctx context.Context, database *sql.DB) error {
		return goose.DownContext(ctx, database, migrationsDir)
	},
	"status": func(ctx context.Context, database *sql.DB) error {
		return goose.StatusContext(ctx, database, migrationsDir)
	},
	"version": func(ctx context.Context, database *sql.DB) error {
		return goose.VersionContext(ctx, database, migrationsDir)
	},
}
