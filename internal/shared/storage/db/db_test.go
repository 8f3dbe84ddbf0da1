package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"
)

// stubDriver accepts any DSN. Pings fail for the "unreachable" DSN.
type stubDriver struct{}

type stubConn struct{ dsn string }

func (d stubDriver) Open(name string) (driver.Conn, error) { return stubConn{dsn: name}, nil }

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }
func (c stubConn) Ping(context.Context) error {
	if c.dsn == "unreachable" {
		return driver.ErrBadConn
	}
	return nil
}

var registerStub sync.Once

func useStubDriver(t *testing.T) {
	t.Helper()
	registerStub.Do(func() { sql.Register("dbstub", stubDriver{}) })
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) { return sql.Open("dbstub", dsn) }
	t.Cleanup(func() { openDB = prev })
}

func resetShared(t *testing.T) {
	t.Helper()
	shared.mu.Lock()
	shared.db = nil
	shared.mu.Unlock()
	t.Cleanup(func() {
		shared.mu.Lock()
		if shared.db != nil {
			shared.db.Close()
		}
		shared.db = nil
		shared.mu.Unlock()
	})
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "nope")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	defaults := DefaultServerOptions()
	opts := OptionsFromEnv(defaults)

	want := defaults
	want.MaxOpenConns = 7
	want.ConnMaxLifetime = 20 * time.Minute
	want.PingTimeout = time.Second
	if opts != want {
		t.Fatalf("OptionsFromEnv = %+v, want %+v", opts, want)
	}
}

func TestConnectAppliesPoolSize(t *testing.T) {
	useStubDriver(t)

	database, err := Connect(context.Background(), "postgres://stub", Options{MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()
	if got := database.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("MaxOpenConnections = %d, want 3", got)
	}
}

func TestConnectFailsOnPing(t *testing.T) {
	useStubDriver(t)

	if _, err := Connect(context.Background(), "unreachable", DefaultServerOptions()); err == nil {
		t.Fatal("expected ping failure")
	}
	if _, err := Connect(context.Background(), " ", DefaultServerOptions()); !errors.Is(err, ErrNoDatabaseURL) {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
}

func TestGetSingletonSharesPoolAndRetries(t *testing.T) {
	useStubDriver(t)
	resetShared(t)
	ctx := context.Background()

	if _, err := GetSingleton(ctx, "unreachable", DefaultLambdaOptions()); err == nil {
		t.Fatal("expected first connect to fail")
	}
	first, err := GetSingleton(ctx, "postgres://stub", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("GetSingleton: %v", err)
	}
	second, err := GetSingleton(ctx, "postgres://other", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("GetSingleton again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same pool")
	}
}

func TestOpenUsesLambdaPoolInsideLambda(t *testing.T) {
	useStubDriver(t)
	resetShared(t)
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "docchat-api")

	database, err := Open(context.Background(), "postgres://stub")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := database.Stats().MaxOpenConnections; got != DefaultLambdaOptions().MaxOpenConns {
		t.Fatalf("MaxOpenConnections = %d, want lambda default", got)
	}
}

func TestOpenOutsideLambdaIsNotShared(t *testing.T) {
	useStubDriver(t)
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	a, err := Open(context.Background(), "postgres://stub")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	b, err := Open(context.Background(), "postgres://stub")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()
	if a == b {
		t.Fatal("expected separate pools outside lambda")
	}
}

func TestPing(t *testing.T) {
	if err := Ping(context.Background(), nil, time.Second); err != nil {
		t.Fatalf("nil database should be healthy, got %v", err)
	}
}

func TestMigrateNilDatabaseIsNoop(t *testing.T) {
	if err := Migrate(context.Background(), nil, "up"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	useStubDriver(t)

	database, err := Connect(context.Background(), "postgres://stub", DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	if err := Migrate(context.Background(), database, "sideways"); err == nil {
		t.Fatal("expected unknown command error")
	}
}
