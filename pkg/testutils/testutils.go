// Package testutils builds databases and service dependencies for tests.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirasaad/treasury/infra"
	infraeventbus "github.com/amirasaad/treasury/infra/eventbus"
	"github.com/amirasaad/treasury/infra/migrations"
	"github.com/amirasaad/treasury/infra/provider/stuboracle"
	infrarepo "github.com/amirasaad/treasury/infra/repository"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/service"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// Env is a migrated database with the infrastructure services are built from.
type Env struct {
	DB     *gorm.DB
	Bus    *infraeventbus.MemoryEventBus
	Uow    *infrarepo.UoW
	Oracle *stuboracle.Oracle
	Logger *slog.Logger
}

// Deps returns service dependencies backed by the environment.
func (e *Env) Deps() service.Deps {
	return service.Deps{Uow: e.Uow, Oracle: e.Oracle, Logger: e.Logger}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteEnv builds an Env on a fresh SQLite file under t.TempDir().
func NewSQLiteEnv(t *testing.T) *Env {
	t.Helper()
	return newEnv(t, NewSQLiteDB(t))
}

// NewPostgresEnv builds an Env on a throwaway PostgreSQL container.
func NewPostgresEnv(t *testing.T) *Env {
	t.Helper()
	return newEnv(t, NewPostgresDB(t))
}

func newEnv(t *testing.T, db *gorm.DB) *Env {
	t.Helper()
	logger := DiscardLogger()
	bus := infraeventbus.NewWithMemory(logger)
	return &Env{
		DB:     db,
		Bus:    bus,
		Uow:    infrarepo.NewUoW(db, bus, logger),
		Oracle: stuboracle.New(),
		Logger: logger,
	}
}

// NewSQLiteDB opens and migrates a SQLite database file.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treasury.db") + "?_foreign_keys=on"
	db, err := infra.NewDBConnection(&config.DB{Driver: "sqlite", Url: path}, "test")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := migrations.Run(db, DiscardLogger()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewPostgresDB starts PostgreSQL with testcontainers and runs the versioned
// migrations against it.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := startPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get Postgres DSN: %v", err)
	}
	db, err := infra.NewDBConnection(&config.DB{Driver: "postgres", Url: dsn, MaxOpenConns: 10}, "test")
	if err != nil {
		t.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := migrations.Run(db, DiscardLogger()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}
