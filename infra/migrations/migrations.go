// Package migrations owns the schema. PostgreSQL is migrated with versioned
// SQL files; SQLite, used for local runs and tests, is auto-migrated from the
// gorm models.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/treasury/infra/repository"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var files embed.FS

// Run brings the schema of db up to date.
func Run(db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	switch db.Dialector.Name() {
	case "sqlite":
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info("sqlite schema auto-migrated")
		return nil
	case "postgres":
		return up(db, logger)
	default:
		return fmt.Errorf("unsupported dialect %q", db.Dialector.Name())
	}
}

func up(db *gorm.DB, logger *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}
	source, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("postgres schema migrated", "version", version, "dirty", dirty)
	return nil
}
