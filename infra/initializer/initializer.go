// Package initializer wires configuration into a running set of services.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/amirasaad/treasury/infra"
	"github.com/amirasaad/treasury/infra/migrations"
	infrarepo "github.com/amirasaad/treasury/infra/repository"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/amirasaad/treasury/pkg/provider"
	"github.com/amirasaad/treasury/pkg/provider/blockchain"
	"github.com/amirasaad/treasury/pkg/service"
	ledgersvc "github.com/amirasaad/treasury/pkg/service/ledger"
	"github.com/amirasaad/treasury/pkg/service/treasury"
	"gorm.io/gorm"
)

// Deps is everything a binary needs to serve treasury operations.
type Deps struct {
	Logger   *slog.Logger
	DB       *gorm.DB
	Bus      eventbus.Bus
	Oracle   blockchain.Oracle
	Treasury *treasury.Service
	Ledger   *ledgersvc.Service

	closers []infra.Closer
}

// InitializeDependencies connects to the database, runs migrations when
// enabled and builds the bus, oracle, cache and services from cfg.
func InitializeDependencies(cfg *config.App) (deps *Deps, err error) {
	logger := setupLogger(cfg.Log, os.Stdout)
	deps = &Deps{Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	deps.DB, err = infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return deps, err
	}
	if cfg.DB.Migrate {
		if err = migrations.Run(deps.DB, logger); err != nil {
			return deps, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var closer infra.Closer
	deps.Bus, closer, err = infra.NewEventBus(cfg.EventBus, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create event bus: %w", err)
	}
	deps.track(closer)

	deps.Oracle, err = infra.NewOracle(cfg.Oracle, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create blockchain oracle: %w", err)
	}

	loader, closer, err := infra.NewCache(cfg.Cache, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to create cache: %w", err)
	}
	deps.track(closer)

	svcDeps := service.Deps{
		Uow:    infrarepo.NewUoW(deps.DB, deps.Bus, logger),
		Oracle: deps.Oracle,
		Cache:  loader,
		Logger: logger,
	}
	deps.Treasury = treasury.NewService(svcDeps)
	deps.Ledger = ledgersvc.NewService(svcDeps)

	registerSubscribers(deps.Bus, deps.Treasury, logger)
	logger.Info("Dependencies initialized", "env", cfg.Env, "db", cfg.DB.Driver)
	return deps, nil
}

func (d *Deps) track(c infra.Closer) {
	if c != nil {
		d.closers = append(d.closers, c)
	}
}

// Close releases the bus, cache and database in reverse order of creation.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// HealthChecks probes the database and the blockchain oracle.
func (d *Deps) HealthChecks() []provider.HealthChecker {
	return []provider.HealthChecker{
		provider.CheckFunc{ID: "database", Check: func(ctx context.Context) error {
			sqlDB, err := d.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		provider.CheckFunc{ID: "oracle", Check: func(ctx context.Context) error {
			_, err := d.Oracle.BlockNumber(ctx)
			return err
		}},
	}
}

// Housekeeping is the job the scheduler runs.
func (d *Deps) Housekeeping(ctx context.Context) error {
	_, err := d.Treasury.PerformHousekeeping(ctx)
	return err
}
