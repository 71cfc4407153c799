// Command treasuryd runs the treasury engine's background work: the
// housekeeping sweep on its cron schedule and the event bus consumers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/treasury/infra/initializer"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/provider"
	"github.com/amirasaad/treasury/pkg/scheduler"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Logger.Error("shutdown failed", "error", err)
		}
	}()
	logger := deps.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := provider.AllHealthy(checkCtx, deps.HealthChecks()...); err != nil {
		logger.Warn("dependency health check failed", "error", err)
	}
	cancel()

	if cfg.Housekeeping != nil && cfg.Housekeeping.Enabled {
		if err := deps.Housekeeping(ctx); err != nil {
			logger.Warn("initial housekeeping failed", "error", err)
		}
		task, err := scheduler.NewScheduledTask(
			"housekeeping",
			cfg.Housekeeping.Schedule,
			time.Minute,
			deps.Housekeeping,
			logger,
		)
		if err != nil {
			return fmt.Errorf("invalid housekeeping schedule %q: %w", cfg.Housekeeping.Schedule, err)
		}
		defer task.Cancel()
		logger.Info("housekeeping scheduled", "next", task.Next())
	}

	logger.Info("treasuryd running", "env", cfg.Env)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
