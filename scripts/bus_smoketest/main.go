// Command bus_smoketest emits one event through the configured event bus
// (EVENT_BUS_DRIVER=redis or kafka) and waits for it to come back, to check a
// local broker before starting treasuryd.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/amirasaad/treasury/infra"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// RunSmokeTest round-trips a Budget.Created event through the bus.
func RunSmokeTest(ctx context.Context, cfg *config.EventBus, logger *slog.Logger) error {
	bus, closer, err := infra.NewEventBus(cfg, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	sent := events.NewBudgetEvent(events.EventTypeBudgetCreated)
	sent.BudgetID = uuid.New()
	sent.Name = "smoke-test"
	sent.Status = "DRAFT"
	sent.TotalAmount = money.MustParse("1.000000000000000001")

	received := make(chan *events.BudgetEvent, 1)
	bus.Register(events.EventTypeBudgetCreated, func(_ context.Context, e events.Event) error {
		if b, ok := e.(*events.BudgetEvent); ok && b.BudgetID == sent.BudgetID {
			select {
			case received <- b:
			default:
			}
		}
		return nil
	})

	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "event", sent.Type(), "budget_id", sent.BudgetID)

	select {
	case got := <-received:
		if !got.TotalAmount.Equal(sent.TotalAmount) {
			return errors.New("amount lost precision in transit: " + got.TotalAmount.String())
		}
		logger.Info("consumed", "event", got.Type(), "budget_id", got.BudgetID)
	case <-ctx.Done():
		logger.Error("no event received", "error", ctx.Err())
		return ctx.Err()
	}
	logger.Info("event bus smoke test passed", "driver", cfg.Driver)
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := RunSmokeTest(ctx, cfg.EventBus, logger); err != nil {
		os.Exit(1)
	}
}
