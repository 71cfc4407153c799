package initializer

import (
	"context"
	"log/slog"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/amirasaad/treasury/pkg/service/treasury"
)

// dashboardEvents change what the overview and risk metrics report.
var dashboardEvents = []events.EventType{
	events.EventTypeAssetCreated,
	events.EventTypeAssetUpdated,
	events.EventTypeAssetDeactivated,
	events.EventTypeBudgetCreated,
	events.EventTypeBudgetStatusChanged,
	events.EventTypeBudgetDeleted,
	events.EventTypeAllocationCreated,
	events.EventTypeAllocationStatusChanged,
	events.EventTypeAllocationDisbursed,
	events.EventTypeAllocationDeleted,
	events.EventTypeAssetTransactionRecorded,
	events.EventTypeAssetTransactionStatusChanged,
}

// registerSubscribers logs every delivered event once and drops cached
// dashboards when a change affects them.
func registerSubscribers(bus eventbus.Bus, svc *treasury.Service, logger *slog.Logger) {
	tracker := eventbus.NewIdempotencyTracker()
	audit := func(_ context.Context, e events.Event) error {
		logger.Info("event delivered", "event_type", e.Type())
		return nil
	}
	invalidate := func(ctx context.Context, _ events.Event) error {
		svc.InvalidateDashboards(ctx)
		return nil
	}

	for eventType := range events.Factories() {
		bus.Register(eventType, eventbus.WithIdempotency(audit, tracker, eventbus.ByEventID, "audit", logger))
	}
	for _, eventType := range dashboardEvents {
		bus.Register(eventType, invalidate)
	}
}
