package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/eventbus"
	"github.com/amirasaad/treasury/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories obtained from the UoW passed to Do share its
// transaction; outside Do they run on the plain connection.
type UoW struct {
	db     *gorm.DB
	tx     *gorm.DB
	bus    eventbus.Bus
	logger *slog.Logger

	pending *[]events.Event
}

// NewUoW creates a new UoW for the given *gorm.DB. bus may be nil, in which
// case recorded events are dropped.
func NewUoW(db *gorm.DB, bus eventbus.Bus, logger *slog.Logger) *UoW {
	if logger == nil {
		logger = slog.Default()
	}
	return &UoW{db: db, bus: bus, logger: logger.With("component", "uow")}
}

// Do runs fn in a transaction. A UoW that is already inside a transaction
// joins it, and its events are emitted by the outermost Do.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}

	var pending []events.Event
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, bus: u.bus, logger: u.logger, pending: &pending})
	})
	if err != nil {
		if domain.IsKnown(err) {
			return err
		}
		u.logger.Error("unit of work failed", "error", err)
		return domain.Database("transaction", err)
	}

	u.publish(ctx, pending)
	return nil
}

func (u *UoW) publish(ctx context.Context, pending []events.Event) {
	if u.bus == nil {
		return
	}
	for _, evt := range pending {
		if err := u.bus.Emit(ctx, evt); err != nil {
			u.logger.Warn("event publish failed", "event", evt.Type(), "error", err)
		}
	}
}

// Record queues evt until the surrounding transaction commits. Outside Do it
// is emitted immediately.
func (u *UoW) Record(evt events.Event) {
	if evt == nil {
		return
	}
	if u.pending == nil {
		u.publish(context.Background(), []events.Event{evt})
		return
	}
	*u.pending = append(*u.pending, evt)
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

var errNoDatabase = errors.New("unit of work has no database")

func (u *UoW) check() error {
	if u.session() == nil {
		return domain.Database("repository", errNoDatabase)
	}
	return nil
}

// AssetRepository returns an asset store bound to the current session.
func (u *UoW) AssetRepository() (repository.AssetRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewAssetRepository(u.session()), nil
}

func (u *UoW) AssetTransactionRepository() (repository.AssetTransactionRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewAssetTransactionRepository(u.session()), nil
}

func (u *UoW) BudgetRepository() (repository.BudgetRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewBudgetRepository(u.session()), nil
}

func (u *UoW) AllocationRepository() (repository.AllocationRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewAllocationRepository(u.session()), nil
}

func (u *UoW) AllocationTransactionRepository() (repository.AllocationTransactionRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewAllocationTransactionRepository(u.session()), nil
}

func (u *UoW) LedgerAccountRepository() (repository.LedgerAccountRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewLedgerAccountRepository(u.session()), nil
}

func (u *UoW) LedgerTransactionRepository() (repository.LedgerTransactionRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewLedgerTransactionRepository(u.session()), nil
}

func (u *UoW) AuditLogRepository() (repository.AuditLogRepository, error) {
	if err := u.check(); err != nil {
		return nil, err
	}
	return NewAuditLogRepository(u.session()), nil
}
