package repository

import (
	"context"

	"github.com/amirasaad/treasury/pkg/domain/events"
)

// UnitOfWork defines the contract for transactional work and repository access.
//
// Every repository returned by a UnitOfWork passed to Do shares the same
// database transaction. Events recorded with Record are emitted, in recording
// order, only after that transaction commits.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error
	// the transaction is rolled back and recorded events are discarded.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// Record queues an event for emission after commit.
	Record(evt events.Event)

	AssetRepository() (AssetRepository, error)
	AssetTransactionRepository() (AssetTransactionRepository, error)
	BudgetRepository() (BudgetRepository, error)
	AllocationRepository() (AllocationRepository, error)
	AllocationTransactionRepository() (AllocationTransactionRepository, error)
	LedgerAccountRepository() (LedgerAccountRepository, error)
	LedgerTransactionRepository() (LedgerTransactionRepository, error)
	AuditLogRepository() (AuditLogRepository, error)
}
