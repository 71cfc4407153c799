// Package ledger provides the Double-Entry Ledger service: accounts, balanced
// transactions, reconciliation and category reports. It shares no aggregate
// with the asset, budget and allocation services.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/domain/ledger"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	"github.com/google/uuid"
)

const defaultActor = "system"

// CreateTransactionInput describes a new ledger transaction. A zero Date means now.
type CreateTransactionInput struct {
	Date        time.Time           `json:"date"`
	Description string              `json:"description" validate:"required"`
	Category    string              `json:"category" validate:"required"`
	CreatedBy   string              `json:"createdBy"`
	Entries     []ledger.EntryInput `json:"entries"`
	Metadata    map[string]any      `json:"metadata"`
}

// UpdateTransactionInput patches a ledger transaction. Nil fields are left
// unchanged; a non-nil Entries replaces the whole entry set.
type UpdateTransactionInput struct {
	Date        *time.Time          `json:"date"`
	Description *string             `json:"description"`
	Category    *string             `json:"category"`
	Entries     []ledger.EntryInput `json:"entries"`
	Metadata    map[string]any      `json:"metadata"`
	UpdatedBy   string              `json:"updatedBy"`
}

// TransactionPage is one page of FindTransactions.
type TransactionPage struct {
	Transactions []*ledger.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

// Mismatch is an account whose stored balance disagreed with its entries.
type Mismatch struct {
	AccountID uuid.UUID    `json:"accountId"`
	Stored    money.Amount `json:"stored"`
	Computed  money.Amount `json:"computed"`
}

// ReconcileResult summarises a reconciliation pass. Unreconciled lists every
// account with an outstanding discrepancy, including ones found earlier.
type ReconcileResult struct {
	AccountsChecked int         `json:"accountsChecked"`
	Mismatches      []Mismatch  `json:"mismatches"`
	Unreconciled    []uuid.UUID `json:"unreconciled"`
}

// Service is the Double-Entry Ledger.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new ledger Service.
func NewService(deps service.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.LoggerOrDefault().With("service", "ledger")}
}

// CreateAccount opens a zero-balance account.
func (s *Service) CreateAccount(ctx context.Context, name string) (*ledger.Account, error) {
	a, err := ledger.NewAccount(name)
	if err != nil {
		return nil, err
	}
	repo, err := s.uow.LedgerAccountRepository()
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, a); err != nil {
		s.logger.Error("CreateAccount failed", "name", name, "error", err)
		return nil, err
	}
	return a, nil
}

// GetAccount returns the account or a NotFound error.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	repo, err := s.uow.LedgerAccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// ListAccounts lists accounts by name.
func (s *Service) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	repo, err := s.uow.LedgerAccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// CreateTransaction records a balanced transaction, posts it to its accounts
// and writes an audit record, all in one unit of work. An unbalanced entry
// set is rejected before anything is written.
func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput) (tx *ledger.Transaction, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	actor := actorOrDefault(in.CreatedBy)
	tx, err = ledger.NewTransaction(date.UTC(), in.Description, in.Category, actor, in.Entries, in.Metadata)
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := post(ctx, uow, ledger.Postings(tx.Entries)); err != nil {
			return err
		}
		repo, err := uow.LedgerTransactionRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, tx); err != nil {
			return err
		}
		if err := audit(ctx, uow, tx.ID, ledger.AuditCreate, actor, snapshot(tx)); err != nil {
			return err
		}
		uow.Record(ledgerEvent(events.EventTypeLedgerTransactionCreated, tx, actor))
		return nil
	})
	if err != nil {
		s.logger.Error("CreateTransaction failed", "category", in.Category, "error", err)
		return nil, err
	}
	s.logger.Info("ledger transaction created", "transaction_id", tx.ID, "entries", len(tx.Entries))
	return tx, nil
}

// UpdateTransaction patches a transaction. Replacing the entries re-validates
// them, reverses the old postings and applies the new ones.
func (s *Service) UpdateTransaction(
	ctx context.Context,
	id uuid.UUID,
	in UpdateTransactionInput,
) (tx *ledger.Transaction, err error) {
	actor := actorOrDefault(in.UpdatedBy)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LedgerTransactionRepository()
		if err != nil {
			return err
		}
		tx, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := snapshot(tx)

		if in.Entries != nil {
			old := ledger.Postings(tx.Entries)
			if err := tx.ReplaceEntries(in.Entries); err != nil {
				return err
			}
			net := ledger.Postings(tx.Entries)
			for accountID, amount := range old {
				net[accountID] = net[accountID].Sub(amount)
			}
			if err := post(ctx, uow, net); err != nil {
				return err
			}
		}
		if in.Date != nil {
			tx.Date = in.Date.UTC()
		}
		if in.Description != nil {
			tx.Description = *in.Description
		}
		if in.Category != nil {
			tx.Category = *in.Category
		}
		if in.Metadata != nil {
			tx.Metadata = in.Metadata
		}
		tx.UpdatedAt = time.Now().UTC()

		if err := repo.Update(ctx, tx); err != nil {
			return err
		}
		changes := map[string]any{"before": before, "after": snapshot(tx)}
		if err := audit(ctx, uow, tx.ID, ledger.AuditUpdate, actor, changes); err != nil {
			return err
		}
		uow.Record(ledgerEvent(events.EventTypeLedgerTransactionUpdated, tx, actor))
		return nil
	})
	if err != nil {
		s.logger.Warn("UpdateTransaction failed", "transaction_id", id, "error", err)
		return nil, err
	}
	return tx, nil
}

// DeleteTransaction reverses a transaction's postings and removes it. The
// audit trail keeps a snapshot of what was deleted.
func (s *Service) DeleteTransaction(ctx context.Context, id uuid.UUID, deletedBy string) error {
	actor := actorOrDefault(deletedBy)
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LedgerTransactionRepository()
		if err != nil {
			return err
		}
		tx, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		reversal := ledger.Postings(tx.Entries)
		for accountID, amount := range reversal {
			reversal[accountID] = amount.Neg()
		}
		if err := post(ctx, uow, reversal); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		if err := audit(ctx, uow, id, ledger.AuditDelete, actor, snapshot(tx)); err != nil {
			return err
		}
		uow.Record(ledgerEvent(events.EventTypeLedgerTransactionDeleted, tx, actor))
		return nil
	})
	if err != nil {
		s.logger.Warn("DeleteTransaction failed", "transaction_id", id, "error", err)
	}
	return err
}

// GetTransaction returns the transaction with its entries.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	repo, err := s.uow.LedgerTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// FindTransactions searches transactions, newest first. page starts at 1 and
// limit defaults to 10.
func (s *Service) FindTransactions(
	ctx context.Context,
	filter repository.LedgerTransactionFilter,
	page, limit int,
) (*TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	repo, err := s.uow.LedgerTransactionRepository()
	if err != nil {
		return nil, err
	}
	txs, total, err := repo.Find(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	return &TransactionPage{Transactions: txs, Total: total, Page: page, Limit: limit}, nil
}

// ListAuditLogs returns the audit trail of a transaction, oldest first.
func (s *Service) ListAuditLogs(ctx context.Context, transactionID uuid.UUID) ([]*ledger.AuditLog, error) {
	repo, err := s.uow.AuditLogRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByEntity(ctx, transactionID)
}

// ReconcileTransactions recomputes every account from its entries. A stored
// balance that disagrees is overwritten and its difference kept as an
// outstanding discrepancy; every transaction touching an account with an
// outstanding discrepancy is marked unreconciled, all others reconciled.
// Running it twice without new postings changes nothing.
func (s *Service) ReconcileTransactions(ctx context.Context) (*ReconcileResult, error) {
	result := &ReconcileResult{}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.LedgerAccountRepository()
		if err != nil {
			return err
		}
		locked, err := accounts.ListForUpdate(ctx)
		if err != nil {
			return err
		}
		computed, err := accounts.ComputedBalances(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, a := range locked {
			stored := a.Balance
			if !stored.Equal(computed[a.ID]) {
				result.Mismatches = append(result.Mismatches, Mismatch{
					AccountID: a.ID, Stored: stored, Computed: computed[a.ID],
				})
			}
			if a.Reconcile(computed[a.ID], now) {
				result.Unreconciled = append(result.Unreconciled, a.ID)
			}
			if err := accounts.Update(ctx, a); err != nil {
				return err
			}
		}
		result.AccountsChecked = len(locked)

		txs, err := uow.LedgerTransactionRepository()
		if err != nil {
			return err
		}
		if err := txs.MarkReconciled(ctx, result.Unreconciled); err != nil {
			return err
		}

		evt := events.NewReconciledEvent()
		evt.AccountsChecked = result.AccountsChecked
		for _, m := range result.Mismatches {
			evt.MismatchAccounts = append(evt.MismatchAccounts, m.AccountID)
		}
		uow.Record(evt)
		return nil
	})
	if err != nil {
		s.logger.Error("ReconcileTransactions failed", "error", err)
		return nil, err
	}
	if len(result.Mismatches) > 0 {
		s.logger.Warn("ledger mismatches found", "accounts", len(result.Mismatches))
	}
	s.logger.Info("ledger reconciled", "checked", result.AccountsChecked, "unreconciled", len(result.Unreconciled))
	return result, nil
}

// AcknowledgeDiscrepancy clears an account's outstanding discrepancy. The
// next reconciliation then marks its transactions reconciled.
func (s *Service) AcknowledgeDiscrepancy(ctx context.Context, accountID uuid.UUID) (a *ledger.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LedgerAccountRepository()
		if err != nil {
			return err
		}
		a, err = repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.Discrepancy == nil {
			return nil
		}
		a.AcknowledgeDiscrepancy()
		return repo.Update(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GenerateReport nets credit minus debit per category over transactions
// dated within [start, end].
func (s *Service) GenerateReport(ctx context.Context, start, end time.Time) ([]ledger.ReportLine, error) {
	if end.Before(start) {
		return nil, domain.Validation("Report end date must not be before start date")
	}
	repo, err := s.uow.LedgerTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.Report(ctx, start.UTC(), end.UTC())
}

// post moves each account by its delta, locking rows in ascending id order.
func post(ctx context.Context, uow repository.UnitOfWork, postings map[uuid.UUID]money.Amount) error {
	repo, err := uow.LedgerAccountRepository()
	if err != nil {
		return err
	}
	for _, id := range ledger.SortedAccountIDs(postings) {
		a, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if postings[id].IsZero() {
			continue
		}
		a.Post(postings[id])
		if err := repo.Update(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func audit(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
	action ledger.AuditAction,
	actor string,
	changes map[string]any,
) error {
	repo, err := uow.AuditLogRepository()
	if err != nil {
		return err
	}
	return repo.Create(ctx, ledger.NewAuditLog(id, action, actor, changes))
}

func snapshot(tx *ledger.Transaction) map[string]any {
	entries := make([]map[string]any, 0, len(tx.Entries))
	for _, e := range tx.Entries {
		entries = append(entries, map[string]any{
			"accountId": e.AccountID.String(),
			"type":      string(e.Type),
			"amount":    e.Amount.String(),
		})
	}
	return map[string]any{
		"date":        tx.Date.Format(time.RFC3339),
		"description": tx.Description,
		"category":    tx.Category,
		"entries":     entries,
	}
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

func ledgerEvent(t events.EventType, tx *ledger.Transaction, actor string) *events.LedgerEvent {
	evt := events.NewLedgerEvent(t)
	evt.TransactionID = tx.ID
	evt.Category = tx.Category
	evt.Actor = actor
	return evt
}
