// Package ledger is the double-entry sub-ledger: accounts, balanced
// transactions of debit and credit entries, reconciliation and audit records.
//
// Account balances follow the credit-normal convention used throughout the
// package: balance = sum(credits) - sum(debits).
package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// EntryType is the side of a ledger entry.
type EntryType string

const (
	Debit  EntryType = "debit"
	Credit EntryType = "credit"
)

// Account is a general-ledger account.
//
// Discrepancy is set by reconciliation when the stored balance disagrees with
// the entries. It stays set until acknowledged.
type Account struct {
	ID           uuid.UUID
	Name         string
	Balance      money.Amount
	Discrepancy  *money.Amount
	ReconciledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount returns a zero-balance account.
func NewAccount(name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("Account name is required")
	}
	now := time.Now().UTC()
	return &Account{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// Post moves the balance by delta.
func (a *Account) Post(delta money.Amount) {
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now().UTC()
}

// Reconcile compares the stored balance with computed. On a mismatch the
// stored balance is overwritten and the difference is added to the
// outstanding discrepancy. It reports whether the account is unreconciled,
// which stays true while a discrepancy is outstanding.
func (a *Account) Reconcile(computed money.Amount, at time.Time) bool {
	if !a.Balance.Equal(computed) {
		diff := a.Balance.Sub(computed)
		if a.Discrepancy != nil {
			diff = diff.Add(*a.Discrepancy)
		}
		a.Discrepancy = &diff
		a.Balance = computed
		a.UpdatedAt = at
	}
	a.ReconciledAt = &at
	return a.Discrepancy != nil
}

// AcknowledgeDiscrepancy clears an outstanding discrepancy.
func (a *Account) AcknowledgeDiscrepancy() {
	a.Discrepancy = nil
	a.UpdatedAt = time.Now().UTC()
}

// Entry is one side of a ledger transaction.
type Entry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Type          EntryType
	Amount        money.Amount
}

// Signed returns +amount for credits and -amount for debits.
func (e Entry) Signed() money.Amount {
	if e.Type == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// EntryInput describes an entry before it is attached to a transaction.
type EntryInput struct {
	AccountID uuid.UUID    `json:"accountId" validate:"required"`
	Type      EntryType    `json:"type" validate:"required,oneof=debit credit"`
	Amount    money.Amount `json:"amount"`
}

// ValidateEntries enforces at least one entry, positive amounts and
// sum(debit) == sum(credit).
func ValidateEntries(entries []EntryInput) error {
	if len(entries) == 0 {
		return domain.Validation("At least one ledger entry is required")
	}
	debits, credits := money.Zero, money.Zero
	for _, e := range entries {
		if e.AccountID == uuid.Nil {
			return domain.Validation("Ledger entry account is required")
		}
		if !e.Amount.IsPositive() {
			return domain.Validation("Ledger entry amount must be positive")
		}
		switch e.Type {
		case Debit:
			debits = debits.Add(e.Amount)
		case Credit:
			credits = credits.Add(e.Amount)
		default:
			return domain.Validation("Invalid ledger entry type: %s", e.Type)
		}
	}
	if !debits.Equal(credits) {
		return domain.Validation("Debits must equal credits for double-entry bookkeeping. Debits: %s, Credits: %s",
			debits, credits)
	}
	return nil
}

// Transaction groups balanced entries.
type Transaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Category    string
	CreatedBy   string
	Reconciled  bool
	Metadata    map[string]any
	Entries     []Entry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction validates entries and builds a transaction.
func NewTransaction(
	date time.Time,
	description, category, createdBy string,
	entries []EntryInput,
	metadata map[string]any,
) (*Transaction, error) {
	if date.IsZero() {
		return nil, domain.Validation("Transaction date is required")
	}
	now := time.Now().UTC()
	tx := &Transaction{
		ID:          uuid.New(),
		Date:        date,
		Description: description,
		Category:    category,
		CreatedBy:   createdBy,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.ReplaceEntries(entries); err != nil {
		return nil, err
	}
	return tx, nil
}

// ReplaceEntries validates and swaps the entry set.
func (t *Transaction) ReplaceEntries(entries []EntryInput) error {
	if err := ValidateEntries(entries); err != nil {
		return err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			ID:            uuid.New(),
			TransactionID: t.ID,
			AccountID:     e.AccountID,
			Type:          e.Type,
			Amount:        e.Amount,
		})
	}
	t.Entries = out
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Postings nets entries per account.
func Postings(entries []Entry) map[uuid.UUID]money.Amount {
	out := make(map[uuid.UUID]money.Amount)
	for _, e := range entries {
		out[e.AccountID] = out[e.AccountID].Add(e.Signed())
	}
	return out
}

// SortedAccountIDs returns the keys of postings in ascending order, the order
// in which account rows are locked.
func SortedAccountIDs(postings map[uuid.UUID]money.Amount) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(postings))
	for id := range postings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// AuditAction is the kind of change an audit record describes.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditLog records a change to a ledger transaction.
type AuditLog struct {
	ID         uuid.UUID
	EntityName string
	EntityID   uuid.UUID
	Action     AuditAction
	Changes    map[string]any
	Actor      string
	Timestamp  time.Time
}

// NewAuditLog stamps an audit record for a ledger transaction.
func NewAuditLog(entityID uuid.UUID, action AuditAction, actor string, changes map[string]any) *AuditLog {
	return &AuditLog{
		ID:         uuid.New(),
		EntityName: "Transaction",
		EntityID:   entityID,
		Action:     action,
		Changes:    changes,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
	}
}

// ReportLine is the signed total of one category.
type ReportLine struct {
	Category    string       `json:"category"`
	TotalAmount money.Amount `json:"totalAmount"`
}
