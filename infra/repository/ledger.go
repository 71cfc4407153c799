package repository

import (
	"context"
	"sort"
	"time"

	"github.com/amirasaad/treasury/pkg/domain/ledger"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerAccountRepository struct {
	store store[LedgerAccount]
}

// NewLedgerAccountRepository returns a LedgerAccountRepository bound to db.
func NewLedgerAccountRepository(db *gorm.DB) repository.LedgerAccountRepository {
	return &ledgerAccountRepository{store: newStore[LedgerAccount](db, "Account")}
}

func (r *ledgerAccountRepository) Get(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAccountToDomain(m), nil
}

func (r *ledgerAccountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAccountToDomain(m), nil
}

func (r *ledgerAccountRepository) List(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	})
	if err != nil {
		return nil, err
	}
	return mapAccounts(rows), nil
}

func (r *ledgerAccountRepository) ListForUpdate(ctx context.Context) ([]*ledger.Account, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id ASC")
	})
	if err != nil {
		return nil, err
	}
	return mapAccounts(rows), nil
}

// ComputedBalances loads every entry and nets it per account in Go, so the
// result keeps full decimal precision on every dialect.
func (r *ledgerAccountRepository) ComputedBalances(ctx context.Context) (map[uuid.UUID]money.Amount, error) {
	var rows []LedgerEntry
	err := WrapError(func() error {
		return r.store.session(ctx).
			Model(&LedgerEntry{}).
			Select("account_id", "type", "amount").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]money.Amount)
	for i := range rows {
		out[rows[i].AccountID] = out[rows[i].AccountID].Add(mapEntryToDomain(&rows[i]).Signed())
	}
	return out, nil
}

func (r *ledgerAccountRepository) Create(ctx context.Context, a *ledger.Account) error {
	return r.store.create(ctx, mapAccountToModel(a))
}

func (r *ledgerAccountRepository) Update(ctx context.Context, a *ledger.Account) error {
	return r.store.save(ctx, mapAccountToModel(a))
}

func mapAccounts(rows []LedgerAccount) []*ledger.Account {
	out := make([]*ledger.Account, 0, len(rows))
	for i := range rows {
		out = append(out, mapAccountToDomain(&rows[i]))
	}
	return out
}

func mapAccountToModel(a *ledger.Account) *LedgerAccount {
	m := &LedgerAccount{
		ID:           a.ID,
		Name:         a.Name,
		Balance:      toDecimal(a.Balance),
		ReconciledAt: a.ReconciledAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	m.Discrepancy = optionalDecimal(a.Discrepancy)
	return m
}

func mapAccountToDomain(m *LedgerAccount) *ledger.Account {
	return &ledger.Account{
		ID:           m.ID,
		Name:         m.Name,
		Balance:      m.Balance.Amount(),
		Discrepancy:  optionalAmount(m.Discrepancy),
		ReconciledAt: m.ReconciledAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type ledgerTransactionRepository struct {
	store store[LedgerTransaction]
}

// NewLedgerTransactionRepository returns a LedgerTransactionRepository bound to db.
func NewLedgerTransactionRepository(db *gorm.DB) repository.LedgerTransactionRepository {
	return &ledgerTransactionRepository{store: newStore[LedgerTransaction](db, "Transaction")}
}

func (r *ledgerTransactionRepository) Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var m LedgerTransaction
	err := r.store.session(ctx).Preload("Entries").First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, r.store.entity, id)
	}
	return mapLedgerTxToDomain(&m), nil
}

func (r *ledgerTransactionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.session(ctx).Where("transaction_id = ?", id).Find(&m.Entries).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapLedgerTxToDomain(m), nil
}

func ledgerScope(filter repository.LedgerTransactionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.StartDate != nil || filter.EndDate != nil {
			start, end := time.Unix(0, 0).UTC(), time.Now().UTC()
			if filter.StartDate != nil {
				start = *filter.StartDate
			}
			if filter.EndDate != nil {
				end = *filter.EndDate
			}
			db = db.Where("date BETWEEN ? AND ?", start, end)
		}
		if filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		if filter.Description != "" {
			db = db.Where("description LIKE ?", "%"+filter.Description+"%")
		}
		if filter.AccountID != nil {
			db = db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&LedgerEntry{}).
				Select("transaction_id").
				Where("account_id = ?", *filter.AccountID))
		}
		return db
	}
}

func (r *ledgerTransactionRepository) Find(
	ctx context.Context,
	filter repository.LedgerTransactionFilter,
	page, limit int,
) ([]*ledger.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	scope := ledgerScope(filter)
	total, err := r.store.count(ctx, scope)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return scope(db).
			Preload("Entries").
			Order("date DESC").
			Order("id").
			Offset((page - 1) * limit).
			Limit(limit)
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]*ledger.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mapLedgerTxToDomain(&rows[i]))
	}
	return out, total, nil
}

func (r *ledgerTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	m := mapLedgerTxToModel(tx)
	if err := r.store.create(ctx, m); err != nil {
		return err
	}
	return r.insertEntries(ctx, m.Entries)
}

func (r *ledgerTransactionRepository) Update(ctx context.Context, tx *ledger.Transaction) error {
	m := mapLedgerTxToModel(tx)
	if err := r.store.save(ctx, m); err != nil {
		return err
	}
	if err := r.deleteEntries(ctx, tx.ID); err != nil {
		return err
	}
	return r.insertEntries(ctx, m.Entries)
}

func (r *ledgerTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.deleteEntries(ctx, id); err != nil {
		return err
	}
	return r.store.delete(ctx, id)
}

func (r *ledgerTransactionRepository) insertEntries(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return WrapError(func() error {
		return r.store.session(ctx).Omit(clause.Associations).Create(&entries).Error
	})
}

func (r *ledgerTransactionRepository) deleteEntries(ctx context.Context, txID uuid.UUID) error {
	return WrapError(func() error {
		return r.store.session(ctx).Where("transaction_id = ?", txID).Delete(&LedgerEntry{}).Error
	})
}

func (r *ledgerTransactionRepository) MarkReconciled(ctx context.Context, unreconciled []uuid.UUID) error {
	return WrapError(func() error {
		db := r.store.session(ctx)
		if err := db.Model(&LedgerTransaction{}).
			Where("1 = 1").
			Update("reconciled", true).Error; err != nil {
			return err
		}
		if len(unreconciled) == 0 {
			return nil
		}
		touched := r.store.session(ctx).
			Model(&LedgerEntry{}).
			Select("transaction_id").
			Where("account_id IN ?", unreconciled)
		return db.Model(&LedgerTransaction{}).
			Where("id IN (?)", touched).
			Update("reconciled", false).Error
	})
}

// Report nets entries per category for transactions dated within [start, end].
func (r *ledgerTransactionRepository) Report(ctx context.Context, start, end time.Time) ([]ledger.ReportLine, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Entries").Where("date BETWEEN ? AND ?", start, end)
	})
	if err != nil {
		return nil, err
	}
	totals := make(map[string]money.Amount)
	for i := range rows {
		for j := range rows[i].Entries {
			totals[rows[i].Category] = totals[rows[i].Category].Add(mapEntryToDomain(&rows[i].Entries[j]).Signed())
		}
	}
	out := make([]ledger.ReportLine, 0, len(totals))
	for category, total := range totals {
		out = append(out, ledger.ReportLine{Category: category, TotalAmount: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func mapLedgerTxToModel(tx *ledger.Transaction) *LedgerTransaction {
	m := &LedgerTransaction{
		ID:          tx.ID,
		Date:        tx.Date,
		Description: tx.Description,
		Category:    tx.Category,
		CreatedBy:   tx.CreatedBy,
		Reconciled:  tx.Reconciled,
		Metadata:    tx.Metadata,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
	for _, e := range tx.Entries {
		m.Entries = append(m.Entries, LedgerEntry{
			ID:            e.ID,
			TransactionID: tx.ID,
			AccountID:     e.AccountID,
			Type:          string(e.Type),
			Amount:        toDecimal(e.Amount),
		})
	}
	return m
}

func mapLedgerTxToDomain(m *LedgerTransaction) *ledger.Transaction {
	tx := &ledger.Transaction{
		ID:          m.ID,
		Date:        m.Date,
		Description: m.Description,
		Category:    m.Category,
		CreatedBy:   m.CreatedBy,
		Reconciled:  m.Reconciled,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Entries {
		tx.Entries = append(tx.Entries, *mapEntryToDomain(&m.Entries[i]))
	}
	return tx
}

func mapEntryToDomain(m *LedgerEntry) *ledger.Entry {
	return &ledger.Entry{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Type:          ledger.EntryType(m.Type),
		Amount:        m.Amount.Amount(),
	}
}

type auditLogRepository struct {
	store store[AuditLog]
}

// NewAuditLogRepository returns an AuditLogRepository bound to db.
func NewAuditLogRepository(db *gorm.DB) repository.AuditLogRepository {
	return &auditLogRepository{store: newStore[AuditLog](db, "AuditLog")}
}

func (r *auditLogRepository) Create(ctx context.Context, log *ledger.AuditLog) error {
	return r.store.create(ctx, &AuditLog{
		ID:         log.ID,
		EntityName: log.EntityName,
		EntityID:   log.EntityID,
		Action:     string(log.Action),
		Changes:    log.Changes,
		Actor:      log.Actor,
		Timestamp:  log.Timestamp,
	})
}

func (r *auditLogRepository) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*ledger.AuditLog, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("entity_id = ?", entityID).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}})
	})
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.AuditLog, 0, len(rows))
	for _, m := range rows {
		out = append(out, &ledger.AuditLog{
			ID:         m.ID,
			EntityName: m.EntityName,
			EntityID:   m.EntityID,
			Action:     ledger.AuditAction(m.Action),
			Changes:    m.Changes,
			Actor:      m.Actor,
			Timestamp:  m.Timestamp,
		})
	}
	return out, nil
}
