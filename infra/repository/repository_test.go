package repository

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/domain/ledger"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAsset(t *testing.T, repo repository.AssetRepository, symbol string, b *asset.Builder) *asset.Asset {
	t.Helper()
	a, err := b.WithName(symbol + " asset").WithSymbol(symbol).Build()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestAssetRepository_RoundTripKeepsPrecision(t *testing.T) {
	ctx := context.Background()
	repo := NewAssetRepository(newSQLiteDB(t))

	balance := money.MustParse("123456789012345678.123456789012345678")
	a := createAsset(t, repo, "ETH", asset.New().
		WithBalance(balance, money.MustParse("0.000000000000000001")).
		WithMetadata(map[string]any{"network": "mainnet"}))

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(got.Balance))
	assert.Equal(t, "0.000000000000000001", got.AllocatedBalance.String())
	assert.Equal(t, "mainnet", got.Metadata["network"])
	assert.True(t, got.IsActive)
}

func TestAssetRepository_FindBySymbolAndContract(t *testing.T) {
	ctx := context.Background()
	repo := NewAssetRepository(newSQLiteDB(t))

	native := createAsset(t, repo, "ETH", asset.New())
	token := createAsset(t, repo, "ETH", asset.New().WithType(asset.TypeToken).WithContract("0xabc", "SN_MAIN"))

	got, err := repo.FindBySymbolAndContract(ctx, "ETH", nil)
	require.NoError(t, err)
	assert.Equal(t, native.ID, got.ID)

	contract := "0xabc"
	got, err = repo.FindBySymbolAndContract(ctx, "ETH", &contract)
	require.NoError(t, err)
	assert.Equal(t, token.ID, got.ID)

	_, err = repo.FindBySymbolAndContract(ctx, "STRK", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssetRepository_ListHidesInactive(t *testing.T) {
	ctx := context.Background()
	repo := NewAssetRepository(newSQLiteDB(t))

	createAsset(t, repo, "ETH", asset.New())
	gone := createAsset(t, repo, "USDC", asset.New())
	gone.Deactivate()
	require.NoError(t, repo.Update(ctx, gone))

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "ETH", active[0].Symbol)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAssetTransactionRepository_VolumeAndPending(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	assets := NewAssetRepository(db)
	txs := NewAssetTransactionRepository(db)

	a := createAsset(t, assets, "ETH", asset.New())
	record := func(typ asset.TransactionType, amount string, status asset.TransactionStatus, hash string) {
		tx, err := asset.NewTransaction(a.ID, typ, money.MustParse(amount))
		require.NoError(t, err)
		tx.Status = status
		if hash != "" {
			tx.BlockchainTxHash = &hash
		}
		require.NoError(t, txs.Create(ctx, tx))
	}
	record(asset.TransactionDeposit, "10.5", asset.StatusConfirmed, "")
	record(asset.TransactionDeposit, "0.25", asset.StatusConfirmed, "")
	record(asset.TransactionWithdrawal, "3", asset.StatusConfirmed, "")
	record(asset.TransactionDeposit, "100", asset.StatusPending, "0x1")
	record(asset.TransactionWithdrawal, "7", asset.StatusFailed, "")
	record(asset.TransactionDeposit, "1", asset.StatusPending, "")

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	v, err := txs.Volume(ctx, &a.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, "10.75", v.Deposits.String())
	assert.Equal(t, "3", v.Withdrawals.String())

	pending, err := txs.ListPendingWithHash(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "100", pending[0].Amount.String())

	confirmed, err := txs.List(ctx, repository.AssetTransactionFilter{Status: asset.StatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 3)
}

func TestBudgetRepository_ListExpiredForUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewBudgetRepository(newSQLiteDB(t))

	past := time.Now().UTC().Add(-48 * time.Hour)
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	tomorrow := time.Now().UTC().Add(24 * time.Hour)

	mk := func(name string, status budget.Status, end *time.Time) *budget.Budget {
		b, err := budget.New().
			WithName(name).
			WithTotal(money.FromInt(10)).
			WithStatus(status).
			WithPeriod(&past, end).
			Build()
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, b))
		return b
	}
	expired := mk("expired", budget.StatusActive, &yesterday)
	mk("running", budget.StatusActive, &tomorrow)
	mk("draft", budget.StatusDraft, &yesterday)
	mk("open ended", budget.StatusActive, nil)

	got, err := repo.ListExpiredForUpdate(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expired.ID, got[0].ID)

	n, err := repo.Count(ctx, budget.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAllocationRepository_ApprovalRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	a := createAsset(t, NewAssetRepository(db), "ETH", asset.New().WithBalance(money.FromInt(100), money.Zero))
	b, err := budget.New().WithName("Grants").WithTotal(money.FromInt(100)).WithStatus(budget.StatusActive).Build()
	require.NoError(t, err)
	require.NoError(t, NewBudgetRepository(db).Create(ctx, b))

	repo := NewAllocationRepository(db)
	log := NewAllocationTransactionRepository(db)

	alloc, err := allocation.New().
		WithTitle("Audit").
		WithBudget(b.ID).
		WithAsset(a.ID).
		WithAmount(money.FromInt(25)).
		Build()
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, alloc))

	got, err := repo.Get(ctx, alloc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Approval)

	_, err = got.TransitionTo(allocation.StatusApproved, "alice", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, got))
	require.NoError(t, log.Append(ctx, allocation.NewTransaction(got.ID, allocation.TransactionAllocation, got.Amount, "alice")))

	got, err = repo.GetForUpdate(ctx, alloc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Approval)
	assert.Equal(t, "alice", got.Approval.By)
	assert.Equal(t, allocation.StatusApproved, got.Status)

	history, err := log.ListByAllocation(ctx, alloc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, allocation.TransactionAllocation, history[0].Type)

	n, err := repo.Count(ctx, repository.AllocationFilter{Status: allocation.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, log.DeleteByAllocation(ctx, alloc.ID))
	require.NoError(t, repo.Delete(ctx, alloc.ID))
	_, err = repo.Get(ctx, alloc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func newLedgerAccounts(t *testing.T, repo repository.LedgerAccountRepository, names ...string) []*ledger.Account {
	t.Helper()
	out := make([]*ledger.Account, 0, len(names))
	for _, name := range names {
		a, err := ledger.NewAccount(name)
		require.NoError(t, err)
		require.NoError(t, repo.Create(context.Background(), a))
		out = append(out, a)
	}
	return out
}

func postLedger(
	t *testing.T,
	repo repository.LedgerTransactionRepository,
	date time.Time,
	category, description string,
	debit, credit uuid.UUID,
	amount string,
) *ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewTransaction(date, description, category, "tester", []ledger.EntryInput{
		{AccountID: debit, Type: ledger.Debit, Amount: money.MustParse(amount)},
		{AccountID: credit, Type: ledger.Credit, Amount: money.MustParse(amount)},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestLedgerTransactionRepository_FindAndReport(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	accounts := newLedgerAccounts(t, NewLedgerAccountRepository(db), "Cash", "Revenue", "Payroll")
	cash, revenue, payroll := accounts[0].ID, accounts[1].ID, accounts[2].ID
	repo := NewLedgerTransactionRepository(db)

	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	postLedger(t, repo, day, "sales", "March invoice", cash, revenue, "100")
	postLedger(t, repo, day.AddDate(0, 0, 1), "sales", "March invoice 2", cash, revenue, "50")
	postLedger(t, repo, day.AddDate(0, 0, 2), "payroll", "Salaries", payroll, cash, "30")

	found, total, err := repo.Find(ctx, repository.LedgerTransactionFilter{Category: "sales"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, found, 1)
	assert.Equal(t, "March invoice 2", found[0].Description)
	assert.Len(t, found[0].Entries, 2)

	found, total, err = repo.Find(ctx, repository.LedgerTransactionFilter{AccountID: &payroll}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, "payroll", found[0].Category)

	found, _, err = repo.Find(ctx, repository.LedgerTransactionFilter{Description: "invoice"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	start := day.AddDate(0, 0, 1)
	found, _, err = repo.Find(ctx, repository.LedgerTransactionFilter{StartDate: &start}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	lines, err := repo.Report(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Balanced transactions net to zero per category.
	assert.Equal(t, "payroll", lines[0].Category)
	assert.True(t, lines[0].TotalAmount.IsZero())
	assert.True(t, lines[1].TotalAmount.IsZero())

	balances, err := NewLedgerAccountRepository(db).ComputedBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, "-120", balances[cash].String())
	assert.Equal(t, "150", balances[revenue].String())
	assert.Equal(t, "-30", balances[payroll].String())
}

func TestLedgerTransactionRepository_UpdateDeleteAndReconcileFlags(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	accountRepo := NewLedgerAccountRepository(db)
	accounts := newLedgerAccounts(t, accountRepo, "Cash", "Revenue", "Equity")
	cash, revenue, equity := accounts[0].ID, accounts[1].ID, accounts[2].ID
	repo := NewLedgerTransactionRepository(db)

	now := time.Now().UTC()
	sale := postLedger(t, repo, now, "sales", "sale", cash, revenue, "10")
	capital := postLedger(t, repo, now, "capital", "seed", cash, equity, "5")

	require.NoError(t, sale.ReplaceEntries([]ledger.EntryInput{
		{AccountID: cash, Type: ledger.Debit, Amount: money.FromInt(12)},
		{AccountID: revenue, Type: ledger.Credit, Amount: money.FromInt(12)},
	}))
	require.NoError(t, repo.Update(ctx, sale))

	got, err := repo.Get(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	for _, e := range got.Entries {
		assert.Equal(t, "12", e.Amount.String())
	}

	require.NoError(t, repo.MarkReconciled(ctx, []uuid.UUID{equity}))
	got, err = repo.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, got.Reconciled)
	got, err = repo.Get(ctx, capital.ID)
	require.NoError(t, err)
	assert.False(t, got.Reconciled)

	require.NoError(t, repo.Delete(ctx, capital.ID))
	_, err = repo.Get(ctx, capital.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	balances, err := accountRepo.ComputedBalances(ctx)
	require.NoError(t, err)
	_, ok := balances[equity]
	assert.False(t, ok)
}

func TestLedgerAccountRepository_DiscrepancyRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerAccountRepository(newSQLiteDB(t))
	acct := newLedgerAccounts(t, repo, "Cash")[0]

	acct.Post(money.FromInt(7))
	acct.Reconcile(money.FromInt(5), time.Now().UTC())
	require.NoError(t, repo.Update(ctx, acct))

	locked, err := repo.ListForUpdate(ctx)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	require.NotNil(t, locked[0].Discrepancy)
	assert.Equal(t, "2", locked[0].Discrepancy.String())
	assert.Equal(t, "5", locked[0].Balance.String())
	assert.NotNil(t, locked[0].ReconciledAt)
}

func TestAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditLogRepository(newSQLiteDB(t))
	id := uuid.New()

	require.NoError(t, repo.Create(ctx, ledger.NewAuditLog(id, ledger.AuditCreate, "alice", map[string]any{"amount": "10"})))
	require.NoError(t, repo.Create(ctx, ledger.NewAuditLog(id, ledger.AuditDelete, "bob", nil)))

	logs, err := repo.ListByEntity(ctx, id)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ledger.AuditCreate, logs[0].Action)
	assert.Equal(t, "Transaction", logs[0].EntityName)
	assert.Equal(t, "10", logs[0].Changes["amount"])
}
