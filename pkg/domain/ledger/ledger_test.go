package ledger_test

import (
	"testing"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/ledger"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(acct uuid.UUID, typ ledger.EntryType, amount string) ledger.EntryInput {
	return ledger.EntryInput{AccountID: acct, Type: typ, Amount: money.MustParse(amount)}
}

func TestValidateEntries(t *testing.T) {
	cash, revenue := uuid.New(), uuid.New()
	tests := []struct {
		name    string
		entries []ledger.EntryInput
		wantErr bool
	}{
		{"balanced", []ledger.EntryInput{entry(cash, ledger.Debit, "10"), entry(revenue, ledger.Credit, "10")}, false},
		{"split credit", []ledger.EntryInput{
			entry(cash, ledger.Debit, "10"),
			entry(revenue, ledger.Credit, "7.5"),
			entry(revenue, ledger.Credit, "2.5"),
		}, false},
		{"unbalanced", []ledger.EntryInput{entry(cash, ledger.Debit, "10"), entry(revenue, ledger.Credit, "9.99")}, true},
		{"empty", nil, true},
		{"zero amount", []ledger.EntryInput{entry(cash, ledger.Debit, "0"), entry(revenue, ledger.Credit, "0")}, true},
		{"bad type", []ledger.EntryInput{entry(cash, "memo", "1")}, true},
		{"missing account", []ledger.EntryInput{entry(uuid.Nil, ledger.Debit, "1"), entry(revenue, ledger.Credit, "1")}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ledger.ValidateEntries(tc.entries)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewTransactionAndPostings(t *testing.T) {
	cash, revenue := uuid.New(), uuid.New()
	tx, err := ledger.NewTransaction(time.Now(), "Invoice 42", "sales", "alice",
		[]ledger.EntryInput{entry(cash, ledger.Debit, "100"), entry(revenue, ledger.Credit, "100")}, nil)
	require.NoError(t, err)
	require.Len(t, tx.Entries, 2)
	for _, e := range tx.Entries {
		assert.Equal(t, tx.ID, e.TransactionID)
	}

	postings := ledger.Postings(tx.Entries)
	assert.Equal(t, "-100", postings[cash].String())
	assert.Equal(t, "100", postings[revenue].String())

	ids := ledger.SortedAccountIDs(postings)
	require.Len(t, ids, 2)
	assert.True(t, ids[0].String() < ids[1].String())

	_, err = ledger.NewTransaction(time.Time{}, "x", "y", "z",
		[]ledger.EntryInput{entry(cash, ledger.Debit, "1"), entry(revenue, ledger.Credit, "1")}, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestReplaceEntriesKeepsOldSetOnFailure(t *testing.T) {
	cash, revenue := uuid.New(), uuid.New()
	tx, err := ledger.NewTransaction(time.Now(), "d", "c", "u",
		[]ledger.EntryInput{entry(cash, ledger.Debit, "5"), entry(revenue, ledger.Credit, "5")}, nil)
	require.NoError(t, err)
	before := tx.Entries

	err = tx.ReplaceEntries([]ledger.EntryInput{entry(cash, ledger.Debit, "6"), entry(revenue, ledger.Credit, "5")})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, before, tx.Entries)
}

func TestAccountReconcileIsIdempotent(t *testing.T) {
	acct, err := ledger.NewAccount("Cash")
	require.NoError(t, err)
	acct.Balance = money.FromInt(120)
	now := time.Now()

	assert.True(t, acct.Reconcile(money.FromInt(100), now))
	assert.Equal(t, "100", acct.Balance.String())
	require.NotNil(t, acct.Discrepancy)
	assert.Equal(t, "20", acct.Discrepancy.String())

	assert.True(t, acct.Reconcile(money.FromInt(100), now), "outstanding discrepancy keeps the account unreconciled")
	assert.Equal(t, "100", acct.Balance.String())
	assert.Equal(t, "20", acct.Discrepancy.String())

	acct.AcknowledgeDiscrepancy()
	assert.False(t, acct.Reconcile(money.FromInt(100), now))
	assert.False(t, acct.Reconcile(money.FromInt(100), now))
}

func TestNewAccountRequiresName(t *testing.T) {
	_, err := ledger.NewAccount("  ")
	require.ErrorIs(t, err, domain.ErrValidation)
}
