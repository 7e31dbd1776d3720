package workflow

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualJournalEntry_Lifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	cash, err := models.GetAccountByCode(f.env.DB, models.AccountCodeCash)
	require.NoError(t, err)
	bank, err := models.GetAccountByCode(f.env.DB, models.AccountCodeBank)
	require.NoError(t, err)

	entry, err := f.ledger.CreateJournalEntry(f.ctx, f.scope, &models.NewJournalEntry{
		Description:     "cash deposit",
		DebitAccountId:  bank.ID,
		CreditAccountId: cash.ID,
		Amount:          testdb.Dec("250"),
		ReferenceType:   models.ReferenceTypeBooking,
	})
	require.NoError(t, err)
	assert.Equal(t, models.JournalStatusDraft, entry.Status)
	assert.Equal(t, models.ReferenceTypeManual, entry.ReferenceType)
	// drafts do not move balances
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeBank))

	posted, err := f.ledger.PostJournalEntry(f.ctx, f.scope, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JournalStatusPosted, posted.Status)
	assertAmount(t, "250", f.accountNet(t, models.AccountCodeBank))
	assertAmount(t, "-250", f.accountNet(t, models.AccountCodeCash))

	_, err = f.ledger.PostJournalEntry(f.ctx, f.scope, entry.ID)
	assert.True(t, utils.IsConflictError(err))
	_, err = f.ledger.DeleteJournalEntry(f.ctx, f.scope, entry.ID)
	assert.True(t, utils.IsConflictError(err))

	reversal, err := f.ledger.ReverseJournalEntry(f.ctx, f.scope, entry.ID, "")
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversalOfId)
	assert.Equal(t, entry.ID, *reversal.ReversalOfId)
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeBank))

	// reversing again hands back the same reversal
	again, err := f.ledger.ReverseJournalEntry(f.ctx, f.scope, entry.ID, "")
	require.NoError(t, err)
	assert.Equal(t, reversal.ID, again.ID)
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeBank))

	_, err = f.ledger.ReverseJournalEntry(f.ctx, f.scope, reversal.ID, "")
	assert.True(t, utils.IsConflictError(err))
	f.assertReconciled(t)
}

func TestManualJournalEntry_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	cash, err := models.GetAccountByCode(f.env.DB, models.AccountCodeCash)
	require.NoError(t, err)

	_, err = f.ledger.CreateJournalEntry(f.ctx, f.scope, &models.NewJournalEntry{
		DebitAccountId:  cash.ID,
		CreditAccountId: cash.ID,
		Amount:          testdb.Dec("10"),
	})
	assert.True(t, utils.IsValidationError(err))

	_, err = f.ledger.CreateJournalEntry(f.ctx, f.scope, &models.NewJournalEntry{
		DebitAccountId:  cash.ID,
		CreditAccountId: 9999,
		Amount:          testdb.Dec("10"),
	})
	assert.Error(t, err)

	draft, err := f.ledger.CreateJournalEntry(f.ctx, f.scope, &models.NewJournalEntry{
		DebitAccountId:  cash.ID,
		CreditAccountId: cash.ID + 1,
		Amount:          testdb.Dec("10"),
	})
	require.NoError(t, err)
	_, err = f.ledger.ReverseJournalEntry(f.ctx, f.scope, draft.ID, "")
	assert.True(t, utils.IsConflictError(err))
	_, err = f.ledger.DeleteJournalEntry(f.ctx, f.scope, draft.ID)
	require.NoError(t, err)
}

func TestManualJournalEntry_RequiresLedgerRole(t *testing.T) {
	f := newLedgerFixture(t)
	agent := testdb.User(t, f.env, "agent", models.UserRoleSalesAgent)
	scope, err := models.ResolveAccessScope(f.ctx, f.env.DB, f.env.Cache, agent)
	require.NoError(t, err)

	_, err = f.ledger.CreateJournalEntry(f.ctx, scope, &models.NewJournalEntry{
		DebitAccountId:  1,
		CreditAccountId: 2,
		Amount:          testdb.Dec("10"),
	})
	assert.True(t, utils.IsAccessDeniedError(err))
	_, err = f.ledger.ReverseJournalEntry(f.ctx, scope, 1, "")
	assert.True(t, utils.IsAccessDeniedError(err))
}
