package workflow

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment_WithdrawsFromBank(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	bank := testdb.MoneyAccount(t, f.env, "Emirates NBD", models.MoneyAccountKindBank, "AED", "10000")

	payment, err := f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		BookingId:      &booking.ID,
		Amount:         testdb.DecPtr("800"),
		PaymentMethod:  "BANK",
		MoneyAccountId: &bank.ID,
		Reference:      "TT-2231",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodBank, payment.PaymentMethod)
	assertAmount(t, "800", payment.BaseAmount)
	require.NotNil(t, payment.JournalEntryId)

	assertAmount(t, "9200", f.balance(t, bank.ID))
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeAccountsPayable))
	assertAmount(t, "-800", f.accountNet(t, models.AccountCodeBank))
	f.assertReconciled(t)

	_, err = f.ledger.DeletePayment(f.ctx, f.scope, payment.ID)
	require.NoError(t, err)
	assertAmount(t, "10000", f.balance(t, bank.ID))
	assertAmount(t, "-800", f.accountNet(t, models.AccountCodeAccountsPayable))
	f.assertReconciled(t)
}

func TestCreatePayment_ConvertsIntoAccountCurrency(t *testing.T) {
	f := newLedgerFixture(t)
	usd := testdb.MoneyAccount(t, f.env, "USD float", models.MoneyAccountKindBank, "USD", "1000")

	payment, err := f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		Amount:         testdb.DecPtr("367.25"),
		Currency:       "AED",
		PaymentMethod:  "BANK",
		MoneyAccountId: &usd.ID,
	}, "")
	require.NoError(t, err)
	assertAmount(t, "100", payment.AccountAmount)
	assertAmount(t, "900", f.balance(t, usd.ID))
}

func TestCreatePayment_BankRules(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:    f.supplier.ID,
		Amount:        testdb.DecPtr("50"),
		PaymentMethod: "BANK",
	}, "")
	assert.True(t, utils.IsValidationError(err), "bank without account: %v", err)

	_, err = f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		Amount:         testdb.DecPtr("50"),
		PaymentMethod:  "BANK",
		MoneyAccountId: &f.register.ID,
	}, "")
	assert.True(t, utils.IsValidationError(err), "bank from a cash register: %v", err)
	assertAmount(t, "0", f.balance(t, f.register.ID))

	// cash may come out of the register
	_, err = f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		Amount:         testdb.DecPtr("50"),
		PaymentMethod:  "CASH",
		MoneyAccountId: &f.register.ID,
	}, "")
	require.NoError(t, err)
	assertAmount(t, "-50", f.balance(t, f.register.ID))
}

func TestUpdatePayment_MovesBetweenAccounts(t *testing.T) {
	f := newLedgerFixture(t)
	first := testdb.MoneyAccount(t, f.env, "First", models.MoneyAccountKindBank, "AED", "1000")
	second := testdb.MoneyAccount(t, f.env, "Second", models.MoneyAccountKindBank, "AED", "1000")

	payment, err := f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		Amount:         testdb.DecPtr("200"),
		PaymentMethod:  "BANK",
		MoneyAccountId: &first.ID,
	}, "pay-1")
	require.NoError(t, err)

	_, err = f.ledger.UpdatePayment(f.ctx, f.scope, payment.ID, &models.NewPayment{
		SupplierId:     f.supplier.ID,
		Amount:         testdb.DecPtr("250"),
		PaymentMethod:  "BANK",
		MoneyAccountId: &second.ID,
	})
	require.NoError(t, err)
	assertAmount(t, "1000", f.balance(t, first.ID))
	assertAmount(t, "750", f.balance(t, second.ID))
	assertAmount(t, "250", f.accountNet(t, models.AccountCodeAccountsPayable))
	f.assertReconciled(t)
}

func TestCreatePayment_RestrictedToServedSuppliers(t *testing.T) {
	f := newLedgerFixture(t)
	f.confirmedBooking(t)
	stranger := testdb.Supplier(t, f.env, "Unrelated Cruises")

	agent := testdb.User(t, f.env, "agent", models.UserRoleSalesAgent)
	testdb.Assign(t, f.env, f.customer.ID, agent.ID, models.AssignedRoleSalesAgent)
	scope, err := models.ResolveAccessScope(f.ctx, f.env.DB, f.env.Cache, agent)
	require.NoError(t, err)

	_, err = f.ledger.CreatePayment(f.ctx, scope, &models.NewPayment{
		SupplierId:    stranger.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsAccessDeniedError(err))

	_, err = f.ledger.CreatePayment(f.ctx, scope, &models.NewPayment{
		SupplierId:    f.supplier.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.NoError(t, err)
}
