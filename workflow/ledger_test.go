package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	ctx      context.Context
	env      *config.Env
	ledger   *Ledger
	scope    models.AccessScope
	customer *models.Customer
	supplier *models.Supplier
	register *models.MoneyAccount
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	env := testdb.New(t)
	admin := testdb.User(t, env, "accounts", models.UserRoleAccountant)
	scope := models.SystemScope()
	scope.UserId = admin.ID
	return &ledgerFixture{
		ctx:      context.Background(),
		env:      env,
		ledger:   NewLedger(env),
		scope:    scope,
		customer: testdb.Customer(t, env, "Alpha Travel"),
		supplier: testdb.Supplier(t, env, "Desert Hotels"),
		register: testdb.MoneyAccount(t, env, "Front desk", models.MoneyAccountKindCashRegister, "AED", "0"),
	}
}

// confirmedBooking is a local VAT hotel stay: sale 1050 inclusive, cost 800.
func (f *ledgerFixture) confirmedBooking(t *testing.T) *models.Booking {
	t.Helper()
	booking, err := f.ledger.CreateBooking(f.ctx, f.scope, &models.NewBooking{
		ServiceType:    models.ServiceTypeHotel,
		CustomerId:     f.customer.ID,
		SupplierId:     f.supplier.ID,
		SaleAmount:     testdb.DecPtr("1050"),
		CostAmount:     testdb.DecPtr("800"),
		IsLocalTaxZone: true,
		VatApplicable:  true,
		ServiceDetails: []byte(`{"hotel_name":"Palm Resort","city":"Dubai","rooms":1}`),
	}, "")
	require.NoError(t, err)
	require.Equal(t, models.BookingStatusDraft, booking.Status)

	booking, err = f.ledger.ConfirmBooking(f.ctx, f.scope, booking.ID)
	require.NoError(t, err)
	return booking
}

func (f *ledgerFixture) invoice(t *testing.T, booking *models.Booking, invoiceDate *time.Time, dueDate *time.Time) *models.Invoice {
	t.Helper()
	invoice, err := f.ledger.CreateInvoice(f.ctx, f.scope, &models.NewInvoice{
		BookingId:   booking.ID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
	})
	require.NoError(t, err)
	return invoice
}

func (f *ledgerFixture) receipt(t *testing.T, invoice *models.Invoice, amount string, key string) *models.Receipt {
	t.Helper()
	receipt, err := f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:     f.customer.ID,
		InvoiceId:      &invoice.ID,
		Amount:         testdb.DecPtr(amount),
		PaymentMethod:  "cash",
		MoneyAccountId: &f.register.ID,
	}, key)
	require.NoError(t, err)
	return receipt
}

func (f *ledgerFixture) reload(t *testing.T, invoiceId int) (*models.Invoice, *models.Booking) {
	t.Helper()
	invoice, err := utils.FetchModel[models.Invoice](f.ctx, f.env.DB, "invoice", invoiceId)
	require.NoError(t, err)
	booking, err := utils.FetchModel[models.Booking](f.ctx, f.env.DB, "booking", invoice.BookingId)
	require.NoError(t, err)
	return invoice, booking
}

func (f *ledgerFixture) balance(t *testing.T, moneyAccountId int) decimal.Decimal {
	t.Helper()
	account, err := models.GetMoneyAccount(f.ctx, f.env.DB, moneyAccountId)
	require.NoError(t, err)
	return account.Balance
}

func (f *ledgerFixture) accountNet(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	account, err := models.GetAccountByCode(f.env.DB, code)
	require.NoError(t, err)
	return account.DebitBalance.Sub(account.CreditBalance)
}

func (f *ledgerFixture) assertReconciled(t *testing.T) {
	t.Helper()
	report, err := RunReconciliationChecks(f.ctx, f.env.DB, f.env.Logger)
	require.NoError(t, err)
	assert.True(t, report.OK(), "reconciliation: %+v", report)
}

func assertAmount(t *testing.T, expected string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(expected)), append([]interface{}{"expected %s, got %s", expected, got}, msgAndArgs...)...)
}

func TestConfirmBooking_PostsBalancedJournals(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	entries, err := models.ListJournalEntries(f.ctx, f.env.DB, models.JournalEntryFilter{
		ReferenceType: models.ReferenceTypeBooking,
		ReferenceId:   booking.ID,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	assertAmount(t, "1050", f.accountNet(t, models.AccountCodeAccountsReceivable))
	assertAmount(t, "-1000", f.accountNet(t, models.AccountCodeSalesRevenue))
	assertAmount(t, "-50", f.accountNet(t, models.AccountCodeVatPayable))
	assertAmount(t, "800", f.accountNet(t, models.AccountCodeCostOfSales))
	assertAmount(t, "-800", f.accountNet(t, models.AccountCodeAccountsPayable))
	f.assertReconciled(t)

	_, err = f.ledger.ConfirmBooking(f.ctx, f.scope, booking.ID)
	assert.True(t, utils.IsConflictError(err))
}

func TestReceipts_DriveInvoiceAndBookingStatus(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)
	assert.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)
	assertAmount(t, "1050", invoice.TotalAmount)

	f.receipt(t, invoice, "500", "")
	invoice, booking = f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, invoice.Status)
	assertAmount(t, "500", invoice.TotalPaid)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	second := f.receipt(t, invoice, "550", "")
	invoice, booking = f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, models.BookingStatusComplete, booking.Status)
	assertAmount(t, "1050", f.balance(t, f.register.ID))
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeAccountsReceivable))
	assertAmount(t, "1050", f.accountNet(t, models.AccountCodeCash))
	f.assertReconciled(t)

	// voiding takes the invoice back below its total
	voided, err := f.ledger.VoidReceipt(f.ctx, f.scope, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusCancelled, voided.Status)
	invoice, booking = f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, invoice.Status)
	assertAmount(t, "500", invoice.TotalPaid)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assertAmount(t, "500", f.balance(t, f.register.ID))
	assertAmount(t, "550", f.accountNet(t, models.AccountCodeAccountsReceivable))
	f.assertReconciled(t)

	_, err = f.ledger.VoidReceipt(f.ctx, f.scope, second.ID)
	assert.True(t, utils.IsConflictError(err))
}

func TestUpdateReceipt_ReversesThenReapplies(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)
	receipt := f.receipt(t, invoice, "500", "")
	firstEntry := *receipt.JournalEntryId

	updated, err := f.ledger.UpdateReceipt(f.ctx, f.scope, receipt.ID, &models.NewReceipt{
		CustomerId:     f.customer.ID,
		InvoiceId:      &invoice.ID,
		Amount:         testdb.DecPtr("1050"),
		PaymentMethod:  "CASH",
		MoneyAccountId: &f.register.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, firstEntry, *updated.JournalEntryId)

	original, err := models.GetJournalEntry(f.ctx, f.env.DB, firstEntry)
	require.NoError(t, err)
	assert.NotNil(t, original.ReversedById)

	invoice, booking = f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, models.BookingStatusComplete, booking.Status)
	assertAmount(t, "1050", f.balance(t, f.register.ID))
	f.assertReconciled(t)
}

func TestDeleteReceipt_RestoresBalances(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)
	receipt := f.receipt(t, invoice, "1050", "")

	_, err := f.ledger.DeleteReceipt(f.ctx, f.scope, receipt.ID)
	require.NoError(t, err)

	invoice, booking = f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assertAmount(t, "0", f.balance(t, f.register.ID))
	assertAmount(t, "1050", f.accountNet(t, models.AccountCodeAccountsReceivable))

	_, err = models.GetReceipt(f.ctx, f.env.DB, f.scope, receipt.ID)
	assert.True(t, utils.IsNotFoundError(err))
	f.assertReconciled(t)
}

func TestCreateReceipt_IdempotencyKeyReturnsFirstResult(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)

	first := f.receipt(t, invoice, "300", "retry-7f3a")
	again := f.receipt(t, invoice, "300", "retry-7f3a")
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.ReceiptNumber, again.ReceiptNumber)

	receipts, err := models.ListReceipts(f.ctx, f.env.DB, f.scope, models.ReceiptFilter{InvoiceId: invoice.ID})
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
	assertAmount(t, "300", f.balance(t, f.register.ID))
}

func TestCreateReceipt_Rejections(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)
	other := testdb.Customer(t, f.env, "Beta Tours")

	_, err := f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    f.customer.ID,
		InvoiceId:     &invoice.ID,
		Amount:        testdb.DecPtr("0"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsValidationError(err), "zero amount: %v", err)

	_, err = f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    other.ID,
		InvoiceId:     &invoice.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsValidationError(err), "foreign invoice: %v", err)

	_, err = f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    f.customer.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "BARTER",
	}, "")
	assert.True(t, utils.IsValidationError(err), "unknown method: %v", err)
}

func TestCreateReceipt_DraftInvoiceRejectsReceipts(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice, err := f.ledger.CreateInvoice(f.ctx, f.scope, &models.NewInvoice{BookingId: booking.ID, Draft: true})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, invoice.Status)

	_, err = f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    f.customer.ID,
		InvoiceId:     &invoice.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsConflictError(err))

	issued, err := f.ledger.IssueInvoice(f.ctx, f.scope, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusUnpaid, issued.Status)
	f.receipt(t, issued, "10", "")
}

func TestRestrictedScope_DeniedOutsideAssignments(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)

	other := testdb.Customer(t, f.env, "Beta Tours")
	agent := testdb.User(t, f.env, "agent", models.UserRoleSalesAgent)
	testdb.Assign(t, f.env, other.ID, agent.ID, models.AssignedRoleSalesAgent)
	scope, err := models.ResolveAccessScope(f.ctx, f.env.DB, f.env.Cache, agent)
	require.NoError(t, err)

	_, err = f.ledger.CreateReceipt(f.ctx, scope, &models.NewReceipt{
		CustomerId:    f.customer.ID,
		InvoiceId:     &invoice.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsAccessDeniedError(err))

	_, err = f.ledger.CancelBooking(f.ctx, scope, booking.ID, "not mine")
	assert.True(t, utils.IsAccessDeniedError(err))

	_, err = f.ledger.CreateBooking(f.ctx, scope, &models.NewBooking{
		ServiceType: models.ServiceTypeVisa,
		CustomerId:  f.customer.ID,
		SaleAmount:  testdb.DecPtr("100"),
		CostAmount:  testdb.DecPtr("80"),
	}, "")
	assert.True(t, utils.IsAccessDeniedError(err))

	// the assigned customer is fine
	own, err := f.ledger.CreateBooking(f.ctx, scope, &models.NewBooking{
		ServiceType: models.ServiceTypeVisa,
		CustomerId:  other.ID,
		SaleAmount:  testdb.DecPtr("100"),
		CostAmount:  testdb.DecPtr("80"),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, agent.ID, own.CreatedBy)
}

func TestUpdateBooking_RepostsAndRetotalsInvoice(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)

	updated, err := f.ledger.UpdateBooking(f.ctx, f.scope, booking.ID, models.BookingPatch{SaleAmount: testdb.DecPtr("2100")})
	require.NoError(t, err)
	assertAmount(t, "2000", updated.NetBeforeVat)
	assertAmount(t, "100", updated.VatAmount)

	invoice, _ = f.reload(t, invoice.ID)
	assertAmount(t, "2100", invoice.TotalAmount)
	assertAmount(t, "2100", f.accountNet(t, models.AccountCodeAccountsReceivable))
	assertAmount(t, "-2000", f.accountNet(t, models.AccountCodeSalesRevenue))
	f.assertReconciled(t)

	// once money is received the amounts are fixed
	f.receipt(t, invoice, "100", "")
	_, err = f.ledger.UpdateBooking(f.ctx, f.scope, booking.ID, models.BookingPatch{SaleAmount: testdb.DecPtr("3000")})
	assert.True(t, utils.IsConflictError(err))
}

func TestCreateReceipt_FailureLeavesNoPartialState(t *testing.T) {
	f := newLedgerFixture(t)
	invoice := f.invoice(t, f.confirmedBooking(t), nil, nil)
	var entriesBefore int64
	require.NoError(t, f.env.DB.Model(&models.JournalEntry{}).Count(&entriesBefore).Error)

	// the receipt row is inserted before the money account lookup fails
	missing := 99999
	_, err := f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:     f.customer.ID,
		InvoiceId:      &invoice.ID,
		Amount:         testdb.DecPtr("500"),
		PaymentMethod:  "CASH",
		MoneyAccountId: &missing,
	}, "rollback-1")
	require.Error(t, err)
	assert.True(t, utils.IsNotFoundError(err), "got %v", err)

	var receipts, entriesAfter, keys int64
	require.NoError(t, f.env.DB.Model(&models.Receipt{}).Count(&receipts).Error)
	require.NoError(t, f.env.DB.Model(&models.JournalEntry{}).Count(&entriesAfter).Error)
	require.NoError(t, f.env.DB.Model(&models.IdempotencyKey{}).Count(&keys).Error)
	assert.Zero(t, receipts)
	assert.Zero(t, keys)
	assert.Equal(t, entriesBefore, entriesAfter)

	invoice, booking := f.reload(t, invoice.ID)
	assert.Equal(t, models.InvoiceStatusUnpaid, invoice.Status)
	assertAmount(t, "0", invoice.TotalPaid)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assertAmount(t, "1050", f.accountNet(t, models.AccountCodeAccountsReceivable))
	f.assertReconciled(t)
}

func TestReceipts_SplitSettlesInAnyOrder(t *testing.T) {
	f := newLedgerFixture(t)
	splits := [][]string{
		{"333.33", "333.33", "383.34"},
		{"383.34", "333.33", "333.33"},
	}
	for _, split := range splits {
		invoice := f.invoice(t, f.confirmedBooking(t), nil, nil)
		for i, amount := range split {
			f.receipt(t, invoice, amount, "")
			got, _ := f.reload(t, invoice.ID)
			if i < len(split)-1 && got.Status != models.InvoiceStatusPartiallyPaid {
				t.Fatalf("split %v: after %d receipts expected PARTIALLY_PAID, got %s", split, i+1, got.Status)
			}
		}
		invoice, booking := f.reload(t, invoice.ID)
		assert.Equal(t, models.InvoiceStatusPaid, invoice.Status, "split %v", split)
		assertAmount(t, "1050", invoice.TotalPaid)
		assert.Equal(t, models.BookingStatusComplete, booking.Status)

		// recomputing a settled invoice changes nothing
		for i := 0; i < 2; i++ {
			recomputed, err := f.ledger.RecomputeInvoiceStatus(f.ctx, f.scope, invoice.ID)
			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, recomputed.Status)
			assertAmount(t, "1050", recomputed.TotalPaid)
			_, booking = f.reload(t, invoice.ID)
			assert.Equal(t, models.BookingStatusComplete, booking.Status)
		}
	}
	f.assertReconciled(t)
}
