package workflow

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelBooking_RefundsAndCreditsInvoice(t *testing.T) {
	f := newLedgerFixture(t)
	booking := f.confirmedBooking(t)
	invoice := f.invoice(t, booking, nil, nil)
	receipt := f.receipt(t, invoice, "300", "")

	result, err := f.ledger.CancelBooking(f.ctx, f.scope, booking.ID, "guest changed plans")
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusCancelled, result.Original.Status)
	assert.Equal(t, "guest changed plans", result.Original.CancellationReason)
	assertAmount(t, "1050", result.Original.SaleAmount)

	require.NotNil(t, result.Refund)
	assert.Equal(t, models.BookingStatusRefund, result.Refund.Status)
	require.NotNil(t, result.Refund.RefundOfId)
	assert.Equal(t, booking.ID, *result.Refund.RefundOfId)
	assertAmount(t, "-1050", result.Refund.TotalWithVat)
	assertAmount(t, "-800", result.Refund.CostAmountBase)

	require.Len(t, result.Reversals, 3)
	for _, rev := range result.Reversals {
		assert.Equal(t, models.ReferenceTypeBookingRefund, rev.ReferenceType)
		assert.Equal(t, result.Refund.ID, rev.ReferenceId)
		assert.NotNil(t, rev.ReversalOfId)
	}

	require.NotNil(t, result.Invoice)
	assert.Equal(t, models.InvoiceStatusCancelled, result.Invoice.Status)
	assertAmount(t, "300", result.Invoice.CreditedAmount)

	// revenue, VAT and cost are fully unwound; only the receipt remains
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeSalesRevenue))
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeVatPayable))
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeCostOfSales))
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeAccountsPayable))
	assertAmount(t, "-300", f.accountNet(t, models.AccountCodeAccountsReceivable))
	assertAmount(t, "300", f.balance(t, f.register.ID))
	f.assertReconciled(t)

	_, err = f.ledger.CancelBooking(f.ctx, f.scope, booking.ID, "again")
	assert.True(t, utils.IsConflictError(err))

	// receipts on the cancelled invoice carry the credit and are frozen
	_, err = f.ledger.VoidReceipt(f.ctx, f.scope, receipt.ID)
	assert.True(t, utils.IsConflictError(err))

	_, err = f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    f.customer.ID,
		InvoiceId:     &invoice.ID,
		Amount:        testdb.DecPtr("10"),
		PaymentMethod: "CASH",
	}, "")
	assert.True(t, utils.IsConflictError(err))
}

func TestCancelBooking_DraftIsOnlyMarked(t *testing.T) {
	f := newLedgerFixture(t)
	draft, err := f.ledger.CreateBooking(f.ctx, f.scope, &models.NewBooking{
		ServiceType: models.ServiceTypeFlight,
		CustomerId:  f.customer.ID,
		SaleAmount:  testdb.DecPtr("900"),
		CostAmount:  testdb.DecPtr("850"),
	}, "")
	require.NoError(t, err)

	result, err := f.ledger.CancelBooking(f.ctx, f.scope, draft.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, result.Original.Status)
	assert.Nil(t, result.Refund)
	assert.Nil(t, result.Invoice)
	assert.Empty(t, result.Reversals)

	var refunds int64
	require.NoError(t, f.env.DB.Model(&models.Booking{}).Where("refund_of_id = ?", draft.ID).Count(&refunds).Error)
	assert.Zero(t, refunds)

	_, err = f.ledger.UpdateBooking(f.ctx, f.scope, draft.ID, models.BookingPatch{SaleAmount: testdb.DecPtr("1")})
	assert.True(t, utils.IsConflictError(err))
}

func TestCancelBooking_UsesPricingRateForRefund(t *testing.T) {
	f := newLedgerFixture(t)
	booking, err := f.ledger.CreateBooking(f.ctx, f.scope, &models.NewBooking{
		ServiceType:  models.ServiceTypeTransfer,
		CustomerId:   f.customer.ID,
		SaleAmount:   testdb.DecPtr("100"),
		SaleCurrency: "USD",
		CostAmount:   testdb.DecPtr("200"),
		CostCurrency: "AED",
	}, "")
	require.NoError(t, err)
	_, err = f.ledger.ConfirmBooking(f.ctx, f.scope, booking.ID)
	require.NoError(t, err)

	_, err = models.UpdateCurrencyRates(f.ctx, f.env.DB, f.env.Cache, f.scope.UserId, []models.NewCurrencyRate{
		{Code: "USD", Rate: testdb.Dec("4.1")},
	})
	require.NoError(t, err)

	result, err := f.ledger.CancelBooking(f.ctx, f.scope, booking.ID, "")
	require.NoError(t, err)
	assertAmount(t, "-367.25", result.Refund.SaleAmountBase)
	assertAmount(t, "0", f.accountNet(t, models.AccountCodeSalesRevenue))
	f.assertReconciled(t)
}
