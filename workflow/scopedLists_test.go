package workflow

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedLists_FollowAssignments(t *testing.T) {
	f := newLedgerFixture(t)

	alphaBooking := f.confirmedBooking(t)
	alphaInvoice := f.invoice(t, alphaBooking, nil, nil)
	f.receipt(t, alphaInvoice, "100", "")
	_, err := f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:    f.supplier.ID,
		BookingId:     &alphaBooking.ID,
		Amount:        testdb.DecPtr("800"),
		PaymentMethod: "CASH",
	}, "")
	require.NoError(t, err)

	beta := testdb.Customer(t, f.env, "Beta Tours")
	transfers := testdb.Supplier(t, f.env, "Gulf Transfers")
	betaBooking, err := f.ledger.CreateBooking(f.ctx, f.scope, &models.NewBooking{
		ServiceType: models.ServiceTypeVisa,
		CustomerId:  beta.ID,
		SupplierId:  transfers.ID,
		SaleAmount:  testdb.DecPtr("400"),
		CostAmount:  testdb.DecPtr("300"),
	}, "")
	require.NoError(t, err)
	_, err = f.ledger.ConfirmBooking(f.ctx, f.scope, betaBooking.ID)
	require.NoError(t, err)
	betaInvoice, err := f.ledger.CreateInvoice(f.ctx, f.scope, &models.NewInvoice{BookingId: betaBooking.ID})
	require.NoError(t, err)
	_, err = f.ledger.CreateReceipt(f.ctx, f.scope, &models.NewReceipt{
		CustomerId:    beta.ID,
		InvoiceId:     &betaInvoice.ID,
		Amount:        testdb.DecPtr("400"),
		PaymentMethod: "CASH",
	}, "")
	require.NoError(t, err)
	_, err = f.ledger.CreatePayment(f.ctx, f.scope, &models.NewPayment{
		SupplierId:    transfers.ID,
		BookingId:     &betaBooking.ID,
		Amount:        testdb.DecPtr("300"),
		PaymentMethod: "CASH",
	}, "")
	require.NoError(t, err)

	assigned := testdb.User(t, f.env, "alpha-agent", models.UserRoleSalesAgent)
	testdb.Assign(t, f.env, f.customer.ID, assigned.ID, models.AssignedRoleSalesAgent)
	unassigned := testdb.User(t, f.env, "new-agent", models.UserRoleSalesAgent)

	resolve := func(user *models.User) models.AccessScope {
		scope, err := models.ResolveAccessScope(f.ctx, f.env.DB, f.env.Cache, user)
		require.NoError(t, err)
		return scope
	}

	cases := []struct {
		name      string
		scope     models.AccessScope
		customers []int
		suppliers []int
	}{
		{"admin", f.scope, []int{f.customer.ID, beta.ID}, []int{f.supplier.ID, transfers.ID}},
		{"assigned agent", resolve(assigned), []int{f.customer.ID}, []int{f.supplier.ID}},
		{"no assignments", resolve(unassigned), nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bookings, err := models.ListBookings(f.ctx, f.env.DB, tc.scope, models.BookingFilter{})
			require.NoError(t, err)
			var bookingCustomers []int
			for _, b := range bookings {
				bookingCustomers = append(bookingCustomers, b.CustomerId)
			}
			assert.ElementsMatch(t, tc.customers, bookingCustomers)

			invoices, err := models.ListInvoices(f.ctx, f.env.DB, tc.scope, models.InvoiceFilter{})
			require.NoError(t, err)
			var invoiceCustomers []int
			for _, inv := range invoices {
				invoiceCustomers = append(invoiceCustomers, inv.CustomerId)
			}
			assert.ElementsMatch(t, tc.customers, invoiceCustomers)

			receipts, err := models.ListReceipts(f.ctx, f.env.DB, tc.scope, models.ReceiptFilter{})
			require.NoError(t, err)
			var receiptCustomers []int
			for _, r := range receipts {
				receiptCustomers = append(receiptCustomers, r.CustomerId)
			}
			assert.ElementsMatch(t, tc.customers, receiptCustomers)

			payments, err := models.ListPayments(f.ctx, f.env.DB, tc.scope, models.PaymentFilter{})
			require.NoError(t, err)
			var paymentSuppliers []int
			for _, p := range payments {
				paymentSuppliers = append(paymentSuppliers, p.SupplierId)
			}
			assert.ElementsMatch(t, tc.suppliers, paymentSuppliers)
		})
	}
}
