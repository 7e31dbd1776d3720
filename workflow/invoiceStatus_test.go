package workflow

import (
	"testing"
	"time"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
)

func TestDeriveInvoiceStatus(t *testing.T) {
	cases := []struct {
		total    string
		paid     string
		expected models.InvoiceStatus
	}{
		{"100", "0", models.InvoiceStatusUnpaid},
		{"100", "50", models.InvoiceStatusPartiallyPaid},
		{"100", "99.99", models.InvoiceStatusPartiallyPaid},
		{"100", "99.995", models.InvoiceStatusPaid}, // within a cent
		{"100", "100", models.InvoiceStatusPaid},
		{"100", "120", models.InvoiceStatusPaid},
		{"0", "0", models.InvoiceStatusPaid},
	}
	for _, tc := range cases {
		got := DeriveInvoiceStatus(decimal.RequireFromString(tc.total), decimal.RequireFromString(tc.paid))
		if got != tc.expected {
			t.Fatalf("DeriveInvoiceStatus(%s, %s) expected %s, got %s", tc.total, tc.paid, tc.expected, got)
		}
	}
}

func TestBookingStatusForInvoice(t *testing.T) {
	cases := []struct {
		booking  models.BookingStatus
		invoice  models.InvoiceStatus
		expected models.BookingStatus
		change   bool
	}{
		{models.BookingStatusConfirmed, models.InvoiceStatusPaid, models.BookingStatusComplete, true},
		{models.BookingStatusComplete, models.InvoiceStatusPaid, models.BookingStatusComplete, false},
		{models.BookingStatusComplete, models.InvoiceStatusPartiallyPaid, models.BookingStatusConfirmed, true},
		{models.BookingStatusComplete, models.InvoiceStatusOverdue, models.BookingStatusConfirmed, true},
		{models.BookingStatusConfirmed, models.InvoiceStatusUnpaid, models.BookingStatusConfirmed, false},
		{models.BookingStatusDraft, models.InvoiceStatusPaid, models.BookingStatusDraft, false},
		{models.BookingStatusCancelled, models.InvoiceStatusPaid, models.BookingStatusCancelled, false},
		{models.BookingStatusRefund, models.InvoiceStatusUnpaid, models.BookingStatusRefund, false},
	}
	for _, tc := range cases {
		got, change := BookingStatusForInvoice(tc.booking, tc.invoice)
		if got != tc.expected || change != tc.change {
			t.Fatalf("BookingStatusForInvoice(%s, %s) expected (%s, %v), got (%s, %v)",
				tc.booking, tc.invoice, tc.expected, tc.change, got, change)
		}
	}
}

func TestNextInvoiceStatus_KeepsOverdueWhileOwed(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -5)
	future := now.AddDate(0, 0, 5)
	total := decimal.NewFromInt(100)

	overdue := &models.Invoice{TotalAmount: total, Status: models.InvoiceStatusOverdue, DueDate: &past}
	if got := nextInvoiceStatus(overdue, decimal.NewFromInt(40), now); got != models.InvoiceStatusOverdue {
		t.Fatalf("partial payment on an overdue invoice expected OVERDUE, got %s", got)
	}
	if got := nextInvoiceStatus(overdue, total, now); got != models.InvoiceStatusPaid {
		t.Fatalf("full payment expected PAID, got %s", got)
	}

	// due date moved into the future: the flag no longer holds
	rescheduled := &models.Invoice{TotalAmount: total, Status: models.InvoiceStatusOverdue, DueDate: &future}
	if got := nextInvoiceStatus(rescheduled, decimal.NewFromInt(40), now); got != models.InvoiceStatusPartiallyPaid {
		t.Fatalf("rescheduled invoice expected PARTIALLY_PAID, got %s", got)
	}
}
