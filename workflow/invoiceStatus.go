package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DeriveInvoiceStatus maps the sum of active receipts against the invoice total.
// Amounts within MoneyEpsilon of the total count as fully paid.
func DeriveInvoiceStatus(total decimal.Decimal, paid decimal.Decimal) models.InvoiceStatus {
	if paid.GreaterThanOrEqual(total) || models.MoneyEqual(paid, total) {
		return models.InvoiceStatusPaid
	}
	if paid.IsPositive() {
		return models.InvoiceStatusPartiallyPaid
	}
	return models.InvoiceStatusUnpaid
}

// nextInvoiceStatus keeps an OVERDUE flag while the invoice is still owed and
// past due; otherwise the derived status wins.
func nextInvoiceStatus(invoice *models.Invoice, paid decimal.Decimal, now time.Time) models.InvoiceStatus {
	derived := DeriveInvoiceStatus(invoice.TotalAmount, paid)
	if derived != models.InvoiceStatusPaid &&
		invoice.Status == models.InvoiceStatusOverdue &&
		invoice.DueDate != nil && invoice.DueDate.Before(now) {
		return models.InvoiceStatusOverdue
	}
	return derived
}

// BookingStatusForInvoice returns the booking status implied by its invoice
// status, and false when the booking must be left alone.
func BookingStatusForInvoice(current models.BookingStatus, invoice models.InvoiceStatus) (models.BookingStatus, bool) {
	if current.IsTerminal() || current == models.BookingStatusDraft {
		return current, false
	}
	switch {
	case invoice == models.InvoiceStatusPaid && current != models.BookingStatusComplete:
		return models.BookingStatusComplete, true
	case invoice != models.InvoiceStatusPaid && current == models.BookingStatusComplete:
		return models.BookingStatusConfirmed, true
	}
	return current, false
}

// recomputeInvoice re-derives total paid and status of a locked invoice and
// pushes the result to its booking. DRAFT and CANCELLED invoices are frozen.
func (l *Ledger) recomputeInvoice(tx *gorm.DB, userId int, invoice *models.Invoice) error {
	if invoice.Status == models.InvoiceStatusDraft || invoice.Status == models.InvoiceStatusCancelled {
		return nil
	}
	paid, err := models.ActiveReceiptsTotal(tx, invoice.ID)
	if err != nil {
		return err
	}
	prev := invoice.Status
	next := nextInvoiceStatus(invoice, paid, l.now())
	if next == prev && paid.Equal(invoice.TotalPaid) {
		return l.syncBookingStatus(tx, userId, invoice)
	}

	err = tx.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Updates(map[string]interface{}{
		"total_paid": paid,
		"status":     next,
	}).Error
	if err != nil {
		return err
	}
	invoice.TotalPaid = paid
	invoice.Status = next
	if next != prev {
		desc := fmt.Sprintf("invoice %s %s -> %s", invoice.InvoiceNumber, prev, next)
		if err := models.RecordHistory(tx, userId, models.HistoryActionStatus, models.ReferenceTypeInvoice, invoice.ID, prev, next, desc); err != nil {
			return err
		}
	}
	return l.syncBookingStatus(tx, userId, invoice)
}

func (l *Ledger) syncBookingStatus(tx *gorm.DB, userId int, invoice *models.Invoice) error {
	booking, err := utils.FetchModelForUpdate[models.Booking](tx, "booking", invoice.BookingId)
	if err != nil {
		return err
	}
	next, change := BookingStatusForInvoice(booking.Status, invoice.Status)
	if !change {
		return nil
	}
	prev := booking.Status
	if err := tx.Model(booking).Update("status", next).Error; err != nil {
		return err
	}
	booking.Status = next
	desc := fmt.Sprintf("booking %s %s -> %s after invoice %s became %s", booking.BookingNumber, prev, next, invoice.InvoiceNumber, invoice.Status)
	return models.RecordHistory(tx, userId, models.HistoryActionStatus, models.ReferenceTypeBooking, booking.ID, prev, next, desc)
}

// lockInvoices row locks the given invoices in id order, skipping nils and
// duplicates. The map is keyed by invoice id.
func lockInvoices(tx *gorm.DB, ids ...*int) (map[int]*models.Invoice, error) {
	var plain []int
	for _, id := range ids {
		if id != nil && *id > 0 {
			plain = append(plain, *id)
		}
	}
	plain = utils.UniqueSlice(plain)
	sort.Ints(plain)
	locked := make(map[int]*models.Invoice, len(plain))
	for _, id := range plain {
		invoice, err := utils.FetchModelForUpdate[models.Invoice](tx, "invoice", id)
		if err != nil {
			return nil, err
		}
		locked[id] = invoice
	}
	return locked, nil
}

// RecomputeInvoiceStatus re-derives one invoice from its receipts. Used by
// admin tooling after data repair; the ledger keeps invoices current otherwise.
func (l *Ledger) RecomputeInvoiceStatus(ctx context.Context, scope models.AccessScope, id int) (*models.Invoice, error) {
	var result *models.Invoice
	err := l.run(ctx, "RecomputeInvoiceStatus", []string{invoiceLockKey(id)}, func(tx *gorm.DB) error {
		invoice, err := utils.FetchModelForUpdate[models.Invoice](tx, "invoice", id)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(invoice.CustomerId, "invoice", id); err != nil {
			return err
		}
		if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	return result, err
}
