package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

func (l *Ledger) CreateBooking(ctx context.Context, scope models.AccessScope, input *models.NewBooking, idempotencyKey string) (*models.Booking, error) {
	if err := scope.CheckCustomer(input.CustomerId, "customer", input.CustomerId); err != nil {
		return nil, err
	}
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}
	var result *models.Booking
	err = l.run(ctx, "CreateBooking", nil, func(tx *gorm.DB) error {
		if id, err := lookupIdempotency(tx, operationCreateBooking, idempotencyKey); err != nil || id > 0 {
			if err == nil {
				result, err = utils.FetchModel[models.Booking](ctx, tx, "booking", id)
			}
			return err
		}
		booking, err := models.CreateBooking(tx, l.cache, rates, scope.UserId, input)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("booking %s created", booking.BookingNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypeBooking, booking.ID, nil, booking, desc); err != nil {
			return err
		}
		if err := rememberIdempotency(tx, operationCreateBooking, idempotencyKey, scope.UserId, booking.ID); err != nil {
			return err
		}
		result = booking
		return nil
	})
	return result, err
}

// UpdateBooking edits a booking and carries the new figures everywhere they
// were posted: the booking journals are reversed and re-posted, and an open
// invoice takes the new totals. Invoices with money against them are fixed.
func (l *Ledger) UpdateBooking(ctx context.Context, scope models.AccessScope, id int, patch models.BookingPatch) (*models.Booking, error) {
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}
	var result *models.Booking
	err = l.run(ctx, "UpdateBooking", []string{bookingLockKey(id)}, func(tx *gorm.DB) error {
		booking, err := utils.FetchModelForUpdate[models.Booking](tx, "booking", id)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(booking.CustomerId, "booking", id); err != nil {
			return err
		}
		invoice, err := models.FindBookingInvoice(tx, id)
		if err != nil {
			return err
		}
		if invoice != nil {
			if invoice, err = utils.FetchModelForUpdate[models.Invoice](tx, "invoice", invoice.ID); err != nil {
				return err
			}
		}

		before := *booking
		changed, err := models.PatchBooking(tx, rates, booking, patch)
		if err != nil {
			return err
		}
		if changed && invoice != nil {
			if err := checkInvoiceOpen(tx, invoice); err != nil {
				return err
			}
		}
		if changed && (booking.Status == models.BookingStatusConfirmed || booking.Status == models.BookingStatusComplete) {
			_, err := models.ReverseReferencedEntries(tx, l.cache, scope.UserId, models.ReferenceTypeBooking, booking.ID,
				ReversalReasonBookingUpdate, models.ReferenceTypeBooking, booking.ID)
			if err != nil {
				return err
			}
			if _, err := models.PostBookingJournals(tx, l.cache, scope.UserId, booking); err != nil {
				return err
			}
		}
		if changed && invoice != nil {
			invoice.SetTotalsFrom(booking)
			err := tx.Model(invoice).Updates(map[string]interface{}{
				"subtotal":     invoice.Subtotal,
				"vat_amount":   invoice.VatAmount,
				"total_amount": invoice.TotalAmount,
			}).Error
			if err != nil {
				return err
			}
			if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("booking %s updated", booking.BookingNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionUpdate, models.ReferenceTypeBooking, booking.ID, before, booking, desc); err != nil {
			return err
		}
		result = booking
		return nil
	})
	return result, err
}

// checkInvoiceOpen allows re-pricing only while nothing has been received.
func checkInvoiceOpen(tx *gorm.DB, invoice *models.Invoice) error {
	switch invoice.Status {
	case models.InvoiceStatusDraft, models.InvoiceStatusUnpaid, models.InvoiceStatusOverdue:
	default:
		return utils.NewConflictError("invoice %s is %s; its booking amounts can no longer change", invoice.InvoiceNumber, invoice.Status)
	}
	paid, err := models.ActiveReceiptsTotal(tx, invoice.ID)
	if err != nil {
		return err
	}
	if paid.IsPositive() {
		return utils.NewConflictError("invoice %s has receipts; its booking amounts can no longer change", invoice.InvoiceNumber)
	}
	return nil
}

// ConfirmBooking moves a DRAFT booking to CONFIRMED and posts its journals.
func (l *Ledger) ConfirmBooking(ctx context.Context, scope models.AccessScope, id int) (*models.Booking, error) {
	var result *models.Booking
	err := l.run(ctx, "ConfirmBooking", []string{bookingLockKey(id)}, func(tx *gorm.DB) error {
		booking, err := utils.FetchModelForUpdate[models.Booking](tx, "booking", id)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(booking.CustomerId, "booking", id); err != nil {
			return err
		}
		if booking.Status != models.BookingStatusDraft {
			return utils.NewConflictError("booking %s is %s; only drafts can be confirmed", booking.BookingNumber, booking.Status)
		}
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, models.BookingStatusDraft).
			Update("status", models.BookingStatusConfirmed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return utils.NewConflictError("booking %s was confirmed concurrently", booking.BookingNumber)
		}
		booking.Status = models.BookingStatusConfirmed
		if _, err := models.PostBookingJournals(tx, l.cache, scope.UserId, booking); err != nil {
			return err
		}
		desc := fmt.Sprintf("booking %s confirmed", booking.BookingNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeBooking, id, models.BookingStatusDraft, models.BookingStatusConfirmed, desc); err != nil {
			return err
		}
		result = booking
		return nil
	})
	return result, err
}

// CreateInvoice bills a confirmed booking.
func (l *Ledger) CreateInvoice(ctx context.Context, scope models.AccessScope, input *models.NewInvoice) (*models.Invoice, error) {
	var result *models.Invoice
	err := l.run(ctx, "CreateInvoice", []string{bookingLockKey(input.BookingId)}, func(tx *gorm.DB) error {
		booking, err := utils.FetchModelForUpdate[models.Booking](tx, "booking", input.BookingId)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(booking.CustomerId, "booking", booking.ID); err != nil {
			return err
		}
		invoice, err := models.CreateInvoice(tx, l.cache, scope.UserId, booking, input)
		if err != nil {
			return err
		}
		// a zero-total invoice is settled the moment it is issued
		if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
			return err
		}
		desc := fmt.Sprintf("invoice %s issued for booking %s", invoice.InvoiceNumber, booking.BookingNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypeInvoice, invoice.ID, nil, invoice, desc); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	return result, err
}

// IssueInvoice turns a DRAFT invoice into a payable one.
func (l *Ledger) IssueInvoice(ctx context.Context, scope models.AccessScope, id int) (*models.Invoice, error) {
	var result *models.Invoice
	err := l.run(ctx, "IssueInvoice", []string{invoiceLockKey(id)}, func(tx *gorm.DB) error {
		invoice, err := utils.FetchModelForUpdate[models.Invoice](tx, "invoice", id)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(invoice.CustomerId, "invoice", id); err != nil {
			return err
		}
		if invoice.Status != models.InvoiceStatusDraft {
			return utils.NewConflictError("invoice %s is already issued", invoice.InvoiceNumber)
		}
		if err := tx.Model(invoice).Update("status", models.InvoiceStatusUnpaid).Error; err != nil {
			return err
		}
		invoice.Status = models.InvoiceStatusUnpaid
		if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
			return err
		}
		desc := fmt.Sprintf("invoice %s issued", invoice.InvoiceNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeInvoice, id, models.InvoiceStatusDraft, invoice.Status, desc); err != nil {
			return err
		}
		result = invoice
		return nil
	})
	return result, err
}
