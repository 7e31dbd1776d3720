package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

type Cancellation struct {
	Original  *models.Booking        `json:"original"`
	Refund    *models.Booking        `json:"refund"`
	Invoice   *models.Invoice        `json:"invoice"`
	Reversals []*models.JournalEntry `json:"reversals"`
}

// CancelBooking cancels a booking. A draft is simply marked CANCELLED. A
// confirmed or completed booking additionally gets a REFUND booking with the
// negated amounts, its posted journals reversed, and its invoice cancelled
// with whatever was received kept as customer credit. The original booking's
// amounts are never rewritten.
func (l *Ledger) CancelBooking(ctx context.Context, scope models.AccessScope, id int, reason string) (*Cancellation, error) {
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}
	var result *Cancellation
	err = l.run(ctx, "CancelBooking", []string{bookingLockKey(id)}, func(tx *gorm.DB) error {
		booking, err := utils.FetchModelForUpdate[models.Booking](tx, "booking", id)
		if err != nil {
			return err
		}
		if err := scope.CheckCustomer(booking.CustomerId, "booking", id); err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			return utils.NewConflictError("booking %s is already %s", booking.BookingNumber, booking.Status)
		}
		prev := booking.Status
		now := l.now()

		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", id, prev).
			Updates(map[string]interface{}{
				"status":              models.BookingStatusCancelled,
				"cancelled_at":        now,
				"cancellation_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return utils.NewConflictError("booking %s changed concurrently", booking.BookingNumber)
		}
		booking.Status = models.BookingStatusCancelled
		booking.CancelledAt = &now
		booking.CancellationReason = reason
		result = &Cancellation{Original: booking}

		desc := fmt.Sprintf("booking %s cancelled: %s", booking.BookingNumber, reason)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeBooking, id, prev, booking.Status, desc); err != nil {
			return err
		}
		if prev == models.BookingStatusDraft {
			return nil
		}

		refund, err := models.NewRefundBooking(booking.EffectiveRates(rates), booking, scope.UserId, reason)
		if err != nil {
			return err
		}
		seqNo, err := utils.GetSequence[models.Booking](ctx, tx, l.cache)
		if err != nil {
			return err
		}
		refund.SequenceNo = seqNo
		if err := tx.Create(refund).Error; err != nil {
			return utils.NumberTakenError(err, refund.BookingNumber)
		}
		result.Refund = refund

		reversals, err := models.ReverseReferencedEntries(tx, l.cache, scope.UserId, models.ReferenceTypeBooking, booking.ID,
			ReversalReasonBookingCancel, models.ReferenceTypeBookingRefund, refund.ID)
		if err != nil {
			return err
		}
		result.Reversals = reversals

		invoice, err := l.cancelBookingInvoice(tx, scope.UserId, booking)
		if err != nil {
			return err
		}
		result.Invoice = invoice

		desc = fmt.Sprintf("refund %s for cancelled booking %s", refund.BookingNumber, booking.BookingNumber)
		return models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypeBookingRefund, refund.ID, nil, refund, desc)
	})
	return result, err
}

// cancelBookingInvoice cancels the booking's invoice, recording what the
// customer already paid as credit. Receipts are left as they are.
func (l *Ledger) cancelBookingInvoice(tx *gorm.DB, userId int, booking *models.Booking) (*models.Invoice, error) {
	found, err := models.FindBookingInvoice(tx, booking.ID)
	if err != nil || found == nil {
		return nil, err
	}
	invoice, err := utils.FetchModelForUpdate[models.Invoice](tx, "invoice", found.ID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusCancelled {
		return invoice, nil
	}
	paid, err := models.ActiveReceiptsTotal(tx, invoice.ID)
	if err != nil {
		return nil, err
	}
	prev := invoice.Status
	now := l.now()
	err = tx.Model(invoice).Updates(map[string]interface{}{
		"status":          models.InvoiceStatusCancelled,
		"total_paid":      paid,
		"credited_amount": paid,
		"cancelled_at":    now,
	}).Error
	if err != nil {
		return nil, err
	}
	invoice.Status = models.InvoiceStatusCancelled
	invoice.TotalPaid = paid
	invoice.CreditedAmount = paid
	invoice.CancelledAt = &now
	desc := fmt.Sprintf("invoice %s cancelled with booking %s, credit %s", invoice.InvoiceNumber, booking.BookingNumber, paid)
	if err := models.RecordHistory(tx, userId, models.HistoryActionStatus, models.ReferenceTypeInvoice, invoice.ID, prev, invoice.Status, desc); err != nil {
		return nil, err
	}
	return invoice, nil
}
