package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const invoicePrefix = "INV"

// Invoice bills one booking in base currency. Status is derived from the
// active receipts linked to it and is written only by the ledger workflow.
type Invoice struct {
	ID             int             `gorm:"primary_key" json:"id"`
	InvoiceNumber  string          `gorm:"uniqueIndex;size:30;not null" json:"invoice_number"`
	SequenceNo     int64           `gorm:"index;not null" json:"sequence_no"`
	BookingId      int             `gorm:"uniqueIndex;not null" json:"booking_id"`
	CustomerId     int             `gorm:"index;not null" json:"customer_id"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`
	VatAmount      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"vat_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`
	TotalPaid      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_paid"`
	CreditedAmount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"credited_amount"`
	Status         InvoiceStatus   `gorm:"size:20;not null;index" json:"status"`
	InvoiceDate    time.Time       `gorm:"not null" json:"invoice_date"`
	DueDate        *time.Time      `gorm:"index" json:"due_date"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedBy      int             `json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	BookingId   int        `json:"booking_id" validate:"required"`
	InvoiceDate *time.Time `json:"invoice_date"`
	DueDate     *time.Time `json:"due_date"`
	Draft       bool       `json:"draft"`
	Notes       string     `json:"notes"`
}

// Balance is what is still owed.
func (inv *Invoice) Balance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.TotalPaid)
}

// SetTotalsFrom copies the booking's snapshot onto the invoice.
func (inv *Invoice) SetTotalsFrom(b *Booking) {
	inv.Subtotal = b.NetBeforeVat
	inv.VatAmount = b.VatAmount
	inv.TotalAmount = b.TotalWithVat
}

// CreateInvoice issues the invoice of a locked booking. A booking has at most one invoice.
func CreateInvoice(tx *gorm.DB, cache *config.Cache, userId int, booking *Booking, input *NewInvoice) (*Invoice, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if booking.Status != BookingStatusConfirmed {
		return nil, utils.NewConflictError("booking %s is %s; only confirmed bookings can be invoiced", booking.BookingNumber, booking.Status)
	}
	count, err := utils.ResourceCountWhere[Invoice](tx.Statement.Context, tx, "booking_id = ?", booking.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewConflictError("booking %s is already invoiced", booking.BookingNumber)
	}
	invoiceDate := time.Now().UTC()
	if input.InvoiceDate != nil {
		invoiceDate = *input.InvoiceDate
	}
	if input.DueDate != nil && input.DueDate.Before(invoiceDate) {
		return nil, utils.NewValidationError("due_date", "due date must not be before the invoice date")
	}
	seqNo, err := utils.GetSequence[Invoice](tx.Statement.Context, tx, cache)
	if err != nil {
		return nil, err
	}
	status := InvoiceStatusUnpaid
	if input.Draft {
		status = InvoiceStatusDraft
	}
	invoice := Invoice{
		InvoiceNumber: utils.FormatSequence(invoicePrefix, seqNo),
		SequenceNo:    seqNo,
		BookingId:     booking.ID,
		CustomerId:    booking.CustomerId,
		Currency:      BaseCurrency,
		TotalPaid:     decimal.Zero,
		Status:        status,
		InvoiceDate:   invoiceDate,
		DueDate:       input.DueDate,
		Notes:         input.Notes,
		CreatedBy:     userId,
	}
	invoice.SetTotalsFrom(booking)
	if err := tx.Create(&invoice).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewConflictError("booking %s is already invoiced", booking.BookingNumber)
		}
		return nil, err
	}
	return &invoice, nil
}

type InvoiceFilter struct {
	Status     InvoiceStatus
	CustomerId int
	Limit      int
	Offset     int
}

// ListInvoices filters through the caller's invoice scope.
func ListInvoices(ctx context.Context, db *gorm.DB, scope AccessScope, filter InvoiceFilter) ([]*Invoice, error) {
	invoices, err := AccessibleInvoiceIds(ctx, db, scope.Customers)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	q := db.WithContext(ctx).Model(&Invoice{}).Scopes(invoices.Filter("id"))
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerId > 0 {
		q = q.Where("customer_id = ?", filter.CustomerId)
	}
	var results []*Invoice
	err = q.Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&results).Error
	return results, err
}

func GetInvoice(ctx context.Context, db *gorm.DB, scope AccessScope, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, db, "invoice", id)
	if err != nil {
		return nil, err
	}
	if err := scope.CheckCustomer(invoice.CustomerId, "invoice", id); err != nil {
		return nil, err
	}
	return invoice, nil
}

// FindBookingInvoice returns nil when the booking has no invoice.
func FindBookingInvoice(tx *gorm.DB, bookingId int) (*Invoice, error) {
	var invoices []Invoice
	if err := tx.Where("booking_id = ?", bookingId).Limit(1).Find(&invoices).Error; err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}
