package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const ReceiptPrefix = "RC"

// Receipt is money received from a customer. BaseAmount is what counts toward
// the linked invoice; AccountAmount is what was added to the money account.
type Receipt struct {
	ID             int             `gorm:"primary_key" json:"id"`
	ReceiptNumber  string          `gorm:"uniqueIndex;size:30;not null" json:"receipt_number"`
	SequenceNo     int64           `gorm:"index;not null" json:"sequence_no"`
	CustomerId     int             `gorm:"index;not null" json:"customer_id"`
	InvoiceId      *int            `gorm:"index" json:"invoice_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	ExchangeRate   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:1" json:"exchange_rate"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"base_amount"`
	PaymentMethod  PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	MoneyAccountId *int            `gorm:"index" json:"money_account_id"`
	AccountAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"account_amount"`
	ReceiptDate    time.Time       `gorm:"not null" json:"receipt_date"`
	Reference      string          `gorm:"size:100" json:"reference"`
	Status         ReceiptStatus   `gorm:"size:20;not null;index" json:"status"`
	MatchStatus    MatchStatus     `gorm:"size:20;not null" json:"match_status"`
	JournalEntryId *int            `json:"journal_entry_id"`
	CreatedBy      int             `json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewReceipt struct {
	CustomerId     int              `json:"customer_id" validate:"required"`
	InvoiceId      *int             `json:"invoice_id"`
	Amount         *decimal.Decimal `json:"amount"`
	Currency       string           `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod  string           `json:"payment_method" validate:"required"`
	MoneyAccountId *int             `json:"money_account_id"`
	ReceiptDate    *time.Time       `json:"receipt_date"`
	Reference      string           `json:"reference" validate:"max=100"`
}

// Validate checks the input shape; references are checked by the ledger.
func (input *NewReceipt) Validate() (PaymentMethod, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return "", err
	}
	method, ok := ParsePaymentMethod(input.PaymentMethod)
	if !ok {
		return "", utils.NewValidationError("payment_method", "invalid payment method %q", input.PaymentMethod)
	}
	if input.Amount == nil || !RoundMoney(*input.Amount).IsPositive() {
		return "", utils.NewValidationError("amount", "amount must be greater than zero")
	}
	return method, nil
}

type ReceiptFilter struct {
	CustomerId int
	InvoiceId  int
	Status     ReceiptStatus
	Limit      int
	Offset     int
}

func ListReceipts(ctx context.Context, db *gorm.DB, scope AccessScope, filter ReceiptFilter) ([]*Receipt, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	q := db.WithContext(ctx).Model(&Receipt{}).Scopes(scope.Customers.Filter("customer_id"))
	if filter.CustomerId > 0 {
		q = q.Where("customer_id = ?", filter.CustomerId)
	}
	if filter.InvoiceId > 0 {
		q = q.Where("invoice_id = ?", filter.InvoiceId)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var results []*Receipt
	err := q.Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&results).Error
	return results, err
}

func GetReceipt(ctx context.Context, db *gorm.DB, scope AccessScope, id int) (*Receipt, error) {
	receipt, err := utils.FetchModel[Receipt](ctx, db, "receipt", id)
	if err != nil {
		return nil, err
	}
	if err := scope.CheckCustomer(receipt.CustomerId, "receipt", id); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ActiveReceiptsTotal sums the base amounts of non-cancelled receipts on invoiceId.
// Summed in Go so the result keeps decimal precision on every driver.
func ActiveReceiptsTotal(tx *gorm.DB, invoiceId int) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := tx.Model(&Receipt{}).
		Where("invoice_id = ? AND status <> ?", invoiceId, ReceiptStatusCancelled).
		Pluck("base_amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(sumMoney(amounts...)), nil
}
