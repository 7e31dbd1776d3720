package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const PaymentPrefix = "PY"

// Payment is money paid to a supplier. AccountAmount is the amount withdrawn
// from the linked money account, kept so a reversal undoes exactly that.
type Payment struct {
	ID             int             `gorm:"primary_key" json:"id"`
	PaymentNumber  string          `gorm:"uniqueIndex;size:30;not null" json:"payment_number"`
	SequenceNo     int64           `gorm:"index;not null" json:"sequence_no"`
	SupplierId     int             `gorm:"index;not null" json:"supplier_id"`
	BookingId      *int            `gorm:"index" json:"booking_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	ExchangeRate   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:1" json:"exchange_rate"`
	BaseAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"base_amount"`
	PaymentMethod  PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	MoneyAccountId *int            `gorm:"index" json:"money_account_id"`
	AccountAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"account_amount"`
	PaymentDate    time.Time       `gorm:"not null" json:"payment_date"`
	Reference      string          `gorm:"size:100" json:"reference"`
	JournalEntryId *int            `json:"journal_entry_id"`
	CreatedBy      int             `json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	SupplierId     int              `json:"supplier_id" validate:"required"`
	BookingId      *int             `json:"booking_id"`
	Amount         *decimal.Decimal `json:"amount"`
	Currency       string           `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod  string           `json:"payment_method" validate:"required"`
	MoneyAccountId *int             `json:"money_account_id"`
	PaymentDate    *time.Time       `json:"payment_date"`
	Reference      string           `json:"reference" validate:"max=100"`
}

// Validate checks the input shape. BANK payments must name the bank account.
func (input *NewPayment) Validate() (PaymentMethod, error) {
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
	if method == PaymentMethodBank && (input.MoneyAccountId == nil || *input.MoneyAccountId == 0) {
		return "", utils.NewValidationError("money_account_id", "bank payments require a bank account")
	}
	return method, nil
}

type PaymentFilter struct {
	SupplierId int
	BookingId  int
	Limit      int
	Offset     int
}

// ListPayments shows payments to suppliers reachable from the caller's customers.
func ListPayments(ctx context.Context, db *gorm.DB, scope AccessScope, filter PaymentFilter) ([]*Payment, error) {
	suppliers, err := AccessibleSupplierIds(ctx, db, scope.Customers)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	q := db.WithContext(ctx).Model(&Payment{}).Scopes(suppliers.Filter("supplier_id"))
	if filter.SupplierId > 0 {
		q = q.Where("supplier_id = ?", filter.SupplierId)
	}
	if filter.BookingId > 0 {
		q = q.Where("booking_id = ?", filter.BookingId)
	}
	var results []*Payment
	err = q.Order("id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&results).Error
	return results, err
}

func GetPayment(ctx context.Context, db *gorm.DB, id int) (*Payment, error) {
	return utils.FetchModel[Payment](ctx, db, "payment", id)
}
