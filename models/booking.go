package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BookingPrefix       = "BK"
	RefundBookingPrefix = "RF"
)

// Booking owns its computed financial snapshot. The computed columns are only
// ever written from CalculateBookingFinancials.
type Booking struct {
	ID            int         `gorm:"primary_key" json:"id"`
	BookingNumber string      `gorm:"uniqueIndex;size:30;not null" json:"booking_number"`
	SequenceNo    int64       `gorm:"index;not null" json:"sequence_no"`
	ServiceType   ServiceType `gorm:"size:20;not null;index" json:"service_type"`
	CustomerId    int         `gorm:"index;not null" json:"customer_id"`
	SupplierId    int         `gorm:"index;not null;default:0" json:"supplier_id"`

	SaleAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"sale_amount"`
	SaleCurrency   string          `gorm:"size:3;not null" json:"sale_currency"`
	CostAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"cost_amount"`
	CostCurrency   string          `gorm:"size:3;not null" json:"cost_currency"`
	IsLocalTaxZone bool            `gorm:"not null" json:"is_local_tax_zone"`
	VatApplicable  bool            `gorm:"not null" json:"vat_applicable"`

	AgentId                       int             `gorm:"index;not null;default:0" json:"agent_id"`
	AgentCommissionRate           decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"agent_commission_rate"`
	CustomerServiceId             int             `gorm:"index;not null;default:0" json:"customer_service_id"`
	CustomerServiceCommissionRate decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"customer_service_commission_rate"`

	SaleAmountBase            decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"sale_amount_base"`
	CostAmountBase            decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"cost_amount_base"`
	NetBeforeVat              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"net_before_vat"`
	VatAmount                 decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"vat_amount"`
	TotalWithVat              decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_with_vat"`
	GrossProfit               decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"gross_profit"`
	AgentCommission           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"agent_commission"`
	CustomerServiceCommission decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"customer_service_commission"`
	TotalCommission           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_commission"`
	NetProfit                 decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"net_profit"`
	ProfitMarginPercent       decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"profit_margin_percent"`

	ServiceDetails     datatypes.JSON `json:"service_details"`
	TravelDate         *time.Time     `json:"travel_date"`
	Status             BookingStatus  `gorm:"size:20;not null;index" json:"status"`
	RefundOfId         *int           `gorm:"index" json:"refund_of_id"`
	CancelledAt        *time.Time     `json:"cancelled_at"`
	CancellationReason string         `gorm:"size:255" json:"cancellation_reason"`
	CreatedBy          int            `json:"created_by"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBooking struct {
	ServiceType                   ServiceType      `json:"service_type" validate:"required"`
	CustomerId                    int              `json:"customer_id" validate:"required"`
	SupplierId                    int              `json:"supplier_id"`
	SaleAmount                    *decimal.Decimal `json:"sale_amount"`
	SaleCurrency                  string           `json:"sale_currency" validate:"omitempty,len=3"`
	CostAmount                    *decimal.Decimal `json:"cost_amount"`
	CostCurrency                  string           `json:"cost_currency" validate:"omitempty,len=3"`
	IsLocalTaxZone                bool             `json:"is_local_tax_zone"`
	VatApplicable                 bool             `json:"vat_applicable"`
	AgentId                       int              `json:"agent_id"`
	AgentCommissionRate           *decimal.Decimal `json:"agent_commission_rate"`
	CustomerServiceId             int              `json:"customer_service_id"`
	CustomerServiceCommissionRate *decimal.Decimal `json:"customer_service_commission_rate"`
	ServiceDetails                json.RawMessage  `json:"service_details"`
	TravelDate                    *time.Time       `json:"travel_date"`
}

// BookingPatch lists every field an edit may change. Service type and customer
// are fixed once a booking exists. Nil fields are left untouched.
type BookingPatch struct {
	SupplierId                    *int             `json:"supplier_id"`
	SaleAmount                    *decimal.Decimal `json:"sale_amount"`
	SaleCurrency                  *string          `json:"sale_currency"`
	CostAmount                    *decimal.Decimal `json:"cost_amount"`
	CostCurrency                  *string          `json:"cost_currency"`
	IsLocalTaxZone                *bool            `json:"is_local_tax_zone"`
	VatApplicable                 *bool            `json:"vat_applicable"`
	AgentId                       *int             `json:"agent_id"`
	AgentCommissionRate           *decimal.Decimal `json:"agent_commission_rate"`
	CustomerServiceId             *int             `json:"customer_service_id"`
	CustomerServiceCommissionRate *decimal.Decimal `json:"customer_service_commission_rate"`
	ServiceDetails                json.RawMessage  `json:"service_details"`
	TravelDate                    *time.Time       `json:"travel_date"`
}

// Apply copies the set fields onto b and reports whether any input of the
// financial calculation changed.
func (p BookingPatch) Apply(b *Booking) (financial bool) {
	if p.SupplierId != nil {
		b.SupplierId = *p.SupplierId
	}
	if p.SaleAmount != nil {
		b.SaleAmount, financial = RoundMoney(*p.SaleAmount), true
	}
	if p.SaleCurrency != nil {
		b.SaleCurrency, financial = normalizeCurrency(*p.SaleCurrency), true
	}
	if p.CostAmount != nil {
		b.CostAmount, financial = RoundMoney(*p.CostAmount), true
	}
	if p.CostCurrency != nil {
		b.CostCurrency, financial = normalizeCurrency(*p.CostCurrency), true
	}
	if p.IsLocalTaxZone != nil {
		b.IsLocalTaxZone, financial = *p.IsLocalTaxZone, true
	}
	if p.VatApplicable != nil {
		b.VatApplicable, financial = *p.VatApplicable, true
	}
	if p.AgentId != nil {
		b.AgentId = *p.AgentId
	}
	if p.AgentCommissionRate != nil {
		b.AgentCommissionRate, financial = *p.AgentCommissionRate, true
	}
	if p.CustomerServiceId != nil {
		b.CustomerServiceId = *p.CustomerServiceId
	}
	if p.CustomerServiceCommissionRate != nil {
		b.CustomerServiceCommissionRate, financial = *p.CustomerServiceCommissionRate, true
	}
	if p.TravelDate != nil {
		b.TravelDate = p.TravelDate
	}
	return financial
}

func (b *Booking) financialInput() FinancialInput {
	sale, cost := b.SaleAmount, b.CostAmount
	return FinancialInput{
		ServiceType:                   b.ServiceType,
		SaleAmount:                    &sale,
		SaleCurrency:                  b.SaleCurrency,
		CostAmount:                    &cost,
		CostCurrency:                  b.CostCurrency,
		IsLocalTaxZone:                b.IsLocalTaxZone,
		VatApplicable:                 b.VatApplicable,
		AgentCommissionRate:           b.AgentCommissionRate,
		CustomerServiceCommissionRate: b.CustomerServiceCommissionRate,
	}
}

func (b *Booking) applyFinancials(f BookingFinancials) {
	b.SaleAmountBase = f.SaleAmountBase
	b.CostAmountBase = f.CostAmountBase
	b.NetBeforeVat = f.NetBeforeVat
	b.VatAmount = f.VatAmount
	b.TotalWithVat = f.TotalWithVat
	b.GrossProfit = f.GrossProfit
	b.AgentCommission = f.AgentCommission
	b.CustomerServiceCommission = f.CustomerServiceCommission
	b.TotalCommission = f.TotalCommission
	b.NetProfit = f.NetProfit
	b.ProfitMarginPercent = f.ProfitMarginPercent
}

// Financials returns the stored snapshot in calculator form.
func (b *Booking) Financials() BookingFinancials {
	return BookingFinancials{
		SaleAmountBase:            b.SaleAmountBase,
		CostAmountBase:            b.CostAmountBase,
		NetBeforeVat:              b.NetBeforeVat,
		VatAmount:                 b.VatAmount,
		TotalWithVat:              b.TotalWithVat,
		GrossProfit:               b.GrossProfit,
		AgentCommission:           b.AgentCommission,
		CustomerServiceCommission: b.CustomerServiceCommission,
		TotalCommission:           b.TotalCommission,
		ProfitAfterCommission:     b.GrossProfit.Sub(b.TotalCommission),
		NetProfit:                 b.NetProfit,
		ProfitMarginPercent:       b.ProfitMarginPercent,
	}
}

// Recalculate derives every computed column from the stored inputs.
func (b *Booking) Recalculate(rates RateTable) error {
	f, err := CalculateBookingFinancials(rates, b.financialInput())
	if err != nil {
		return err
	}
	b.applyFinancials(f)
	return nil
}

func (b *Booking) Details() (ServiceDetails, error) {
	return DecodeServiceDetails(b.ServiceType, b.ServiceDetails)
}

func (b *Booking) JournalLines() []JournalLine {
	return BookingJournalLines(b.Financials())
}

// resolveCommissionRate prefers the explicit rate, then the assignment override
// for the booking's service type, then zero.
func resolveCommissionRate(tx *gorm.DB, explicit *decimal.Decimal, customerId int, userId int, role AssignedRole, t ServiceType) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if userId == 0 {
		return decimal.Zero, nil
	}
	assignment, err := findActiveAssignment(tx, customerId, userId, role)
	if err != nil || assignment == nil {
		return decimal.Zero, err
	}
	rate, _ := assignment.CommissionRateFor(t)
	return rate, nil
}

func validateBookingReferences(tx *gorm.DB, customerId, supplierId, agentId, customerServiceId int) error {
	ctx := tx.Statement.Context
	if err := utils.ValidateResourceId[Customer](ctx, tx, "customer", customerId); err != nil {
		return err
	}
	if supplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, tx, "supplier", supplierId); err != nil {
			return err
		}
	}
	if agentId > 0 {
		if err := utils.ValidateResourceId[User](ctx, tx, "agent", agentId); err != nil {
			return err
		}
	}
	if customerServiceId > 0 {
		if err := utils.ValidateResourceId[User](ctx, tx, "customer service user", customerServiceId); err != nil {
			return err
		}
	}
	return nil
}

// CreateBooking validates input, runs the calculator and stores a DRAFT booking.
func CreateBooking(tx *gorm.DB, cache *config.Cache, rates RateTable, userId int, input *NewBooking) (*Booking, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.ServiceType.IsValid() {
		return nil, utils.NewValidationError("service_type", "invalid service type %q", input.ServiceType)
	}
	if input.SaleAmount == nil {
		return nil, utils.NewValidationError("sale_amount", "sale amount is required")
	}
	if input.CostAmount == nil {
		return nil, utils.NewValidationError("cost_amount", "cost amount is required")
	}
	if err := validateBookingReferences(tx, input.CustomerId, input.SupplierId, input.AgentId, input.CustomerServiceId); err != nil {
		return nil, err
	}
	details, err := ValidateServiceDetails(input.ServiceType, input.ServiceDetails)
	if err != nil {
		return nil, err
	}
	agentRate, err := resolveCommissionRate(tx, input.AgentCommissionRate, input.CustomerId, input.AgentId, AssignedRoleSalesAgent, input.ServiceType)
	if err != nil {
		return nil, err
	}
	csRate, err := resolveCommissionRate(tx, input.CustomerServiceCommissionRate, input.CustomerId, input.CustomerServiceId, AssignedRoleCustomerService, input.ServiceType)
	if err != nil {
		return nil, err
	}

	saleCurrency := normalizeCurrency(input.SaleCurrency)
	if saleCurrency == "" {
		saleCurrency = BaseCurrency
	}
	costCurrency := normalizeCurrency(input.CostCurrency)
	if costCurrency == "" {
		costCurrency = saleCurrency
	}

	booking := Booking{
		ServiceType:                   input.ServiceType,
		CustomerId:                    input.CustomerId,
		SupplierId:                    input.SupplierId,
		SaleAmount:                    RoundMoney(*input.SaleAmount),
		SaleCurrency:                  saleCurrency,
		CostAmount:                    RoundMoney(*input.CostAmount),
		CostCurrency:                  costCurrency,
		IsLocalTaxZone:                input.IsLocalTaxZone,
		VatApplicable:                 input.VatApplicable,
		AgentId:                       input.AgentId,
		AgentCommissionRate:           agentRate,
		CustomerServiceId:             input.CustomerServiceId,
		CustomerServiceCommissionRate: csRate,
		ServiceDetails:                details,
		TravelDate:                    input.TravelDate,
		Status:                        BookingStatusDraft,
		CreatedBy:                     userId,
	}
	if err := booking.Recalculate(rates); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Booking](tx.Statement.Context, tx, cache)
	if err != nil {
		return nil, err
	}
	booking.SequenceNo = seqNo
	booking.BookingNumber = utils.FormatSequence(BookingPrefix, seqNo)
	if err := tx.Create(&booking).Error; err != nil {
		return nil, utils.NumberTakenError(err, booking.BookingNumber)
	}
	return &booking, nil
}

// PatchBooking applies patch to a locked booking and recalculates it. The
// returned flag is true when any amount the ledger posts has moved.
func PatchBooking(tx *gorm.DB, rates RateTable, booking *Booking, patch BookingPatch) (bool, error) {
	if booking.Status.IsTerminal() {
		return false, utils.NewConflictError("booking %s is %s and cannot be edited", booking.BookingNumber, booking.Status)
	}
	before := *booking
	patch.Apply(booking)
	if err := validateBookingReferences(tx, booking.CustomerId, booking.SupplierId, booking.AgentId, booking.CustomerServiceId); err != nil {
		return false, err
	}
	if len(patch.ServiceDetails) > 0 {
		details, err := ValidateServiceDetails(booking.ServiceType, patch.ServiceDetails)
		if err != nil {
			return false, err
		}
		booking.ServiceDetails = details
	}
	// a new agent without an explicit rate picks up the assignment override
	if patch.AgentId != nil && patch.AgentCommissionRate == nil && booking.AgentId != before.AgentId {
		rate, err := resolveCommissionRate(tx, nil, booking.CustomerId, booking.AgentId, AssignedRoleSalesAgent, booking.ServiceType)
		if err != nil {
			return false, err
		}
		booking.AgentCommissionRate = rate
	}
	if patch.CustomerServiceId != nil && patch.CustomerServiceCommissionRate == nil && booking.CustomerServiceId != before.CustomerServiceId {
		rate, err := resolveCommissionRate(tx, nil, booking.CustomerId, booking.CustomerServiceId, AssignedRoleCustomerService, booking.ServiceType)
		if err != nil {
			return false, err
		}
		booking.CustomerServiceCommissionRate = rate
	}
	if err := booking.Recalculate(rates); err != nil {
		return false, err
	}
	if err := tx.Save(booking).Error; err != nil {
		return false, err
	}
	return !before.postsSameAs(booking), nil
}

func (b *Booking) postsSameAs(other *Booking) bool {
	return b.NetBeforeVat.Equal(other.NetBeforeVat) &&
		b.VatAmount.Equal(other.VatAmount) &&
		b.TotalWithVat.Equal(other.TotalWithVat) &&
		b.CostAmountBase.Equal(other.CostAmountBase)
}

// EffectiveRates rebuilds the conversion rates the booking was last priced
// with, so a refund mirrors it exactly even after the rate table moved.
func (b *Booking) EffectiveRates(current RateTable) RateTable {
	rates := map[string]decimal.Decimal{}
	for k, v := range current.Rates {
		rates[k] = v
	}
	if !b.SaleAmount.IsZero() && b.SaleCurrency != current.Base {
		rates[b.SaleCurrency] = b.SaleAmountBase.Div(b.SaleAmount)
	}
	if !b.CostAmount.IsZero() && b.CostCurrency != current.Base && b.CostCurrency != b.SaleCurrency {
		rates[b.CostCurrency] = b.CostAmountBase.Div(b.CostAmount)
	}
	return NewRateTable(current.Base, rates)
}

// NewRefundBooking builds the compensating booking for original: same inputs,
// negated sale and cost, recomputed by the calculator.
func NewRefundBooking(rates RateTable, original *Booking, userId int, reason string) (*Booking, error) {
	refund := *original
	refund.ID = 0
	refund.SaleAmount = original.SaleAmount.Neg()
	refund.CostAmount = original.CostAmount.Neg()
	refund.Status = BookingStatusRefund
	refund.RefundOfId = &original.ID
	refund.BookingNumber = fmt.Sprintf("%s-%s", RefundBookingPrefix, original.BookingNumber)
	refund.CancellationReason = reason
	refund.CancelledAt = nil
	refund.CreatedBy = userId
	refund.CreatedAt = time.Time{}
	refund.UpdatedAt = time.Time{}
	if err := refund.Recalculate(rates); err != nil {
		return nil, err
	}
	return &refund, nil
}

// PostBookingJournals records the booking's revenue, VAT and cost entries.
func PostBookingJournals(tx *gorm.DB, cache *config.Cache, userId int, booking *Booking) ([]*JournalEntry, error) {
	pairs := bookingEntryPairs(booking.Financials())
	entries := make([]*JournalEntry, 0, len(pairs))
	for _, p := range pairs {
		debit, err := GetAccountByCode(tx, p.DebitCode)
		if err != nil {
			return nil, err
		}
		credit, err := GetAccountByCode(tx, p.CreditCode)
		if err != nil {
			return nil, err
		}
		entry, err := RecordJournalEntry(tx, cache, userId, &NewJournalEntry{
			EntryDate:       time.Now().UTC(),
			Description:     fmt.Sprintf("%s %s", booking.BookingNumber, p.Description),
			DebitAccountId:  debit.ID,
			CreditAccountId: credit.ID,
			Amount:          p.Amount,
			ReferenceType:   ReferenceTypeBooking,
			ReferenceId:     booking.ID,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type BookingFilter struct {
	Status      BookingStatus
	ServiceType ServiceType
	CustomerId  int
	SupplierId  int
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

func (f BookingFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ServiceType != "" {
		q = q.Where("service_type = ?", f.ServiceType)
	}
	if f.CustomerId > 0 {
		q = q.Where("customer_id = ?", f.CustomerId)
	}
	if f.SupplierId > 0 {
		q = q.Where("supplier_id = ?", f.SupplierId)
	}
	if f.FromDate != nil {
		q = q.Where("created_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("created_at <= ?", *f.ToDate)
	}
	return q
}

// ListBookings returns the bookings visible to scope; an empty scope yields none.
func ListBookings(ctx context.Context, db *gorm.DB, scope AccessScope, filter BookingFilter) ([]*Booking, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	var results []*Booking
	err := filter.apply(db.WithContext(ctx).Model(&Booking{})).
		Scopes(scope.Customers.Filter("customer_id")).
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&results).Error
	return results, err
}

func GetBooking(ctx context.Context, db *gorm.DB, scope AccessScope, id int) (*Booking, error) {
	booking, err := utils.FetchModel[Booking](ctx, db, "booking", id)
	if err != nil {
		return nil, err
	}
	if err := scope.CheckCustomer(booking.CustomerId, "booking", id); err != nil {
		return nil, err
	}
	return booking, nil
}

// SummarizeScopedBookings aggregates every visible booking matching filter.
func SummarizeScopedBookings(ctx context.Context, db *gorm.DB, scope AccessScope, filter BookingFilter) (BookingSummary, error) {
	var bookings []Booking
	err := filter.apply(db.WithContext(ctx).Model(&Booking{})).
		Scopes(scope.Customers.Filter("customer_id")).
		Find(&bookings).Error
	if err != nil {
		return BookingSummary{}, err
	}
	return SummarizeBookings(bookings), nil
}
