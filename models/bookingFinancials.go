package models

import (
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
)

// FinancialInput is the raw money side of a booking. Commission rates are a
// percentage of gross profit.
type FinancialInput struct {
	ServiceType                   ServiceType      `json:"service_type"`
	SaleAmount                    *decimal.Decimal `json:"sale_amount"`
	SaleCurrency                  string           `json:"sale_currency"`
	CostAmount                    *decimal.Decimal `json:"cost_amount"`
	CostCurrency                  string           `json:"cost_currency"`
	IsLocalTaxZone                bool             `json:"is_local_tax_zone"`
	VatApplicable                 bool             `json:"vat_applicable"`
	AgentCommissionRate           decimal.Decimal  `json:"agent_commission_rate"`
	CustomerServiceCommissionRate decimal.Decimal  `json:"customer_service_commission_rate"`
}

// BookingFinancials is the computed snapshot, every amount in base currency.
type BookingFinancials struct {
	SaleAmountBase            decimal.Decimal `json:"sale_amount_base"`
	CostAmountBase            decimal.Decimal `json:"cost_amount_base"`
	NetBeforeVat              decimal.Decimal `json:"net_before_vat"`
	VatAmount                 decimal.Decimal `json:"vat_amount"`
	TotalWithVat              decimal.Decimal `json:"total_with_vat"`
	GrossProfit               decimal.Decimal `json:"gross_profit"`
	AgentCommission           decimal.Decimal `json:"agent_commission"`
	CustomerServiceCommission decimal.Decimal `json:"customer_service_commission"`
	TotalCommission           decimal.Decimal `json:"total_commission"`
	ProfitAfterCommission     decimal.Decimal `json:"profit_after_commission"`
	NetProfit                 decimal.Decimal `json:"net_profit"`
	ProfitMarginPercent       decimal.Decimal `json:"profit_margin_percent"`
}

func validateCommissionRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return utils.NewValidationError(field, "commission rate must be between 0 and 100")
	}
	return nil
}

func commissionOn(gross decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(gross.Mul(rate).Div(hundred))
}

// CalculateBookingFinancials derives every computed booking field. Amounts are
// normalized to base first and each output is rounded to 2 places; derived
// totals are built from the rounded parts so they add up exactly.
func CalculateBookingFinancials(rates RateTable, in FinancialInput) (BookingFinancials, error) {
	var f BookingFinancials
	if in.SaleAmount == nil {
		return f, utils.NewValidationError("sale_amount", "sale amount is required")
	}
	if in.CostAmount == nil {
		return f, utils.NewValidationError("cost_amount", "cost amount is required")
	}
	if !in.ServiceType.IsValid() {
		return f, utils.NewValidationError("service_type", "invalid service type %q", in.ServiceType)
	}
	if err := validateCommissionRate("agent_commission_rate", in.AgentCommissionRate); err != nil {
		return f, err
	}
	if err := validateCommissionRate("customer_service_commission_rate", in.CustomerServiceCommissionRate); err != nil {
		return f, err
	}

	sale := RoundMoney(rates.ToBase(*in.SaleAmount, in.SaleCurrency))
	cost := RoundMoney(rates.ToBase(*in.CostAmount, in.CostCurrency))
	f.SaleAmountBase = sale
	f.CostAmountBase = cost

	commissions := func(gross decimal.Decimal) {
		f.AgentCommission = commissionOn(gross, in.AgentCommissionRate)
		f.CustomerServiceCommission = commissionOn(gross, in.CustomerServiceCommissionRate)
		f.TotalCommission = f.AgentCommission.Add(f.CustomerServiceCommission)
		f.ProfitAfterCommission = gross.Sub(f.TotalCommission)
	}

	vatApplies := in.VatApplicable && in.ServiceType != ServiceTypeFlight
	switch {
	case vatApplies && in.IsLocalTaxZone:
		// sale is VAT inclusive
		f.NetBeforeVat = RoundMoney(sale.Div(decimal.NewFromInt(1).Add(VatRate)))
		f.VatAmount = sale.Sub(f.NetBeforeVat)
		f.TotalWithVat = sale
		f.GrossProfit = f.NetBeforeVat.Sub(cost)
		commissions(f.GrossProfit)
	case vatApplies:
		// VAT on the margin left after commission
		f.NetBeforeVat = sale
		f.GrossProfit = sale.Sub(cost)
		commissions(f.GrossProfit)
		f.VatAmount = RoundMoney(f.ProfitAfterCommission.Mul(VatRate))
		f.TotalWithVat = sale.Add(f.VatAmount)
	default:
		f.NetBeforeVat = sale
		f.VatAmount = decimal.Zero
		f.TotalWithVat = sale
		f.GrossProfit = sale.Sub(cost)
		commissions(f.GrossProfit)
	}

	if vatApplies {
		f.NetProfit = f.GrossProfit.Sub(f.TotalCommission).Sub(f.VatAmount)
	} else {
		f.NetProfit = f.GrossProfit.Sub(f.TotalCommission)
	}
	f.ProfitMarginPercent = profitMargin(f.NetProfit, sale)
	return f, nil
}

func profitMargin(netProfit, sale decimal.Decimal) decimal.Decimal {
	if !sale.IsPositive() {
		return decimal.Zero
	}
	return RoundMoney(netProfit.Div(sale).Mul(hundred))
}

// BookingSummary aggregates a batch of bookings in base currency.
type BookingSummary struct {
	Count                int             `json:"count"`
	TotalSale            decimal.Decimal `json:"total_sale"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalVat             decimal.Decimal `json:"total_vat"`
	TotalCommission      decimal.Decimal `json:"total_commission"`
	TotalGrossProfit     decimal.Decimal `json:"total_gross_profit"`
	TotalNetProfit       decimal.Decimal `json:"total_net_profit"`
	AverageMarginPercent decimal.Decimal `json:"average_margin_percent"`
}

func SummarizeBookings(bookings []Booking) BookingSummary {
	s := BookingSummary{Count: len(bookings)}
	margins := decimal.Zero
	for _, b := range bookings {
		s.TotalSale = s.TotalSale.Add(b.SaleAmountBase)
		s.TotalCost = s.TotalCost.Add(b.CostAmountBase)
		s.TotalRevenue = s.TotalRevenue.Add(b.NetBeforeVat)
		s.TotalVat = s.TotalVat.Add(b.VatAmount)
		s.TotalCommission = s.TotalCommission.Add(b.TotalCommission)
		s.TotalGrossProfit = s.TotalGrossProfit.Add(b.GrossProfit)
		s.TotalNetProfit = s.TotalNetProfit.Add(b.NetProfit)
		margins = margins.Add(b.ProfitMarginPercent)
	}
	if s.Count > 0 {
		s.AverageMarginPercent = RoundMoney(margins.Div(decimal.NewFromInt(int64(s.Count))))
	}
	return s
}
