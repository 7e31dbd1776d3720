package models

import "github.com/shopspring/decimal"

const (
	BaseCurrency  = "AED"
	MoneyDecimals = 2
)

var (
	// VatRate is the fixed 5% VAT.
	VatRate = decimal.NewFromFloat(0.05)
	// MoneyEpsilon is the tolerance for comparing accumulated amounts.
	MoneyEpsilon = decimal.NewFromFloat(0.01)

	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds to the persisted precision.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyDecimals)
}

// MoneyEqual compares two amounts within MoneyEpsilon.
func MoneyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(MoneyEpsilon)
}

func sumMoney(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
