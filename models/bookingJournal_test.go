package models_test

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localHotelBooking(t *testing.T) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:             7,
		BookingNumber:  "BK-000007",
		ServiceType:    models.ServiceTypeHotel,
		CustomerId:     1,
		SaleAmount:     testdb.Dec("1050"),
		SaleCurrency:   "AED",
		CostAmount:     testdb.Dec("800"),
		CostCurrency:   "AED",
		IsLocalTaxZone: true,
		VatApplicable:  true,
		Status:         models.BookingStatusConfirmed,
	}
	require.NoError(t, b.Recalculate(models.DefaultRateTable()))
	return b
}

func linesByCode(lines []models.JournalLine) map[string]models.JournalLine {
	m := make(map[string]models.JournalLine, len(lines))
	for _, l := range lines {
		m[l.AccountCode] = l
	}
	return m
}

func TestBookingJournalLines_Balanced(t *testing.T) {
	b := localHotelBooking(t)
	lines := b.JournalLines()
	require.Len(t, lines, 5)
	assert.True(t, models.IsBalanced(lines))

	byCode := linesByCode(lines)
	assertMoney(t, "AR debit", "1050", byCode[models.AccountCodeAccountsReceivable].Debit)
	assertMoney(t, "revenue credit", "1000", byCode[models.AccountCodeSalesRevenue].Credit)
	assertMoney(t, "VAT credit", "50", byCode[models.AccountCodeVatPayable].Credit)
	assertMoney(t, "COGS debit", "800", byCode[models.AccountCodeCostOfSales].Debit)
	assertMoney(t, "AP credit", "800", byCode[models.AccountCodeAccountsPayable].Credit)
}

func TestBookingJournalLines_OmitsZeroVat(t *testing.T) {
	f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
		ServiceType: models.ServiceTypeFlight,
		SaleAmount:  testdb.DecPtr("1000"),
		CostAmount:  testdb.DecPtr("900"),
	})
	require.NoError(t, err)
	lines := models.BookingJournalLines(f)
	assert.Len(t, lines, 4)
	_, hasVat := linesByCode(lines)[models.AccountCodeVatPayable]
	assert.False(t, hasVat)
	assert.True(t, models.IsBalanced(lines))
}

func TestNewRefundBooking_MirrorsOriginal(t *testing.T) {
	original := localHotelBooking(t)
	refund, err := models.NewRefundBooking(models.DefaultRateTable(), original, 3, "customer request")
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusRefund, refund.Status)
	require.NotNil(t, refund.RefundOfId)
	assert.Equal(t, original.ID, *refund.RefundOfId)
	assert.Equal(t, 0, refund.ID)
	assert.Equal(t, "RF-BK-000007", refund.BookingNumber)
	assert.Equal(t, 3, refund.CreatedBy)

	assertMoney(t, "SaleAmount", "-1050", refund.SaleAmount)
	assertMoney(t, "NetBeforeVat", "-1000", refund.NetBeforeVat)
	assertMoney(t, "VatAmount", "-50", refund.VatAmount)
	assertMoney(t, "TotalWithVat", "-1050", refund.TotalWithVat)
	assertMoney(t, "GrossProfit", "-200", refund.GrossProfit)

	// every line lands on the opposite side of the original
	lines := refund.JournalLines()
	assert.True(t, models.IsBalanced(lines))
	byCode := linesByCode(lines)
	assertMoney(t, "AR credit", "1050", byCode[models.AccountCodeAccountsReceivable].Credit)
	assertMoney(t, "revenue debit", "1000", byCode[models.AccountCodeSalesRevenue].Debit)
	assertMoney(t, "VAT debit", "50", byCode[models.AccountCodeVatPayable].Debit)
	assertMoney(t, "COGS credit", "800", byCode[models.AccountCodeCostOfSales].Credit)
	assertMoney(t, "AP debit", "800", byCode[models.AccountCodeAccountsPayable].Debit)

	// the original is left alone
	assertMoney(t, "original SaleAmount", "1050", original.SaleAmount)
	assert.Equal(t, models.BookingStatusConfirmed, original.Status)
}

func TestEffectiveRates_KeepsPricingRate(t *testing.T) {
	b := &models.Booking{
		ServiceType:  models.ServiceTypeTransfer,
		SaleAmount:   testdb.Dec("100"),
		SaleCurrency: "USD",
		CostAmount:   testdb.Dec("50"),
		CostCurrency: "EUR",
	}
	require.NoError(t, b.Recalculate(models.DefaultRateTable()))
	assertMoney(t, "SaleAmountBase", "367.25", b.SaleAmountBase)

	moved := models.NewRateTable("AED", map[string]decimal.Decimal{"USD": testdb.Dec("5"), "EUR": testdb.Dec("6")})
	rates := b.EffectiveRates(moved)
	assertMoney(t, "USD", "3.6725", rates.Rate("USD"))
	assertMoney(t, "EUR", "4", rates.Rate("EUR"))

	refund, err := models.NewRefundBooking(rates, b, 1, "")
	require.NoError(t, err)
	assertMoney(t, "refund SaleAmountBase", "-367.25", refund.SaleAmountBase)
	assertMoney(t, "refund CostAmountBase", "-200", refund.CostAmountBase)
}
