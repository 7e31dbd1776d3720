package models_test

import (
	"testing"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/testdb"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMoney(t *testing.T, field string, expected string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(expected)) {
		t.Fatalf("%s expected %s, got %s", field, expected, got)
	}
}

func TestCalculateBookingFinancials_LocalTaxZoneIsVatInclusive(t *testing.T) {
	f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
		ServiceType:                   models.ServiceTypeHotel,
		SaleAmount:                    testdb.DecPtr("1050"),
		SaleCurrency:                  "AED",
		CostAmount:                    testdb.DecPtr("800"),
		CostCurrency:                  "AED",
		IsLocalTaxZone:                true,
		VatApplicable:                 true,
		AgentCommissionRate:           testdb.Dec("10"),
		CustomerServiceCommissionRate: testdb.Dec("5"),
	})
	require.NoError(t, err)

	assertMoney(t, "NetBeforeVat", "1000", f.NetBeforeVat)
	assertMoney(t, "VatAmount", "50", f.VatAmount)
	assertMoney(t, "TotalWithVat", "1050", f.TotalWithVat)
	assertMoney(t, "GrossProfit", "200", f.GrossProfit)
	assertMoney(t, "AgentCommission", "20", f.AgentCommission)
	assertMoney(t, "CustomerServiceCommission", "10", f.CustomerServiceCommission)
	assertMoney(t, "TotalCommission", "30", f.TotalCommission)
	assertMoney(t, "ProfitAfterCommission", "170", f.ProfitAfterCommission)
	assertMoney(t, "NetProfit", "120", f.NetProfit)
	assertMoney(t, "ProfitMarginPercent", "11.43", f.ProfitMarginPercent)
}

func TestCalculateBookingFinancials_NonLocalVatOnMargin(t *testing.T) {
	f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
		ServiceType:         models.ServiceTypeVisa,
		SaleAmount:          testdb.DecPtr("1000"),
		CostAmount:          testdb.DecPtr("800"),
		VatApplicable:       true,
		AgentCommissionRate: testdb.Dec("10"),
	})
	require.NoError(t, err)

	assertMoney(t, "NetBeforeVat", "1000", f.NetBeforeVat)
	assertMoney(t, "GrossProfit", "200", f.GrossProfit)
	assertMoney(t, "TotalCommission", "20", f.TotalCommission)
	assertMoney(t, "VatAmount", "9", f.VatAmount)
	assertMoney(t, "TotalWithVat", "1009", f.TotalWithVat)
	assertMoney(t, "NetProfit", "171", f.NetProfit)
	assertMoney(t, "ProfitMarginPercent", "17.1", f.ProfitMarginPercent)
}

func TestCalculateBookingFinancials_FlightNeverTakesVat(t *testing.T) {
	for _, local := range []bool{true, false} {
		f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
			ServiceType:    models.ServiceTypeFlight,
			SaleAmount:     testdb.DecPtr("1000"),
			CostAmount:     testdb.DecPtr("900"),
			IsLocalTaxZone: local,
			VatApplicable:  true,
		})
		require.NoError(t, err)
		assertMoney(t, "VatAmount", "0", f.VatAmount)
		assertMoney(t, "NetBeforeVat", "1000", f.NetBeforeVat)
		assertMoney(t, "TotalWithVat", "1000", f.TotalWithVat)
		assertMoney(t, "NetProfit", "100", f.NetProfit)
		assertMoney(t, "ProfitMarginPercent", "10", f.ProfitMarginPercent)
	}
}

func TestCalculateBookingFinancials_ConvertsToBase(t *testing.T) {
	f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
		ServiceType:  models.ServiceTypeTransfer,
		SaleAmount:   testdb.DecPtr("100"),
		SaleCurrency: "USD",
		CostAmount:   testdb.DecPtr("300"),
		CostCurrency: "AED",
	})
	require.NoError(t, err)
	assertMoney(t, "SaleAmountBase", "367.25", f.SaleAmountBase)
	assertMoney(t, "CostAmountBase", "300", f.CostAmountBase)
	assertMoney(t, "GrossProfit", "67.25", f.GrossProfit)
}

func TestCalculateBookingFinancials_ZeroSaleHasNoMargin(t *testing.T) {
	f, err := models.CalculateBookingFinancials(models.DefaultRateTable(), models.FinancialInput{
		ServiceType: models.ServiceTypeActivity,
		SaleAmount:  testdb.DecPtr("0"),
		CostAmount:  testdb.DecPtr("50"),
	})
	require.NoError(t, err)
	assertMoney(t, "GrossProfit", "-50", f.GrossProfit)
	assertMoney(t, "ProfitMarginPercent", "0", f.ProfitMarginPercent)
}

func TestCalculateBookingFinancials_RejectsBadInput(t *testing.T) {
	base := func() models.FinancialInput {
		return models.FinancialInput{
			ServiceType: models.ServiceTypeHotel,
			SaleAmount:  testdb.DecPtr("100"),
			CostAmount:  testdb.DecPtr("50"),
		}
	}
	cases := map[string]func(in *models.FinancialInput){
		"missing sale":       func(in *models.FinancialInput) { in.SaleAmount = nil },
		"missing cost":       func(in *models.FinancialInput) { in.CostAmount = nil },
		"unknown service":    func(in *models.FinancialInput) { in.ServiceType = "SPACESHIP" },
		"agent rate above":   func(in *models.FinancialInput) { in.AgentCommissionRate = testdb.Dec("100.01") },
		"cs rate below zero": func(in *models.FinancialInput) { in.CustomerServiceCommissionRate = testdb.Dec("-1") },
	}
	for name, mutate := range cases {
		in := base()
		mutate(&in)
		_, err := models.CalculateBookingFinancials(models.DefaultRateTable(), in)
		assert.Truef(t, utils.IsValidationError(err), "%s: expected validation error, got %v", name, err)
	}
}

func TestSummarizeBookings(t *testing.T) {
	bookings := []models.Booking{
		{SaleAmountBase: testdb.Dec("1050"), CostAmountBase: testdb.Dec("800"), NetBeforeVat: testdb.Dec("1000"),
			VatAmount: testdb.Dec("50"), GrossProfit: testdb.Dec("200"), NetProfit: testdb.Dec("150"), ProfitMarginPercent: testdb.Dec("14.29")},
		{SaleAmountBase: testdb.Dec("500"), CostAmountBase: testdb.Dec("450"), NetBeforeVat: testdb.Dec("500"),
			GrossProfit: testdb.Dec("50"), TotalCommission: testdb.Dec("5"), NetProfit: testdb.Dec("45"), ProfitMarginPercent: testdb.Dec("9")},
	}
	s := models.SummarizeBookings(bookings)
	assert.Equal(t, 2, s.Count)
	assertMoney(t, "TotalSale", "1550", s.TotalSale)
	assertMoney(t, "TotalVat", "50", s.TotalVat)
	assertMoney(t, "TotalNetProfit", "195", s.TotalNetProfit)
	assertMoney(t, "AverageMarginPercent", "11.65", s.AverageMarginPercent)

	empty := models.SummarizeBookings(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.AverageMarginPercent.IsZero())
}
