package models

import (
	"github.com/shopspring/decimal"
)

// JournalLine is one side of the double entry generated for a booking.
type JournalLine struct {
	AccountCode string          `json:"account_code"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

func journalLine(code string, description string, amount decimal.Decimal, debit bool) JournalLine {
	// negative amounts (refund bookings) land on the opposite side
	if amount.IsNegative() {
		amount = amount.Neg()
		debit = !debit
	}
	line := JournalLine{AccountCode: code, Description: description, Debit: decimal.Zero, Credit: decimal.Zero}
	if debit {
		line.Debit = amount
	} else {
		line.Credit = amount
	}
	return line
}

// BookingJournalLines recognises a booking: receivable against revenue and VAT,
// cost of sales against payable. Zero lines are omitted.
func BookingJournalLines(f BookingFinancials) []JournalLine {
	candidates := []struct {
		code   string
		desc   string
		amount decimal.Decimal
		debit  bool
	}{
		{AccountCodeAccountsReceivable, "Customer receivable", f.TotalWithVat, true},
		{AccountCodeSalesRevenue, "Sales revenue", f.NetBeforeVat, false},
		{AccountCodeVatPayable, "VAT payable", f.VatAmount, false},
		{AccountCodeCostOfSales, "Cost of sales", f.CostAmountBase, true},
		{AccountCodeAccountsPayable, "Supplier payable", f.CostAmountBase, false},
	}
	lines := make([]JournalLine, 0, len(candidates))
	for _, c := range candidates {
		if c.amount.IsZero() {
			continue
		}
		lines = append(lines, journalLine(c.code, c.desc, c.amount, c.debit))
	}
	return lines
}

// IsBalanced reports whether debits equal credits within MoneyEpsilon.
func IsBalanced(lines []JournalLine) bool {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return MoneyEqual(debit, credit)
}

// bookingEntryPair is one debit/credit pair posted for a booking.
type bookingEntryPair struct {
	DebitCode   string
	CreditCode  string
	Amount      decimal.Decimal
	Description string
}

// bookingEntryPairs splits the booking lines into postable pairs. A negative
// amount (a loss-making VAT line) swaps the pair's sides.
func bookingEntryPairs(f BookingFinancials) []bookingEntryPair {
	candidates := []bookingEntryPair{
		{AccountCodeAccountsReceivable, AccountCodeSalesRevenue, f.NetBeforeVat, "Sales revenue"},
		{AccountCodeAccountsReceivable, AccountCodeVatPayable, f.VatAmount, "VAT payable"},
		{AccountCodeCostOfSales, AccountCodeAccountsPayable, f.CostAmountBase, "Cost of sales"},
	}
	pairs := make([]bookingEntryPair, 0, len(candidates))
	for _, p := range candidates {
		if p.Amount.IsZero() {
			continue
		}
		if p.Amount.IsNegative() {
			p.DebitCode, p.CreditCode, p.Amount = p.CreditCode, p.DebitCode, p.Amount.Neg()
		}
		pairs = append(pairs, p)
	}
	return pairs
}
