package reports

import (
	"context"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TrialBalanceRow struct {
	AccountId   int                `json:"account_id"`
	AccountCode string             `json:"account_code"`
	AccountName string             `json:"account_name"`
	AccountType models.AccountType `json:"account_type"`
	Debit       decimal.Decimal    `json:"debit"`
	Credit      decimal.Decimal    `json:"credit"`
}

type TrialBalance struct {
	Rows        []*TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
}

func (t *TrialBalance) Balanced() bool {
	return t.TotalDebit.Equal(t.TotalCredit)
}

// GetTrialBalance lists every account with a non-zero net position, the net
// shown on the debit side when debits exceed credits.
func GetTrialBalance(ctx context.Context, db *gorm.DB) (*TrialBalance, error) {
	var accounts []models.Account
	if err := db.WithContext(ctx).Order("code").Find(&accounts).Error; err != nil {
		return nil, err
	}
	report := &TrialBalance{Rows: []*TrialBalanceRow{}}
	for _, a := range accounts {
		net := a.DebitBalance.Sub(a.CreditBalance)
		if net.IsZero() {
			continue
		}
		row := &TrialBalanceRow{
			AccountId:   a.ID,
			AccountCode: a.Code,
			AccountName: a.Name,
			AccountType: a.Type,
		}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}
