package reports

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ARAgingSummaryRow struct {
	CustomerId   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Current      decimal.Decimal `json:"current"`
	Int1to15     decimal.Decimal `json:"int1to15"`
	Int16to30    decimal.Decimal `json:"int16to30"`
	Int31to45    decimal.Decimal `json:"int31to45"`
	Int46plus    decimal.Decimal `json:"int46plus"`
	Total        decimal.Decimal `json:"total"`
	InvoiceCount int             `json:"invoice_count"`
}

func (r *ARAgingSummaryRow) add(daysOverdue int, amount decimal.Decimal) {
	switch {
	case daysOverdue <= 0:
		r.Current = r.Current.Add(amount)
	case daysOverdue <= 15:
		r.Int1to15 = r.Int1to15.Add(amount)
	case daysOverdue <= 30:
		r.Int16to30 = r.Int16to30.Add(amount)
	case daysOverdue <= 45:
		r.Int31to45 = r.Int31to45.Add(amount)
	default:
		r.Int46plus = r.Int46plus.Add(amount)
	}
	r.Total = r.Total.Add(amount)
	r.InvoiceCount++
}

// GetARAgingSummary buckets the outstanding balance of every open invoice the
// caller can see by days past due at asOf. Invoices without a due date are current.
func GetARAgingSummary(ctx context.Context, db *gorm.DB, scope models.AccessScope, asOf time.Time) ([]*ARAgingSummaryRow, error) {
	var invoices []models.Invoice
	err := db.WithContext(ctx).
		Scopes(scope.Customers.Filter("customer_id")).
		Where("status IN ?", []models.InvoiceStatus{
			models.InvoiceStatusUnpaid, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue,
		}).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[int]*ARAgingSummaryRow)
	for i := range invoices {
		inv := &invoices[i]
		owed := inv.Balance()
		if !owed.IsPositive() {
			continue
		}
		row, ok := byCustomer[inv.CustomerId]
		if !ok {
			row = &ARAgingSummaryRow{CustomerId: inv.CustomerId}
			byCustomer[inv.CustomerId] = row
		}
		days := 0
		if inv.DueDate != nil {
			days = int(asOf.Sub(*inv.DueDate).Hours() / 24)
		}
		row.add(days, owed)
	}
	if len(byCustomer) == 0 {
		return []*ARAgingSummaryRow{}, nil
	}

	ids := make([]int, 0, len(byCustomer))
	for id := range byCustomer {
		ids = append(ids, id)
	}
	var customers []models.Customer
	if err := db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&customers).Error; err != nil {
		return nil, err
	}
	for _, c := range customers {
		byCustomer[c.ID].CustomerName = c.Name
	}

	rows := make([]*ARAgingSummaryRow, 0, len(byCustomer))
	for _, r := range byCustomer {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CustomerName != rows[j].CustomerName {
			return rows[i].CustomerName < rows[j].CustomerName
		}
		return rows[i].CustomerId < rows[j].CustomerId
	})
	return rows, nil
}
