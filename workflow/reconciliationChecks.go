package workflow

import (
	"context"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvoiceMismatch is an invoice whose stored status or total paid disagrees
// with its receipts.
type InvoiceMismatch struct {
	InvoiceId      int                  `json:"invoice_id"`
	InvoiceNumber  string               `json:"invoice_number"`
	StoredStatus   models.InvoiceStatus `json:"stored_status"`
	ExpectedStatus models.InvoiceStatus `json:"expected_status"`
	StoredPaid     decimal.Decimal      `json:"stored_paid"`
	ReceiptsTotal  decimal.Decimal      `json:"receipts_total"`
}

type ReconciliationReport struct {
	TotalDebits       decimal.Decimal   `json:"total_debits"`
	TotalCredits      decimal.Decimal   `json:"total_credits"`
	Balanced          bool              `json:"balanced"`
	InvoiceMismatches []InvoiceMismatch `json:"invoice_mismatches"`
}

func (r ReconciliationReport) OK() bool {
	return r.Balanced && len(r.InvoiceMismatches) == 0
}

// RunReconciliationChecks verifies that account debits equal credits and that
// every open invoice matches its receipts. It only reads.
func RunReconciliationChecks(ctx context.Context, db *gorm.DB, logger *logrus.Logger) (ReconciliationReport, error) {
	var report ReconciliationReport
	var accounts []models.Account
	if err := db.WithContext(ctx).Select("id", "debit_balance", "credit_balance").Find(&accounts).Error; err != nil {
		return report, err
	}
	for _, a := range accounts {
		report.TotalDebits = report.TotalDebits.Add(a.DebitBalance)
		report.TotalCredits = report.TotalCredits.Add(a.CreditBalance)
	}
	report.Balanced = report.TotalDebits.Equal(report.TotalCredits)

	var invoices []models.Invoice
	err := db.WithContext(ctx).
		Where("status NOT IN ?", []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusCancelled}).
		Find(&invoices).Error
	if err != nil {
		return report, err
	}
	for i := range invoices {
		invoice := &invoices[i]
		paid, err := models.ActiveReceiptsTotal(db.WithContext(ctx), invoice.ID)
		if err != nil {
			return report, err
		}
		expected := DeriveInvoiceStatus(invoice.TotalAmount, paid)
		statusOK := expected == invoice.Status ||
			(invoice.Status == models.InvoiceStatusOverdue && expected != models.InvoiceStatusPaid)
		if statusOK && paid.Equal(invoice.TotalPaid) {
			continue
		}
		report.InvoiceMismatches = append(report.InvoiceMismatches, InvoiceMismatch{
			InvoiceId:      invoice.ID,
			InvoiceNumber:  invoice.InvoiceNumber,
			StoredStatus:   invoice.Status,
			ExpectedStatus: expected,
			StoredPaid:     invoice.TotalPaid,
			ReceiptsTotal:  paid,
		})
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":              "ReconciliationChecks",
			"balanced":           report.Balanced,
			"invoice_mismatches": len(report.InvoiceMismatches),
		}).Info("reconciliation checks completed")
	}
	return report, nil
}
