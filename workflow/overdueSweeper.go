package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MarkOverdueInvoices flags every UNPAID or PARTIALLY_PAID invoice whose due
// date is before asOf. It processes at most batchSize invoices (0 means all)
// and returns how many changed.
func (l *Ledger) MarkOverdueInvoices(ctx context.Context, asOf time.Time, batchSize int) (int, error) {
	changed := 0
	err := l.run(ctx, "MarkOverdueInvoices", nil, func(tx *gorm.DB) error {
		q := tx.Where("status IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]models.InvoiceStatus{models.InvoiceStatusUnpaid, models.InvoiceStatusPartiallyPaid}, asOf).
			Order("id ASC").
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if batchSize > 0 {
			q = q.Limit(batchSize)
		}
		var due []models.Invoice
		if err := q.Find(&due).Error; err != nil {
			return err
		}
		for i := range due {
			invoice := &due[i]
			res := tx.Model(&models.Invoice{}).
				Where("id = ? AND status = ?", invoice.ID, invoice.Status).
				Update("status", models.InvoiceStatusOverdue)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			desc := fmt.Sprintf("invoice %s overdue since %s", invoice.InvoiceNumber, invoice.DueDate.Format(time.DateOnly))
			if err := models.RecordHistory(tx, 0, models.HistoryActionStatus, models.ReferenceTypeInvoice, invoice.ID, invoice.Status, models.InvoiceStatusOverdue, desc); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	return changed, err
}

// OverdueSweeper runs MarkOverdueInvoices on an interval until its context ends.
type OverdueSweeper struct {
	Ledger    *Ledger
	Logger    *logrus.Logger
	SweeperID string

	BatchSize    int
	PollInterval time.Duration
}

func NewOverdueSweeper(ledger *Ledger, logger *logrus.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		Ledger:       ledger,
		Logger:       logger,
		SweeperID:    uuid.NewString(),
		BatchSize:    200,
		PollInterval: time.Hour,
	}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.PollInterval):
		}
	}
}

func (s *OverdueSweeper) sweepOnce(ctx context.Context) {
	for {
		n, err := s.Ledger.MarkOverdueInvoices(ctx, time.Now().UTC(), s.BatchSize)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"field":      "OverdueSweeper",
				"sweeper_id": s.SweeperID,
			}).Error("overdue sweep failed: " + err.Error())
			return
		}
		if n > 0 {
			s.Logger.WithFields(logrus.Fields{
				"field":      "OverdueSweeper",
				"sweeper_id": s.SweeperID,
				"count":      n,
			}).Info("invoices marked overdue")
		}
		if s.BatchSize <= 0 || n < s.BatchSize {
			return
		}
	}
}
