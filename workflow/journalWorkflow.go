package workflow

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/travel_backend/models"
	"gorm.io/gorm"
)

// CreateJournalEntry stores a manual DRAFT entry.
func (l *Ledger) CreateJournalEntry(ctx context.Context, scope models.AccessScope, input *models.NewJournalEntry) (*models.JournalEntry, error) {
	if err := requireLedgerRole(scope, "journal entry", 0); err != nil {
		return nil, err
	}
	input.ReferenceType = models.ReferenceTypeManual
	var result *models.JournalEntry
	err := l.run(ctx, "CreateJournalEntry", nil, func(tx *gorm.DB) error {
		entry, err := models.CreateJournalEntry(tx, l.cache, scope.UserId, input)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("journal entry %s drafted", entry.EntryNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypeJournal, entry.ID, nil, entry, desc); err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

// PostJournalEntry applies a DRAFT entry to its accounts.
func (l *Ledger) PostJournalEntry(ctx context.Context, scope models.AccessScope, id int) (*models.JournalEntry, error) {
	if err := requireLedgerRole(scope, "journal entry", id); err != nil {
		return nil, err
	}
	var result *models.JournalEntry
	err := l.run(ctx, "PostJournalEntry", nil, func(tx *gorm.DB) error {
		entry, err := models.PostJournalEntry(tx, id, l.now())
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("journal entry %s posted", entry.EntryNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeJournal, id, models.JournalStatusDraft, models.JournalStatusPosted, desc); err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

// DeleteJournalEntry removes a DRAFT entry; posted entries must be reversed.
func (l *Ledger) DeleteJournalEntry(ctx context.Context, scope models.AccessScope, id int) (*models.JournalEntry, error) {
	if err := requireLedgerRole(scope, "journal entry", id); err != nil {
		return nil, err
	}
	var result *models.JournalEntry
	err := l.run(ctx, "DeleteJournalEntry", nil, func(tx *gorm.DB) error {
		entry, err := models.DeleteJournalEntry(tx, id)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("journal entry %s deleted", entry.EntryNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionDelete, models.ReferenceTypeJournal, id, entry, nil, desc); err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

// ReverseJournalEntry posts the mirror of a posted entry. Reversing twice
// returns the first reversal.
func (l *Ledger) ReverseJournalEntry(ctx context.Context, scope models.AccessScope, id int, reason string) (*models.JournalEntry, error) {
	if err := requireLedgerRole(scope, "journal entry", id); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = ReversalReasonManualReversal
	}
	var result *models.JournalEntry
	err := l.run(ctx, "ReverseJournalEntry", nil, func(tx *gorm.DB) error {
		reversal, err := models.ReverseJournalEntry(tx, l.cache, scope.UserId, id, reason, "", 0)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("journal entry reversed by %s: %s", reversal.EntryNumber, reason)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeJournal, id, nil, reversal, desc); err != nil {
			return err
		}
		result = reversal
		return nil
	})
	return result, err
}
