package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const journalEntryPrefix = "JE"

// JournalEntry moves Amount from CreditAccount to DebitAccount once posted.
// Posted entries are never edited or deleted; they are reversed.
type JournalEntry struct {
	ID              int             `gorm:"primary_key" json:"id"`
	EntryNumber     string          `gorm:"uniqueIndex;size:30;not null" json:"entry_number"`
	SequenceNo      int64           `gorm:"index;not null" json:"sequence_no"`
	EntryDate       time.Time       `gorm:"not null" json:"entry_date"`
	Description     string          `gorm:"size:255" json:"description"`
	DebitAccountId  int             `gorm:"index;not null" json:"debit_account_id"`
	CreditAccountId int             `gorm:"index;not null" json:"credit_account_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status          JournalStatus   `gorm:"size:10;not null;index" json:"status"`
	PostedDate      *time.Time      `json:"posted_date"`
	ReferenceType   ReferenceType   `gorm:"size:30;index:idx_journal_reference" json:"reference_type"`
	ReferenceId     int             `gorm:"index:idx_journal_reference" json:"reference_id"`
	ReversalOfId    *int            `gorm:"index" json:"reversal_of_id"`
	ReversedById    *int            `json:"reversed_by_id"`
	CreatedBy       int             `json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJournalEntry struct {
	EntryDate       time.Time       `json:"entry_date"`
	Description     string          `json:"description" validate:"max=255"`
	DebitAccountId  int             `json:"debit_account_id" validate:"required"`
	CreditAccountId int             `json:"credit_account_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceType   ReferenceType   `json:"reference_type"`
	ReferenceId     int             `json:"reference_id"`
}

func (input *NewJournalEntry) validate(tx *gorm.DB) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.DebitAccountId == input.CreditAccountId {
		return utils.NewValidationError("credit_account_id", "debit and credit accounts must differ")
	}
	if !RoundMoney(input.Amount).IsPositive() {
		return utils.NewValidationError("amount", "amount must be greater than zero")
	}
	ctx := tx.Statement.Context
	if err := utils.ValidateResourceId[Account](ctx, tx, "debit account", input.DebitAccountId); err != nil {
		return err
	}
	return utils.ValidateResourceId[Account](ctx, tx, "credit account", input.CreditAccountId)
}

// CreateJournalEntry stores a DRAFT entry with the next entry number.
func CreateJournalEntry(tx *gorm.DB, cache *config.Cache, userId int, input *NewJournalEntry) (*JournalEntry, error) {
	if err := input.validate(tx); err != nil {
		return nil, err
	}
	seqNo, err := utils.GetSequence[JournalEntry](tx.Statement.Context, tx, cache)
	if err != nil {
		return nil, err
	}
	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}
	refType := input.ReferenceType
	if refType == "" {
		refType = ReferenceTypeManual
	}
	entry := JournalEntry{
		EntryNumber:     utils.FormatSequence(journalEntryPrefix, seqNo),
		SequenceNo:      seqNo,
		EntryDate:       entryDate,
		Description:     input.Description,
		DebitAccountId:  input.DebitAccountId,
		CreditAccountId: input.CreditAccountId,
		Amount:          RoundMoney(input.Amount),
		Status:          JournalStatusDraft,
		ReferenceType:   refType,
		ReferenceId:     input.ReferenceId,
		CreatedBy:       userId,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, utils.NumberTakenError(err, entry.EntryNumber)
	}
	return &entry, nil
}

// PostJournalEntry applies the entry to both accounts and flips it to POSTED.
// Must run inside a transaction; the entry and both accounts are row locked.
func PostJournalEntry(tx *gorm.DB, id int, now time.Time) (*JournalEntry, error) {
	entry, err := utils.FetchModelForUpdate[JournalEntry](tx, "journal entry", id)
	if err != nil {
		return nil, err
	}
	if entry.Status == JournalStatusPosted {
		return nil, utils.NewConflictError("journal entry %s is already posted", entry.EntryNumber)
	}

	accounts, err := lockAccounts(tx, entry.DebitAccountId, entry.CreditAccountId)
	if err != nil {
		return nil, err
	}
	debit := accounts[entry.DebitAccountId]
	credit := accounts[entry.CreditAccountId]

	err = tx.Model(debit).Updates(map[string]interface{}{
		"balance":       debit.Balance.Add(entry.Amount),
		"debit_balance": debit.DebitBalance.Add(entry.Amount),
	}).Error
	if err != nil {
		return nil, err
	}
	err = tx.Model(credit).Updates(map[string]interface{}{
		"balance":        credit.Balance.Sub(entry.Amount),
		"credit_balance": credit.CreditBalance.Add(entry.Amount),
	}).Error
	if err != nil {
		return nil, err
	}

	res := tx.Model(&JournalEntry{}).
		Where("id = ? AND status = ?", entry.ID, JournalStatusDraft).
		Updates(map[string]interface{}{"status": JournalStatusPosted, "posted_date": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, utils.NewConflictError("journal entry %s is already posted", entry.EntryNumber)
	}
	entry.Status = JournalStatusPosted
	entry.PostedDate = &now
	return entry, nil
}

// RecordJournalEntry creates and posts in one step.
func RecordJournalEntry(tx *gorm.DB, cache *config.Cache, userId int, input *NewJournalEntry) (*JournalEntry, error) {
	entry, err := CreateJournalEntry(tx, cache, userId, input)
	if err != nil {
		return nil, err
	}
	return PostJournalEntry(tx, entry.ID, time.Now().UTC())
}

// DeleteJournalEntry removes a DRAFT entry. Posted entries must be reversed.
func DeleteJournalEntry(tx *gorm.DB, id int) (*JournalEntry, error) {
	entry, err := utils.FetchModelForUpdate[JournalEntry](tx, "journal entry", id)
	if err != nil {
		return nil, err
	}
	if entry.Status == JournalStatusPosted {
		return nil, utils.NewConflictError("journal entry %s is posted and cannot be deleted; reverse it instead", entry.EntryNumber)
	}
	if err := tx.Delete(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ReverseJournalEntry posts a compensating entry with the sides swapped and
// links both. Reversing an already reversed entry returns the existing reversal.
func ReverseJournalEntry(tx *gorm.DB, cache *config.Cache, userId int, id int, reason string, refType ReferenceType, refId int) (*JournalEntry, error) {
	original, err := utils.FetchModelForUpdate[JournalEntry](tx, "journal entry", id)
	if err != nil {
		return nil, err
	}
	if original.Status != JournalStatusPosted {
		return nil, utils.NewConflictError("journal entry %s is not posted; delete it instead", original.EntryNumber)
	}
	if original.ReversedById != nil {
		return utils.FetchModel[JournalEntry](tx.Statement.Context, tx, "journal entry", *original.ReversedById)
	}
	if original.ReversalOfId != nil {
		return nil, utils.NewConflictError("journal entry %s is itself a reversal", original.EntryNumber)
	}
	if refType == "" {
		refType, refId = original.ReferenceType, original.ReferenceId
	}

	reversal, err := CreateJournalEntry(tx, cache, userId, &NewJournalEntry{
		EntryDate:       time.Now().UTC(),
		Description:     fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, reason),
		DebitAccountId:  original.CreditAccountId,
		CreditAccountId: original.DebitAccountId,
		Amount:          original.Amount,
		ReferenceType:   refType,
		ReferenceId:     refId,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Model(reversal).Update("reversal_of_id", original.ID).Error; err != nil {
		return nil, err
	}
	reversal.ReversalOfId = &original.ID
	if reversal, err = PostJournalEntry(tx, reversal.ID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := tx.Model(original).Update("reversed_by_id", reversal.ID).Error; err != nil {
		return nil, err
	}
	return reversal, nil
}

// ReverseReferencedEntries reverses every live posted entry of a reference.
func ReverseReferencedEntries(tx *gorm.DB, cache *config.Cache, userId int, refType ReferenceType, refId int, reason string, newRefType ReferenceType, newRefId int) ([]*JournalEntry, error) {
	var ids []int
	err := tx.Model(&JournalEntry{}).
		Where("reference_type = ? AND reference_id = ? AND status = ? AND reversed_by_id IS NULL AND reversal_of_id IS NULL",
			refType, refId, JournalStatusPosted).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	reversals := make([]*JournalEntry, 0, len(ids))
	for _, id := range ids {
		rev, err := ReverseJournalEntry(tx, cache, userId, id, reason, newRefType, newRefId)
		if err != nil {
			return nil, err
		}
		reversals = append(reversals, rev)
	}
	return reversals, nil
}

type JournalEntryFilter struct {
	Status        JournalStatus
	AccountId     int
	ReferenceType ReferenceType
	ReferenceId   int
	Limit         int
	Offset        int
}

func ListJournalEntries(ctx context.Context, db *gorm.DB, filter JournalEntryFilter) ([]*JournalEntry, error) {
	q := db.WithContext(ctx).Model(&JournalEntry{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AccountId > 0 {
		q = q.Where("debit_account_id = ? OR credit_account_id = ?", filter.AccountId, filter.AccountId)
	}
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ? AND reference_id = ?", filter.ReferenceType, filter.ReferenceId)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	var results []*JournalEntry
	err := q.Order("sequence_no DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&results).Error
	return results, err
}

func GetJournalEntry(ctx context.Context, db *gorm.DB, id int) (*JournalEntry, error) {
	return utils.FetchModel[JournalEntry](ctx, db, "journal entry", id)
}
