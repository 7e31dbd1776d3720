package models

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	HistoryActionCreate = "CREATE"
	HistoryActionUpdate = "UPDATE"
	HistoryActionStatus = "STATUS"
	HistoryActionDelete = "DELETE"
)

// History is the audit trail of ledger mutations.
type History struct {
	ID            int           `gorm:"primary_key" json:"id"`
	ActionType    string        `gorm:"size:10;not null" json:"action_type"`
	Before        string        `gorm:"type:text" json:"before"`
	After         string        `gorm:"type:text" json:"after"`
	Description   string        `gorm:"type:text;not null" json:"description"`
	ReferenceId   int           `gorm:"index:idx_history_reference" json:"reference_id"`
	ReferenceType ReferenceType `gorm:"size:30;index:idx_history_reference" json:"reference_type"`
	UserId        int           `gorm:"index;not null" json:"user_id"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func marshalHistoryState(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// RecordHistory appends an audit row inside tx.
func RecordHistory(tx *gorm.DB, userId int, actionType string, refType ReferenceType, refId int, before interface{}, after interface{}, description string) error {
	history := History{
		ActionType:    actionType,
		Before:        marshalHistoryState(before),
		After:         marshalHistoryState(after),
		Description:   description,
		ReferenceId:   refId,
		ReferenceType: refType,
		UserId:        userId,
	}
	return tx.Create(&history).Error
}

func ListHistory(ctx context.Context, db *gorm.DB, refType ReferenceType, refId int) ([]*History, error) {
	var results []*History
	err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refId).
		Order("id").
		Find(&results).Error
	return results, err
}
