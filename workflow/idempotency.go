package workflow

import (
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

const (
	operationCreateReceipt = "CreateReceipt"
	operationCreatePayment = "CreatePayment"
	operationCreateBooking = "CreateBooking"
)

// lookupIdempotency returns the resource id a previous commit produced for
// (operation, key), or 0 when the key is new or empty.
func lookupIdempotency(tx *gorm.DB, operation string, key string) (int, error) {
	if key == "" {
		return 0, nil
	}
	var existing []models.IdempotencyKey
	err := tx.Where("operation = ? AND `key` = ?", operation, key).Limit(1).Find(&existing).Error
	if err != nil || len(existing) == 0 {
		return 0, err
	}
	return existing[0].ResourceId, nil
}

// rememberIdempotency records key in the same transaction as the resource.
// A concurrent request with the same key fails on the unique index.
func rememberIdempotency(tx *gorm.DB, operation string, key string, userId int, resourceId int) error {
	if key == "" {
		return nil
	}
	err := tx.Create(&models.IdempotencyKey{
		Operation:  operation,
		Key:        key,
		ResourceId: resourceId,
		UserId:     userId,
	}).Error
	if utils.IsDuplicateKeyError(err) {
		return utils.NewConflictError("request %s is already being processed", key)
	}
	return err
}
