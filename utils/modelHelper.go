package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* DB fetching */

// fetch model from db, may return NotFoundError
func FetchModel[T any](ctx context.Context, db *gorm.DB, resource string, id int) (*T, error) {
	var result T
	err := db.WithContext(ctx).First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(resource, id)
		}
		return nil, err
	}
	return &result, nil
}

// fetch model holding a row lock until tx ends
func FetchModelForUpdate[T any](tx *gorm.DB, resource string, id int) (*T, error) {
	var result T
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(resource, id)
		}
		return nil, err
	}
	return &result, nil
}
