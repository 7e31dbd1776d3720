package utils

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs the struct's `validate` tags and returns a ValidationError.
func ValidateStruct(input any) error {
	if err := Validator().Struct(input); err != nil {
		return ProcessValidationErrors(err)
	}
	return nil
}

// check if id exists, returns NotFoundError named after resource
func ValidateResourceId[T any](ctx context.Context, db *gorm.DB, resource string, id interface{}) error {
	count, err := ResourceCountWhere[T](ctx, db, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return NewNotFoundError(resource, id)
	}
	return nil
}

func ResourceCountWhere[T any](ctx context.Context, db *gorm.DB, condition string, value ...interface{}) (int64, error) {
	var count int64
	var model T
	err := db.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error
	return count, err
}
