package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

type Supplier struct {
	ID          int         `gorm:"primary_key" json:"id"`
	Name        string      `gorm:"size:100;not null;index" json:"name"`
	ServiceType ServiceType `gorm:"size:20;index" json:"service_type"`
	Email       string      `gorm:"size:100" json:"email"`
	Phone       string      `gorm:"size:20" json:"phone"`
	CountryCode string      `gorm:"size:2" json:"country_code"`
	Currency    string      `gorm:"size:3" json:"currency"`
	IsActive    *bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name        string      `json:"name" validate:"required,max=100"`
	ServiceType ServiceType `json:"service_type"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Phone       string      `json:"phone"`
	CountryCode string      `json:"country_code" validate:"omitempty,len=2"`
	Currency    string      `json:"currency" validate:"omitempty,len=3"`
}

func CreateSupplier(ctx context.Context, db *gorm.DB, input *NewSupplier) (*Supplier, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if input.ServiceType != "" && !input.ServiceType.IsValid() {
		return nil, utils.NewValidationError("service_type", "invalid service type %q", input.ServiceType)
	}
	phone := input.Phone
	if phone != "" {
		if err := utils.ValidatePhoneNumber(phone, input.CountryCode); err != nil {
			return nil, err
		}
		phone = utils.FormatPhoneNumber(phone, input.CountryCode)
	}
	currency := normalizeCurrency(input.Currency)
	if currency == "" {
		currency = BaseCurrency
	}
	supplier := Supplier{
		Name:        input.Name,
		ServiceType: input.ServiceType,
		Email:       input.Email,
		Phone:       phone,
		CountryCode: input.CountryCode,
		Currency:    currency,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers returns the suppliers reachable through the caller's customers' bookings.
func ListSuppliers(ctx context.Context, db *gorm.DB, scope AccessScope) ([]*Supplier, error) {
	suppliers, err := AccessibleSupplierIds(ctx, db, scope.Customers)
	if err != nil {
		return nil, err
	}
	var results []*Supplier
	err = db.WithContext(ctx).
		Scopes(suppliers.Filter("id")).
		Order("name").
		Find(&results).Error
	return results, err
}
