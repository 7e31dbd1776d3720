package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Email       string    `gorm:"size:100" json:"email"`
	Phone       string    `gorm:"size:20" json:"phone"`
	CountryCode string    `gorm:"size:2" json:"country_code"`
	Notes       string    `gorm:"type:text" json:"notes"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2"`
	Notes       string `json:"notes"`
}

// validate input for both create & update. Phone numbers are stored in E164.
func (input *NewCustomer) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, input.CountryCode); err != nil {
			return err
		}
		input.Phone = utils.FormatPhoneNumber(input.Phone, input.CountryCode)
	}
	return nil
}

func CreateCustomer(ctx context.Context, db *gorm.DB, input *NewCustomer) (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	customer := Customer{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		CountryCode: input.CountryCode,
		Notes:       input.Notes,
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, db *gorm.DB, scope AccessScope, id int) (*Customer, error) {
	if err := scope.CheckCustomer(id, "customer", id); err != nil {
		return nil, err
	}
	return utils.FetchModel[Customer](ctx, db, "customer", id)
}

func ListCustomers(ctx context.Context, db *gorm.DB, scope AccessScope) ([]*Customer, error) {
	var results []*Customer
	err := db.WithContext(ctx).
		Scopes(scope.Customers.Filter("id")).
		Order("name").
		Find(&results).Error
	return results, err
}
