package models

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerAssignment links a user to a customer's book of business. The
// (customer, user, role) triple is unique; rows are deactivated, never removed.
type CustomerAssignment struct {
	ID              int            `gorm:"primary_key" json:"id"`
	CustomerId      int            `gorm:"uniqueIndex:idx_assignment_customer_user_role;not null" json:"customer_id"`
	UserId          int            `gorm:"uniqueIndex:idx_assignment_customer_user_role;index;not null" json:"user_id"`
	AssignedRole    AssignedRole   `gorm:"uniqueIndex:idx_assignment_customer_user_role;size:30;not null" json:"assigned_role"`
	IsActive        *bool          `gorm:"not null;default:true;index" json:"is_active"`
	CommissionRates datatypes.JSON `json:"commission_rates"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomerAssignment struct {
	CustomerId      int                             `json:"customer_id" validate:"required"`
	UserId          int                             `json:"user_id" validate:"required"`
	AssignedRole    AssignedRole                    `json:"assigned_role" validate:"required"`
	CommissionRates map[ServiceType]decimal.Decimal `json:"commission_rates"`
}

func assignedCustomersCacheKey(userId int) string {
	return "AssignedCustomers:" + strconv.Itoa(userId)
}

// CommissionRateFor returns the override for t, if one was configured.
func (a CustomerAssignment) CommissionRateFor(t ServiceType) (decimal.Decimal, bool) {
	if len(a.CommissionRates) == 0 {
		return decimal.Zero, false
	}
	var rates map[ServiceType]decimal.Decimal
	if err := json.Unmarshal(a.CommissionRates, &rates); err != nil {
		return decimal.Zero, false
	}
	rate, ok := rates[t]
	return rate, ok
}

func (input *NewCustomerAssignment) validate(ctx context.Context, db *gorm.DB) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.AssignedRole.IsValid() {
		return utils.NewValidationError("assigned_role", "invalid assigned role %q", input.AssignedRole)
	}
	for t, rate := range input.CommissionRates {
		if !t.IsValid() {
			return utils.NewValidationError("commission_rates", "invalid service type %q", t)
		}
		if err := validateCommissionRate("commission_rates", rate); err != nil {
			return err
		}
	}
	if err := utils.ValidateResourceId[Customer](ctx, db, "customer", input.CustomerId); err != nil {
		return err
	}
	return utils.ValidateResourceId[User](ctx, db, "user", input.UserId)
}

// UpsertCustomerAssignment creates the assignment or, when the triple already
// exists, replaces its commission overrides and reactivates it.
func UpsertCustomerAssignment(ctx context.Context, db *gorm.DB, cache *config.Cache, input *NewCustomerAssignment) (*CustomerAssignment, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}
	var rates datatypes.JSON
	if len(input.CommissionRates) > 0 {
		b, err := json.Marshal(input.CommissionRates)
		if err != nil {
			return nil, err
		}
		rates = datatypes.JSON(b)
	}

	assignment := CustomerAssignment{
		CustomerId:      input.CustomerId,
		UserId:          input.UserId,
		AssignedRole:    input.AssignedRole,
		IsActive:        utils.NewTrue(),
		CommissionRates: rates,
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "user_id"}, {Name: "assigned_role"}},
		DoUpdates: clause.AssignmentColumns([]string{"commission_rates", "is_active", "updated_at"}),
	}).Create(&assignment).Error
	if err != nil {
		return nil, err
	}

	var stored CustomerAssignment
	err = db.WithContext(ctx).
		Where("customer_id = ? AND user_id = ? AND assigned_role = ?", input.CustomerId, input.UserId, input.AssignedRole).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	if err := cache.Remove(ctx, assignedCustomersCacheKey(input.UserId)); err != nil {
		return nil, err
	}
	return &stored, nil
}

// DeactivateCustomerAssignment soft deletes an assignment.
func DeactivateCustomerAssignment(ctx context.Context, db *gorm.DB, cache *config.Cache, id int) (*CustomerAssignment, error) {
	assignment, err := utils.FetchModel[CustomerAssignment](ctx, db, "customer assignment", id)
	if err != nil {
		return nil, err
	}
	if !utils.DereferencePtr(assignment.IsActive, false) {
		return assignment, nil
	}
	if err := db.WithContext(ctx).Model(assignment).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	assignment.IsActive = utils.NewFalse()
	if err := cache.Remove(ctx, assignedCustomersCacheKey(assignment.UserId)); err != nil {
		return nil, err
	}
	return assignment, nil
}

func ListCustomerAssignments(ctx context.Context, db *gorm.DB, customerId int, userId int) ([]*CustomerAssignment, error) {
	var results []*CustomerAssignment
	q := db.WithContext(ctx).Where("is_active = ?", true)
	if customerId > 0 {
		q = q.Where("customer_id = ?", customerId)
	}
	if userId > 0 {
		q = q.Where("user_id = ?", userId)
	}
	err := q.Order("id").Find(&results).Error
	return results, err
}

// findActiveAssignment returns nil when the user is not actively assigned in role.
func findActiveAssignment(tx *gorm.DB, customerId int, userId int, role AssignedRole) (*CustomerAssignment, error) {
	var a CustomerAssignment
	err := tx.Where("customer_id = ? AND user_id = ? AND assigned_role = ? AND is_active = ?", customerId, userId, role, true).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
