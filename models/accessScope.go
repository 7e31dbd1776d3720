package models

import (
	"context"

	"github.com/mmdatafocus/travel_backend/appctx"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

// IdScope is either unrestricted or an explicit id list. An explicit empty list
// matches nothing; it is never widened to "everything".
type IdScope struct {
	Unrestricted bool  `json:"unrestricted"`
	Ids          []int `json:"ids"`
}

func UnrestrictedScope() IdScope {
	return IdScope{Unrestricted: true}
}

func RestrictedScope(ids []int) IdScope {
	if ids == nil {
		ids = []int{}
	}
	return IdScope{Ids: utils.UniqueSlice(ids)}
}

func (s IdScope) IsEmpty() bool {
	return !s.Unrestricted && len(s.Ids) == 0
}

func (s IdScope) Contains(id int) bool {
	if s.Unrestricted {
		return true
	}
	for _, v := range s.Ids {
		if v == id {
			return true
		}
	}
	return false
}

// Filter is a gorm scope restricting column to the scope's ids.
func (s IdScope) Filter(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Unrestricted {
			return db
		}
		if len(s.Ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(column+" IN ?", s.Ids)
	}
}

// AccessScope is the resolved visibility of one caller.
type AccessScope struct {
	UserId    int      `json:"user_id"`
	Role      UserRole `json:"role"`
	Customers IdScope  `json:"customers"`
}

// SystemScope is used by internal tools and tests that act on every record.
func SystemScope() AccessScope {
	return AccessScope{Role: UserRoleSuperAdmin, Customers: UnrestrictedScope()}
}

func (a AccessScope) CheckCustomer(customerId int, resource string, id any) error {
	if a.Customers.Contains(customerId) {
		return nil
	}
	return utils.NewAccessDeniedError(resource, id, "not assigned to this customer")
}

func SetAccessScopeInContext(ctx context.Context, scope AccessScope) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyAccessScope, scope)
}

func AccessScopeFromContext(ctx context.Context) (AccessScope, bool) {
	scope, ok := ctx.Value(appctx.ContextKeyAccessScope).(AccessScope)
	return scope, ok
}

// ResolveAccessScope resolves the customers user may see.
func ResolveAccessScope(ctx context.Context, db *gorm.DB, cache *config.Cache, user *User) (AccessScope, error) {
	customers, err := AssignedCustomerIds(ctx, db, cache, user)
	if err != nil {
		return AccessScope{}, err
	}
	return AccessScope{UserId: user.ID, Role: user.Role, Customers: customers}, nil
}

// AssignedCustomerIds returns the unrestricted sentinel for admin-class roles,
// otherwise the customers with an active assignment for user (possibly none).
func AssignedCustomerIds(ctx context.Context, db *gorm.DB, cache *config.Cache, user *User) (IdScope, error) {
	if user.Role.IsAdminClass() {
		return UnrestrictedScope(), nil
	}
	key := assignedCustomersCacheKey(user.ID)
	var ids []int
	if ok, err := cache.GetObject(ctx, key, &ids); err == nil && ok {
		return RestrictedScope(ids), nil
	}

	err := db.WithContext(ctx).Model(&CustomerAssignment{}).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Distinct().
		Order("customer_id").
		Pluck("customer_id", &ids).Error
	if err != nil {
		return IdScope{}, err
	}
	_ = cache.SetObject(ctx, key, ids, config.ScopeCacheTTL())
	return RestrictedScope(ids), nil
}

// AccessibleSupplierIds follows assigned customers to their bookings' suppliers.
func AccessibleSupplierIds(ctx context.Context, db *gorm.DB, customers IdScope) (IdScope, error) {
	if customers.Unrestricted {
		return UnrestrictedScope(), nil
	}
	if customers.IsEmpty() {
		return RestrictedScope(nil), nil
	}
	var ids []int
	err := db.WithContext(ctx).Model(&Booking{}).
		Where("customer_id IN ? AND supplier_id > 0", customers.Ids).
		Distinct().
		Pluck("supplier_id", &ids).Error
	if err != nil {
		return IdScope{}, err
	}
	return RestrictedScope(ids), nil
}

func AccessibleBookingIds(ctx context.Context, db *gorm.DB, customers IdScope) (IdScope, error) {
	if customers.Unrestricted {
		return UnrestrictedScope(), nil
	}
	if customers.IsEmpty() {
		return RestrictedScope(nil), nil
	}
	var ids []int
	err := db.WithContext(ctx).Model(&Booking{}).
		Where("customer_id IN ?", customers.Ids).
		Pluck("id", &ids).Error
	if err != nil {
		return IdScope{}, err
	}
	return RestrictedScope(ids), nil
}

// AccessibleInvoiceIds follows assigned customers to the invoices of their bookings.
func AccessibleInvoiceIds(ctx context.Context, db *gorm.DB, customers IdScope) (IdScope, error) {
	if customers.Unrestricted {
		return UnrestrictedScope(), nil
	}
	if customers.IsEmpty() {
		return RestrictedScope(nil), nil
	}
	var ids []int
	err := db.WithContext(ctx).Model(&Invoice{}).
		Joins("JOIN bookings ON bookings.id = invoices.booking_id").
		Where("bookings.customer_id IN ?", customers.Ids).
		Pluck("invoices.id", &ids).Error
	if err != nil {
		return IdScope{}, err
	}
	return RestrictedScope(ids), nil
}
