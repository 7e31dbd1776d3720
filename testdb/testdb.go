// Package testdb opens an isolated in-memory database with the full schema and
// reference data, for tests that exercise real gorm queries.
package testdb

import (
	"context"
	"io"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns an Env backed by a private in-memory SQLite database. Row locks
// are no-ops on SQLite; a single connection keeps transactions serial.
func New(t *testing.T) *config.Env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.MigrateTable(db))
	require.NoError(t, models.SeedReferenceData(context.Background(), db))

	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return config.NewEnv(db, logg)
}

func Customer(t *testing.T, env *config.Env, name string) *models.Customer {
	t.Helper()
	c, err := models.CreateCustomer(context.Background(), env.DB, &models.NewCustomer{Name: name})
	require.NoError(t, err)
	return c
}

func Supplier(t *testing.T, env *config.Env, name string) *models.Supplier {
	t.Helper()
	s, err := models.CreateSupplier(context.Background(), env.DB, &models.NewSupplier{Name: name})
	require.NoError(t, err)
	return s
}

func User(t *testing.T, env *config.Env, username string, role models.UserRole) *models.User {
	t.Helper()
	u, err := models.CreateUser(context.Background(), env.DB, &models.NewUser{
		Username: username,
		Name:     username,
		Password: "secret-password",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func MoneyAccount(t *testing.T, env *config.Env, name string, kind models.MoneyAccountKind, currency string, opening string) *models.MoneyAccount {
	t.Helper()
	a, err := models.CreateMoneyAccount(context.Background(), env.DB, &models.NewMoneyAccount{
		Name:           name,
		Kind:           kind,
		Currency:       currency,
		OpeningBalance: decimal.RequireFromString(opening),
	})
	require.NoError(t, err)
	return a
}

// Assign gives user an active assignment on customer.
func Assign(t *testing.T, env *config.Env, customerId int, userId int, role models.AssignedRole) *models.CustomerAssignment {
	t.Helper()
	a, err := models.UpsertCustomerAssignment(context.Background(), env.DB, env.Cache, &models.NewCustomerAssignment{
		CustomerId:   customerId,
		UserId:       userId,
		AssignedRole: role,
	})
	require.NoError(t, err)
	return a
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DecPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func IntPtr(v int) *int {
	return &v
}
