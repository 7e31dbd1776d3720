package models

import (
	"context"

	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Booking{},
		&CurrencyRate{},
		&Customer{}, &CustomerAssignment{},
		&History{},
		&IdempotencyKey{},
		&Invoice{},
		&JournalEntry{},
		&MoneyAccount{},
		&Payment{},
		&Receipt{},
		&Supplier{},
		&User{},
	)
}

// SeedReferenceData creates the system accounts and the default rate table.
func SeedReferenceData(ctx context.Context, db *gorm.DB) error {
	if err := SeedSystemAccounts(ctx, db); err != nil {
		return err
	}
	return SeedDefaultRates(ctx, db)
}
