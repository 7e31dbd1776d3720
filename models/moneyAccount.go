package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MoneyAccount is a bank account or cash register holding funds in one
// currency. Balance moves only through receipts and payments.
type MoneyAccount struct {
	ID              int              `gorm:"primary_key" json:"id"`
	Name            string           `gorm:"index;size:100;not null" json:"name"`
	Kind            MoneyAccountKind `gorm:"size:20;not null" json:"kind"`
	Currency        string           `gorm:"size:3;not null" json:"currency"`
	AccountNumber   string           `gorm:"size:50" json:"account_number"`
	BankName        string           `gorm:"size:100" json:"bank_name"`
	Balance         decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	LedgerAccountId int              `gorm:"index;not null" json:"ledger_account_id"`
	IsActive        *bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMoneyAccount struct {
	Name            string           `json:"name" validate:"required,max=100"`
	Kind            MoneyAccountKind `json:"kind" validate:"required,oneof=BANK CASH_REGISTER"`
	Currency        string           `json:"currency" validate:"omitempty,len=3"`
	AccountNumber   string           `json:"account_number"`
	BankName        string           `json:"bank_name"`
	OpeningBalance  decimal.Decimal  `json:"opening_balance"`
	LedgerAccountId int              `json:"ledger_account_id"`
}

// CreateMoneyAccount links the account to the given ledger account, or to the
// system Bank/Cash account by kind.
func CreateMoneyAccount(ctx context.Context, db *gorm.DB, input *NewMoneyAccount) (*MoneyAccount, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	ledgerId := input.LedgerAccountId
	if ledgerId > 0 {
		if err := utils.ValidateResourceId[Account](ctx, db, "ledger account", ledgerId); err != nil {
			return nil, err
		}
	} else {
		code := AccountCodeBank
		if input.Kind == MoneyAccountKindCashRegister {
			code = AccountCodeCash
		}
		ledger, err := GetAccountByCode(db.WithContext(ctx), code)
		if err != nil {
			return nil, err
		}
		ledgerId = ledger.ID
	}
	currency := normalizeCurrency(input.Currency)
	if currency == "" {
		currency = BaseCurrency
	}
	account := MoneyAccount{
		Name:            input.Name,
		Kind:            input.Kind,
		Currency:        currency,
		AccountNumber:   input.AccountNumber,
		BankName:        input.BankName,
		Balance:         RoundMoney(input.OpeningBalance),
		LedgerAccountId: ledgerId,
		IsActive:        utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func ListMoneyAccounts(ctx context.Context, db *gorm.DB) ([]*MoneyAccount, error) {
	var results []*MoneyAccount
	err := db.WithContext(ctx).Order("name").Find(&results).Error
	return results, err
}

func GetMoneyAccount(ctx context.Context, db *gorm.DB, id int) (*MoneyAccount, error) {
	return utils.FetchModel[MoneyAccount](ctx, db, "money account", id)
}

// AdjustMoneyAccountBalance adds delta (negative to withdraw) under a row lock.
func AdjustMoneyAccountBalance(tx *gorm.DB, id int, delta decimal.Decimal) (*MoneyAccount, error) {
	account, err := utils.FetchModelForUpdate[MoneyAccount](tx, "money account", id)
	if err != nil {
		return nil, err
	}
	account.Balance = RoundMoney(account.Balance.Add(delta))
	if err := tx.Model(account).Update("balance", account.Balance).Error; err != nil {
		return nil, err
	}
	return account, nil
}
