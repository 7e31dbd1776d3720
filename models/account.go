package models

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// system account codes
const (
	AccountCodeCash               = "1101"
	AccountCodeBank               = "1102"
	AccountCodeAccountsReceivable = "1201"
	AccountCodeAccountsPayable    = "2101"
	AccountCodeVatPayable         = "2301"
	AccountCodeSalesRevenue       = "4101"
	AccountCodeCostOfSales        = "5101"
)

// Account is a chart-of-accounts node. Children point at their parent; the
// balances are written only while posting journal entries.
type Account struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Code            string          `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Type            AccountType     `gorm:"size:20;not null;index" json:"type"`
	ParentAccountId int             `gorm:"index;not null;default:0" json:"parent_account_id"`
	Balance         decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	DebitBalance    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"debit_balance"`
	CreditBalance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"credit_balance"`
	IsSystem        *bool           `gorm:"not null;default:false" json:"is_system"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Code            string      `json:"code" validate:"required,max=20"`
	Name            string      `json:"name" validate:"required,max=100"`
	Type            AccountType `json:"type" validate:"required"`
	ParentAccountId int         `json:"parent_account_id"`
}

var systemAccounts = []NewAccount{
	{Code: AccountCodeCash, Name: "Cash", Type: AccountTypeAsset},
	{Code: AccountCodeBank, Name: "Bank", Type: AccountTypeAsset},
	{Code: AccountCodeAccountsReceivable, Name: "Accounts Receivable", Type: AccountTypeAsset},
	{Code: AccountCodeAccountsPayable, Name: "Accounts Payable", Type: AccountTypeLiability},
	{Code: AccountCodeVatPayable, Name: "VAT Payable", Type: AccountTypeLiability},
	{Code: AccountCodeSalesRevenue, Name: "Sales Revenue", Type: AccountTypeIncome},
	{Code: AccountCodeCostOfSales, Name: "Cost of Sales", Type: AccountTypeExpense},
}

// validate input for both create & update. (id = 0 for create)
func (input *NewAccount) validate(ctx context.Context, db *gorm.DB, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if !input.Type.IsValid() {
		return utils.NewValidationError("type", "invalid account type %q", input.Type)
	}
	count, err := utils.ResourceCountWhere[Account](ctx, db, "code = ? AND id <> ?", input.Code, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewConflictError("account code %s already exists", input.Code)
	}
	if input.ParentAccountId > 0 {
		if id > 0 && input.ParentAccountId == id {
			return utils.NewValidationError("parent_account_id", "self-parent not allowed")
		}
		if err := utils.ValidateResourceId[Account](ctx, db, "parent account", input.ParentAccountId); err != nil {
			return err
		}
		if id > 0 {
			isDescendant, err := isDescendantAccount(ctx, db, input.ParentAccountId, id)
			if err != nil {
				return err
			}
			if isDescendant {
				return utils.NewValidationError("parent_account_id", "parent cannot be a descendant of the account")
			}
		}
	}
	return nil
}

// isDescendantAccount walks up from candidate looking for ancestor.
func isDescendantAccount(ctx context.Context, db *gorm.DB, candidate int, ancestor int) (bool, error) {
	seen := map[int]bool{}
	current := candidate
	for current > 0 && !seen[current] {
		if current == ancestor {
			return true, nil
		}
		seen[current] = true
		var parentId int
		err := db.WithContext(ctx).Model(&Account{}).Where("id = ?", current).Pluck("parent_account_id", &parentId).Error
		if err != nil {
			return false, err
		}
		current = parentId
	}
	return false, nil
}

func CreateAccount(ctx context.Context, db *gorm.DB, input *NewAccount) (*Account, error) {
	if err := input.validate(ctx, db, 0); err != nil {
		return nil, err
	}
	account := Account{
		Code:            input.Code,
		Name:            input.Name,
		Type:            input.Type,
		ParentAccountId: input.ParentAccountId,
		IsSystem:        utils.NewFalse(),
		IsActive:        utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateAccount(ctx context.Context, db *gorm.DB, id int, input *NewAccount) (*Account, error) {
	account, err := utils.FetchModel[Account](ctx, db, "account", id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}
	if utils.DereferencePtr(account.IsSystem, false) && (input.Code != account.Code || input.Type != account.Type) {
		return nil, utils.NewConflictError("system account %s cannot change code or type", account.Code)
	}
	err = db.WithContext(ctx).Model(account).Updates(map[string]interface{}{
		"code":              input.Code,
		"name":              input.Name,
		"type":              input.Type,
		"parent_account_id": input.ParentAccountId,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Account](ctx, db, "account", id)
}

// DeleteAccount refuses accounts that are system defaults, have children or
// are referenced by any journal entry.
func DeleteAccount(ctx context.Context, db *gorm.DB, id int) (*Account, error) {
	account, err := utils.FetchModel[Account](ctx, db, "account", id)
	if err != nil {
		return nil, err
	}
	if utils.DereferencePtr(account.IsSystem, false) {
		return nil, utils.NewConflictError("system account %s cannot be deleted", account.Code)
	}
	children, err := utils.ResourceCountWhere[Account](ctx, db, "parent_account_id = ?", id)
	if err != nil {
		return nil, err
	}
	if children > 0 {
		return nil, utils.NewConflictError("account %s has child accounts", account.Code)
	}
	entries, err := utils.ResourceCountWhere[JournalEntry](ctx, db, "debit_account_id = ? OR credit_account_id = ?", id, id)
	if err != nil {
		return nil, err
	}
	if entries > 0 {
		return nil, utils.NewConflictError("account %s has journal entries", account.Code)
	}
	if err := db.WithContext(ctx).Delete(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func ListAccounts(ctx context.Context, db *gorm.DB) ([]*Account, error) {
	var results []*Account
	err := db.WithContext(ctx).Order("code").Find(&results).Error
	return results, err
}

func GetAccount(ctx context.Context, db *gorm.DB, id int) (*Account, error) {
	return utils.FetchModel[Account](ctx, db, "account", id)
}

func GetAccountByCode(tx *gorm.DB, code string) (*Account, error) {
	var account Account
	if err := tx.Where("code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("account", code)
		}
		return nil, err
	}
	return &account, nil
}

// SeedSystemAccounts creates missing system accounts. Existing rows are kept.
func SeedSystemAccounts(ctx context.Context, db *gorm.DB) error {
	for _, in := range systemAccounts {
		account := Account{
			Code:     in.Code,
			Name:     in.Name,
			Type:     in.Type,
			IsSystem: utils.NewTrue(),
			IsActive: utils.NewTrue(),
		}
		err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// lockAccounts takes row locks in id order so two postings never deadlock.
func lockAccounts(tx *gorm.DB, ids ...int) (map[int]*Account, error) {
	ids = utils.UniqueSlice(ids)
	sort.Ints(ids)
	locked := make(map[int]*Account, len(ids))
	for _, id := range ids {
		account, err := utils.FetchModelForUpdate[Account](tx, "account", id)
		if err != nil {
			return nil, err
		}
		locked[id] = account
	}
	return locked, nil
}
