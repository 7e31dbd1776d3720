package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/travel_backend/config"
	"github.com/mmdatafocus/travel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const rateTableCacheKey = "CurrencyRateTable"

// RateTable converts through a single base currency. Rates are units of base per 1 unit.
type RateTable struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func NewRateTable(base string, rates map[string]decimal.Decimal) RateTable {
	t := RateTable{Base: normalizeCurrency(base), Rates: make(map[string]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		t.Rates[normalizeCurrency(code)] = rate
	}
	return t
}

// DefaultRateTable is used when the currency_rates table is empty.
func DefaultRateTable() RateTable {
	return NewRateTable(BaseCurrency, map[string]decimal.Decimal{
		"AED": decimal.NewFromInt(1),
		"USD": decimal.RequireFromString("3.6725"),
		"EUR": decimal.RequireFromString("4.0"),
		"GBP": decimal.RequireFromString("4.65"),
		"SAR": decimal.RequireFromString("0.979"),
		"INR": decimal.RequireFromString("0.044"),
		"QAR": decimal.RequireFromString("1.009"),
		"OMR": decimal.RequireFromString("9.54"),
		"KWD": decimal.RequireFromString("11.95"),
		"BHD": decimal.RequireFromString("9.74"),
	})
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Rate returns the rate for code. Unknown codes and the base itself get 1: conversion
// fails open so a missing rate never blocks a booking.
func (t RateTable) Rate(code string) decimal.Decimal {
	code = normalizeCurrency(code)
	if code == "" || code == t.Base {
		return decimal.NewFromInt(1)
	}
	rate, ok := t.Rates[code]
	if !ok || !rate.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return rate
}

func (t RateTable) Known(code string) bool {
	code = normalizeCurrency(code)
	if code == t.Base {
		return true
	}
	_, ok := t.Rates[code]
	return ok
}

func (t RateTable) ToBase(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Mul(t.Rate(currency))
}

func (t RateTable) FromBase(amountInBase decimal.Decimal, currency string) decimal.Decimal {
	return amountInBase.Div(t.Rate(currency))
}

func (t RateTable) Convert(amount decimal.Decimal, from string, to string) decimal.Decimal {
	if normalizeCurrency(from) == normalizeCurrency(to) {
		return amount
	}
	return t.FromBase(t.ToBase(amount, from), to)
}

// CurrencyRate is one persisted row of the rate table.
type CurrencyRate struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Code      string          `gorm:"uniqueIndex;size:3;not null" json:"code"`
	Name      string          `gorm:"size:100" json:"name"`
	Rate      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"rate"`
	UpdatedBy int             `json:"updated_by"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCurrencyRate struct {
	Code string          `json:"code" validate:"required,len=3"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// LoadRateTable reads the persisted rates, going through the cache when enabled.
func LoadRateTable(ctx context.Context, db *gorm.DB, cache *config.Cache) (RateTable, error) {
	var table RateTable
	if ok, err := cache.GetObject(ctx, rateTableCacheKey, &table); err == nil && ok {
		return table, nil
	}

	var rows []CurrencyRate
	if err := db.WithContext(ctx).Find(&rows).Error; err != nil {
		return RateTable{}, err
	}
	if len(rows) == 0 {
		return DefaultRateTable(), nil
	}
	rates := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		rates[r.Code] = r.Rate
	}
	table = NewRateTable(BaseCurrency, rates)
	_ = cache.SetObject(ctx, rateTableCacheKey, &table, time.Hour)
	return table, nil
}

// UpdateCurrencyRates is the manual rate update path. The base currency is pinned to 1.
func UpdateCurrencyRates(ctx context.Context, db *gorm.DB, cache *config.Cache, userId int, input []NewCurrencyRate) ([]CurrencyRate, error) {
	if len(input) == 0 {
		return nil, utils.NewValidationError("rates", "at least one rate is required")
	}
	rows := make([]CurrencyRate, 0, len(input))
	for _, in := range input {
		if err := utils.ValidateStruct(in); err != nil {
			return nil, err
		}
		code := normalizeCurrency(in.Code)
		rate := in.Rate
		if code == BaseCurrency {
			rate = decimal.NewFromInt(1)
		}
		if !rate.IsPositive() {
			return nil, utils.NewValidationError("rate", "rate for %s must be positive", code)
		}
		rows = append(rows, CurrencyRate{Code: code, Name: in.Name, Rate: rate, UpdatedBy: userId})
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "rate", "updated_by", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}
	if err := cache.Remove(ctx, rateTableCacheKey); err != nil {
		return nil, err
	}
	return rows, nil
}

// SeedDefaultRates fills an empty table from DefaultRateTable.
func SeedDefaultRates(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&CurrencyRate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	def := DefaultRateTable()
	rows := make([]CurrencyRate, 0, len(def.Rates))
	for code, rate := range def.Rates {
		rows = append(rows, CurrencyRate{Code: code, Rate: rate})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func ListCurrencyRates(ctx context.Context, db *gorm.DB) ([]CurrencyRate, error) {
	var rows []CurrencyRate
	err := db.WithContext(ctx).Order("code").Find(&rows).Error
	return rows, err
}
