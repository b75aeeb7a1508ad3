package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Range is a closed interval of amounts.
type Range struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DailyForecast is the projection for a single calendar day.
type DailyForecast struct {
	Date         time.Time
	Income       decimal.Decimal
	Expenses     decimal.Decimal
	Net          decimal.Decimal // Income - Expenses
	IncomeRange  Range
	ExpenseRange Range
	Balance      decimal.Decimal // running balance after this day
}

// Multipliers are per-entity weekend adjustments, applied as-is. A zero
// field removes that side's weekend predictions entirely.
type Multipliers struct {
	WeekendIncome  float64
	WeekendExpense float64
}

// DefaultMultipliers leaves weekend predictions unchanged.
func DefaultMultipliers() Multipliers {
	return Multipliers{WeekendIncome: 1, WeekendExpense: 1}
}

// Summary aggregates a forecast horizon.
type Summary struct {
	Days           int
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	TotalNet       decimal.Decimal
	StartBalance   decimal.Decimal
	EndBalance     decimal.Decimal
	LowestBalance  decimal.Decimal
	LowestDate     time.Time
	Shortfall      *time.Time // first day the balance goes negative, nil if never
}
