package forecast

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/model"
)

func dailyWithBalance(i int, income, expenses, balance string) model.DailyForecast {
	inc := decimal.RequireFromString(income)
	exp := decimal.RequireFromString(expenses)
	return model.DailyForecast{
		Date:     day(2025, 3, 1+i),
		Income:   inc,
		Expenses: exp,
		Net:      inc.Sub(exp),
		Balance:  decimal.RequireFromString(balance),
	}
}

func TestSummarize(t *testing.T) {
	days := []model.DailyForecast{
		dailyWithBalance(0, "0", "100", "0"),
		dailyWithBalance(1, "0", "50", "-50"),
		dailyWithBalance(2, "120", "50", "20"),
	}
	s := Summarize(decimal.NewFromInt(100), days)

	assert.Equal(t, 3, s.Days)
	assertMoney(t, "120", s.TotalIncome)
	assertMoney(t, "200", s.TotalExpenses)
	assertMoney(t, "-80", s.TotalNet)
	assertMoney(t, "20", s.EndBalance)
	assertMoney(t, "-50", s.LowestBalance)
	assert.Equal(t, day(2025, 3, 2), s.LowestDate)
	require.NotNil(t, s.Shortfall)
	assert.Equal(t, day(2025, 3, 2), *s.Shortfall)
}

func TestSummarize_NoShortfall(t *testing.T) {
	days := []model.DailyForecast{
		dailyWithBalance(0, "10", "0", "110"),
		dailyWithBalance(1, "10", "0", "120"),
	}
	s := Summarize(decimal.NewFromInt(100), days)
	assert.Nil(t, s.Shortfall)
	assertMoney(t, "100", s.LowestBalance)
	assert.True(t, s.LowestDate.IsZero())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(decimal.NewFromInt(42), nil)
	assert.Equal(t, 0, s.Days)
	assertMoney(t, "42", s.EndBalance)
	assertMoney(t, "0", s.TotalNet)
}
