package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Summarize totals a forecast and finds its lowest point and first shortfall.
func Summarize(startBalance decimal.Decimal, days []model.DailyForecast) model.Summary {
	s := model.Summary{
		Days:          len(days),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		StartBalance:  startBalance,
		EndBalance:    startBalance,
		LowestBalance: startBalance,
	}

	for _, d := range days {
		s.TotalIncome = s.TotalIncome.Add(d.Income)
		s.TotalExpenses = s.TotalExpenses.Add(d.Expenses)
		if d.Balance.LessThan(s.LowestBalance) {
			s.LowestBalance = d.Balance
			s.LowestDate = d.Date
		}
		if s.Shortfall == nil && d.Balance.IsNegative() {
			date := d.Date
			s.Shortfall = &date
		}
		s.EndBalance = d.Balance
	}
	s.TotalNet = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}
