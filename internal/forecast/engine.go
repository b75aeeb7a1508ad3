// Package forecast projects a deterministic daily cash-flow trajectory from
// transaction history. The engine is a pure function of its inputs: no I/O,
// no randomness, no shared state.
package forecast

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/pattern"
	"github.com/cleared-dev/cashflow/internal/recurring"
	"github.com/cleared-dev/cashflow/internal/schedule"
	"github.com/cleared-dev/cashflow/internal/stats"
)

// ErrInsufficientHistory is returned when fewer than pattern.MinTransactions are supplied.
var ErrInsufficientHistory = pattern.ErrInsufficientHistory

const (
	// A scheduled amount replaces the statistical prediction only when it is
	// larger than this multiple of the daily average.
	overrideFactor = 3.0
	// Half-width of the uncertainty range, in standard deviations.
	rangeWidth = 0.5
)

// Options tune a single forecast.
type Options struct {
	// Today is the last day of history; the forecast starts the day after.
	// The zero value means the current UTC date.
	Today time.Time
	// Multipliers scale weekend predictions; nil leaves them unchanged.
	Multipliers *model.Multipliers
}

func (o Options) today() time.Time {
	if o.Today.IsZero() {
		return model.Day(time.Now().UTC())
	}
	return model.Day(o.Today)
}

// Output carries every stage of a forecast run.
type Output struct {
	Analysis  *pattern.Analysis
	Recurring []model.RecurringTransaction
	Schedule  schedule.Schedule
	Days      []model.DailyForecast
}

// Forecast returns one DailyForecast per day for horizonDays days after opts.Today.
// txns must use the internal sign convention and may be in any order.
func Forecast(txns []model.Transaction, currentBalance decimal.Decimal, horizonDays int, opts Options) ([]model.DailyForecast, error) {
	out, err := Compute(txns, currentBalance, horizonDays, opts)
	if err != nil {
		return nil, err
	}
	return out.Days, nil
}

// Compute runs the full pipeline and keeps the intermediate results.
func Compute(txns []model.Transaction, currentBalance decimal.Decimal, horizonDays int, opts Options) (*Output, error) {
	analysis, err := pattern.Analyze(txns)
	if err != nil {
		return nil, err
	}
	rec := recurring.Detect(txns)
	sched := schedule.Build(rec, opts.today(), horizonDays)

	return &Output{
		Analysis:  analysis,
		Recurring: rec,
		Schedule:  sched,
		Days:      Generate(analysis, sched, currentBalance, horizonDays, opts),
	}, nil
}

// Generate produces the per-day projections from an analysis and a recurring schedule.
func Generate(a *pattern.Analysis, sched schedule.Schedule, currentBalance decimal.Decimal, horizonDays int, opts Options) []model.DailyForecast {
	if horizonDays <= 0 {
		return []model.DailyForecast{}
	}

	today := opts.today()
	mult := model.DefaultMultipliers()
	if opts.Multipliers != nil {
		mult = *opts.Multipliers
	}

	pooledIncome, pooledExpenses := a.PooledWeekday()
	incomeSpread := rangeWidth * stats.StdDev(pooledIncome)
	expenseSpread := rangeWidth * stats.StdDev(pooledExpenses)

	days := make([]model.DailyForecast, 0, horizonDays)
	balance := currentBalance

	for i := 1; i <= horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		income, expenses := baseline(a, date)

		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			income *= mult.WeekendIncome
			expenses *= mult.WeekendExpense
		}

		// Averages already absorb recurring history; only a clearly distinct
		// large event replaces them.
		scheduled := sched.At(date)
		if scheduled.Income > overrideFactor*a.AvgDailyIncome {
			income = scheduled.Income
		}
		if scheduled.Expenses > overrideFactor*a.AvgDailyExpenses {
			expenses = scheduled.Expenses
		}

		progress := float64(i) / float64(horizonDays)
		income *= 1 + a.Trend.Income*progress
		expenses *= 1 + a.Trend.Expense*progress

		income = math.Max(0, income)
		expenses = math.Max(0, expenses)

		inc := money(income)
		exp := money(expenses)
		net := inc.Sub(exp)
		balance = balance.Add(net)

		days = append(days, model.DailyForecast{
			Date:     date,
			Income:   inc,
			Expenses: exp,
			Net:      net,
			IncomeRange: model.Range{
				Min: money(math.Max(0, income-incomeSpread)),
				Max: money(income + incomeSpread),
			},
			ExpenseRange: model.Range{
				Min: money(math.Max(0, expenses-expenseSpread)),
				Max: money(expenses + expenseSpread),
			},
			Balance: balance,
		})
	}
	return days
}

// baseline prefers the day-of-month signal, then day-of-week, then the overall
// daily average, independently for income and expenses.
func baseline(a *pattern.Analysis, date time.Time) (income, expenses float64) {
	dom := a.ForMonthDay(date.Day())
	dow := a.ForWeekday(date.Weekday())

	if v, ok := dom.MeanIncome(); ok {
		income = v
	} else if v, ok := dow.MeanIncome(); ok {
		income = v
	} else {
		income = a.AvgDailyIncome
	}

	if v, ok := dom.MeanExpenses(); ok {
		expenses = v
	} else if v, ok := dow.MeanExpenses(); ok {
		expenses = v
	} else {
		expenses = a.AvgDailyExpenses
	}
	return income, expenses
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}
