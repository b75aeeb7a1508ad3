// Package pattern summarizes transaction history into the day-of-week, day-of-month,
// category and trend statistics the forecaster projects from.
package pattern

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/stats"
)

// ErrInsufficientHistory is returned when there are too few transactions to analyze.
var ErrInsufficientHistory = errors.New("insufficient transaction history")

const (
	// MinTransactions is the smallest history Analyze accepts.
	MinTransactions = 3
	// minSample is the smallest sample IQR filtering and trend estimation run on.
	minSample    = 10
	outlierFence = 1.5
	maxTrend     = 0.3

	// Uncategorized is the category bucket for transactions without a label.
	Uncategorized = "uncategorized"
)

// Bucket collects observed magnitudes on one side of the ledger.
type Bucket struct {
	Income   []float64
	Expenses []float64
}

// MeanIncome returns the mean income magnitude and whether any were observed.
func (b Bucket) MeanIncome() (float64, bool) {
	return stats.Mean(b.Income), len(b.Income) > 0
}

// MeanExpenses returns the mean expense magnitude and whether any were observed.
func (b Bucket) MeanExpenses() (float64, bool) {
	return stats.Mean(b.Expenses), len(b.Expenses) > 0
}

// CategoryTotal aggregates one category.
type CategoryTotal struct {
	Income   float64
	Expenses float64
	Count    int
}

// Trend holds the bounded relative change between the older and newer half of history.
type Trend struct {
	Income  float64
	Expense float64
}

// Analysis is the statistical summary of a transaction history.
type Analysis struct {
	DayOfWeek  [7]Bucket  // indexed by time.Weekday
	DayOfMonth [31]Bucket // index 0 is the 1st
	Categories map[string]CategoryTotal

	TotalIncome   float64
	TotalExpenses float64
	IncomeCount   int
	ExpenseCount  int
	TotalDays     int

	AvgDailyIncome   float64
	AvgDailyExpenses float64

	Trend        Trend
	OutlierCount int

	Start time.Time
	End   time.Time
}

// ForWeekday returns the bucket for a day of the week.
func (a *Analysis) ForWeekday(d time.Weekday) Bucket {
	return a.DayOfWeek[d]
}

// ForMonthDay returns the bucket for a day of the month (1..31).
func (a *Analysis) ForMonthDay(day int) Bucket {
	if day < 1 || day > 31 {
		return Bucket{}
	}
	return a.DayOfMonth[day-1]
}

// PooledWeekday returns every day-of-week magnitude, income and expense separately.
func (a *Analysis) PooledWeekday() (income, expenses []float64) {
	for _, b := range a.DayOfWeek {
		income = append(income, b.Income...)
		expenses = append(expenses, b.Expenses...)
	}
	return income, expenses
}

// Analyze builds an Analysis from txns, which may be in any order.
// Amounts must already be in the internal sign convention.
func Analyze(txns []model.Transaction) (*Analysis, error) {
	if len(txns) < MinTransactions {
		return nil, fmt.Errorf("%w: have %d transactions, need at least %d", ErrInsufficientHistory, len(txns), MinTransactions)
	}

	cleaned, removed := RemoveOutliers(txns)
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Date.Before(cleaned[j].Date)
	})

	a := &Analysis{
		Categories:   make(map[string]CategoryTotal),
		OutlierCount: removed,
	}

	for _, t := range cleaned {
		day := model.Day(t.Date)
		if a.Start.IsZero() || day.Before(a.Start) {
			a.Start = day
		}
		if day.After(a.End) {
			a.End = day
		}

		amt := t.Amount.InexactFloat64()
		cat := strings.TrimSpace(t.Category)
		if cat == "" {
			cat = Uncategorized
		}
		ct := a.Categories[cat]
		ct.Count++

		switch {
		case amt > 0:
			a.TotalIncome += amt
			a.IncomeCount++
			ct.Income += amt
			a.DayOfWeek[day.Weekday()].Income = append(a.DayOfWeek[day.Weekday()].Income, amt)
			a.DayOfMonth[day.Day()-1].Income = append(a.DayOfMonth[day.Day()-1].Income, amt)
		case amt < 0:
			mag := -amt
			a.TotalExpenses += mag
			a.ExpenseCount++
			ct.Expenses += mag
			a.DayOfWeek[day.Weekday()].Expenses = append(a.DayOfWeek[day.Weekday()].Expenses, mag)
			a.DayOfMonth[day.Day()-1].Expenses = append(a.DayOfMonth[day.Day()-1].Expenses, mag)
		}
		a.Categories[cat] = ct
	}

	a.TotalDays = elapsedDays(a.Start, a.End)
	a.AvgDailyIncome = a.TotalIncome / float64(a.TotalDays)
	a.AvgDailyExpenses = a.TotalExpenses / float64(a.TotalDays)
	a.Trend = computeTrend(cleaned)

	return a, nil
}

// RemoveOutliers drops transactions whose magnitude falls outside the IQR fences.
// Samples smaller than 10 are returned unfiltered. The result is a new slice.
func RemoveOutliers(txns []model.Transaction) ([]model.Transaction, int) {
	out := make([]model.Transaction, 0, len(txns))
	if len(txns) < minSample {
		return append(out, txns...), 0
	}

	mags := make([]float64, len(txns))
	for i, t := range txns {
		mags[i] = t.Amount.Abs().InexactFloat64()
	}
	lo, hi := stats.IQRBounds(mags, outlierFence)

	for i, t := range txns {
		if mags[i] < lo || mags[i] > hi {
			continue
		}
		out = append(out, t)
	}
	return out, len(txns) - len(out)
}

func elapsedDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// computeTrend compares income and expense totals of the older and newer half
// of a date-ordered history.
func computeTrend(sorted []model.Transaction) Trend {
	if len(sorted) < minSample {
		return Trend{}
	}
	mid := len(sorted) / 2
	firstIncome, firstExpense := sideTotals(sorted[:mid])
	secondIncome, secondExpense := sideTotals(sorted[mid:])
	return Trend{
		Income:  relativeChange(firstIncome, secondIncome),
		Expense: relativeChange(firstExpense, secondExpense),
	}
}

func sideTotals(txns []model.Transaction) (income, expense float64) {
	for _, t := range txns {
		amt := t.Amount.InexactFloat64()
		if amt > 0 {
			income += amt
		} else {
			expense -= amt
		}
	}
	return income, expense
}

func relativeChange(before, after float64) float64 {
	if before <= 0 {
		return 0
	}
	return stats.Clamp((after-before)/before, -maxTrend, maxTrend)
}
