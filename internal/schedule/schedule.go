// Package schedule projects detected recurring transactions onto the calendar
// days of a forecast horizon.
package schedule

import (
	"sort"
	"time"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Tolerance is how many days either side of a predicted date an occurrence counts toward.
const Tolerance = 2

const dayFormat = "2006-01-02"

// Amount is the recurring income and expense expected on one day.
type Amount struct {
	Income   float64
	Expenses float64
}

// Schedule maps calendar days to their scheduled recurring amounts.
type Schedule map[string]Amount

// At returns the scheduled amount for the calendar day of d.
func (s Schedule) At(d time.Time) Amount {
	return s[model.Day(d).Format(dayFormat)]
}

// Dates returns the scheduled days in ascending order.
func (s Schedule) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s))
	for k := range s {
		d, err := time.Parse(dayFormat, k)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Build steps each recurring transaction forward from its next date by its
// interval, at most horizonDays times, and credits every horizon day
// (today+1 .. today+horizonDays) lying within Tolerance days of an occurrence.
// A day is credited at most once per recurring transaction, however many of
// its occurrences fall within Tolerance.
func Build(items []model.RecurringTransaction, today time.Time, horizonDays int) Schedule {
	s := make(Schedule)
	if horizonDays <= 0 {
		return s
	}

	first := model.Day(today).AddDate(0, 0, 1)
	last := model.Day(today).AddDate(0, 0, horizonDays)
	cutoff := last.AddDate(0, 0, Tolerance)

	for _, rt := range items {
		if rt.IntervalDays <= 0 || rt.Amount <= 0 {
			continue
		}
		credited := make(map[string]bool)
		occ := model.Day(rt.NextDate)
		for step := 0; step < horizonDays && !occ.After(cutoff); step++ {
			for off := -Tolerance; off <= Tolerance; off++ {
				d := occ.AddDate(0, 0, off)
				if d.Before(first) || d.After(last) {
					continue
				}
				key := d.Format(dayFormat)
				if credited[key] {
					continue
				}
				credited[key] = true
				a := s[key]
				if rt.Direction == model.DirectionExpense {
					a.Expenses += rt.Amount
				} else {
					a.Income += rt.Amount
				}
				s[key] = a
			}
			occ = occ.AddDate(0, 0, rt.IntervalDays)
		}
	}
	return s
}
