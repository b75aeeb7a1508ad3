// Package recurring mines transaction history for merchant-level payments that
// repeat at a consistent interval (rent, payroll, subscriptions).
package recurring

import (
	"math"
	"sort"
	"strings"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/stats"
)

const (
	minOccurrences = 2
	gapTolerance   = 7.0 // days a single gap may stray from the mean gap
	baseConfidence = 0.6
	confidenceStep = 0.1
	maxConfidence  = 0.95
)

// NormalizeMerchant case-folds and trims a merchant or description string.
func NormalizeMerchant(desc string) string {
	return strings.ToLower(strings.TrimSpace(desc))
}

// GroupKey returns the series key for t: normalized merchant plus the magnitude
// rounded to the nearest whole currency unit.
func GroupKey(t model.Transaction) string {
	return NormalizeMerchant(t.Description) + "|" + t.Amount.Abs().Round(0).String()
}

// Detect groups txns into candidate series and returns those with a consistent
// interval, largest amount first. It uses the full, unfiltered history.
func Detect(txns []model.Transaction) []model.RecurringTransaction {
	groups := make(map[string][]model.Transaction)
	for _, t := range txns {
		if t.Amount.IsZero() {
			continue
		}
		k := GroupKey(t)
		groups[k] = append(groups[k], t)
	}

	var out []model.RecurringTransaction
	for _, g := range groups {
		if rt, ok := classify(g); ok {
			out = append(out, rt)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		if out[i].MerchantKey != out[j].MerchantKey {
			return out[i].MerchantKey < out[j].MerchantKey
		}
		return out[i].LastDate.Before(out[j].LastDate)
	})
	return out
}

// Classify maps a mean interval in days to a frequency label.
func Classify(meanDays float64) model.Frequency {
	switch {
	case meanDays >= 25 && meanDays <= 35:
		return model.FrequencyMonthly
	case meanDays >= 12 && meanDays <= 16:
		return model.FrequencyBiweekly
	case meanDays >= 6 && meanDays <= 8:
		return model.FrequencyWeekly
	case meanDays >= 85 && meanDays <= 95:
		return model.FrequencyQuarterly
	default:
		return model.FrequencyUnknown
	}
}

func classify(group []model.Transaction) (model.RecurringTransaction, bool) {
	if len(group) < minOccurrences {
		return model.RecurringTransaction{}, false
	}

	sorted := make([]model.Transaction, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev := model.Day(sorted[i-1].Date)
		cur := model.Day(sorted[i].Date)
		gaps = append(gaps, math.Round(cur.Sub(prev).Hours()/24))
	}
	mean := stats.Mean(gaps)
	// Same-day duplicates are not a cadence.
	if mean < 1 {
		return model.RecurringTransaction{}, false
	}
	for _, g := range gaps {
		if math.Abs(g-mean) > gapTolerance {
			return model.RecurringTransaction{}, false
		}
	}

	var sumAbs, sumSigned float64
	for _, t := range sorted {
		amt := t.Amount.InexactFloat64()
		sumAbs += math.Abs(amt)
		sumSigned += amt
	}
	direction := model.DirectionIncome
	if sumSigned < 0 {
		direction = model.DirectionExpense
	}

	interval := int(math.Round(mean))
	last := model.Day(sorted[len(sorted)-1].Date)
	n := len(sorted)

	return model.RecurringTransaction{
		MerchantKey:  NormalizeMerchant(sorted[0].Description),
		Amount:       sumAbs / float64(n),
		Direction:    direction,
		Category:     dominantCategory(sorted),
		Frequency:    Classify(mean),
		IntervalDays: interval,
		Occurrences:  n,
		LastDate:     last,
		NextDate:     last.AddDate(0, 0, interval),
		Confidence:   math.Min(maxConfidence, baseConfidence+float64(n)*confidenceStep),
	}, true
}

// dominantCategory returns the most common non-empty category, ties broken alphabetically.
func dominantCategory(txns []model.Transaction) string {
	counts := make(map[string]int)
	for _, t := range txns {
		if c := strings.TrimSpace(t.Category); c != "" {
			counts[c]++
		}
	}
	best, bestN := "", 0
	for c, n := range counts {
		if n > bestN || (n == bestN && c < best) {
			best, bestN = c, n
		}
	}
	return best
}
