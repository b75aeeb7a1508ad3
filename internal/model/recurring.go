package model

import "time"

// Frequency labels the cadence of a recurring series.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyUnknown   Frequency = "unknown"
)

// RecurringTransaction is a merchant/amount series that repeats at a consistent interval.
type RecurringTransaction struct {
	MerchantKey  string
	Amount       float64 // mean magnitude of the observed occurrences
	Direction    Direction
	Category     string
	Frequency    Frequency
	IntervalDays int
	Occurrences  int
	LastDate     time.Time
	NextDate     time.Time
	Confidence   float64 // in (0, 0.95]
}
