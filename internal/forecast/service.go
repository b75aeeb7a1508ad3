package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/cashflow/internal/metrics"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

// MultiplierSource looks up per-entity weekend multipliers.
type MultiplierSource interface {
	Multipliers(entity string) model.Multipliers
}

// Request is one forecast for one entity.
type Request struct {
	Entity      string
	Balance     decimal.Decimal
	HorizonDays int
	Today       time.Time // zero means the current UTC date
}

// Result is a completed forecast run.
type Result struct {
	*Output
	RunID   string
	Entity  string
	Today   time.Time
	Summary model.Summary
}

// Service loads history from a Source and runs the engine. It holds only
// read-only dependencies and is safe for concurrent use.
type Service struct {
	source       store.Source
	multipliers  MultiplierSource
	log          logrus.FieldLogger
	metrics      *metrics.Recorder
	lookbackDays int
	now          func() time.Time
}

// NewService creates a forecast service. lookbackDays bounds the history read
// from source; 0 reads everything. rec may be nil.
func NewService(source store.Source, multipliers MultiplierSource, log logrus.FieldLogger, rec *metrics.Recorder, lookbackDays int) *Service {
	return &Service{
		source:       source,
		multipliers:  multipliers,
		log:          log,
		metrics:      rec,
		lookbackDays: lookbackDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run forecasts req.Entity from its stored history.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	today := req.Today
	if today.IsZero() {
		today = start
	}
	today = model.Day(today)

	runID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"entity":  req.Entity,
		"run_id":  runID,
		"horizon": req.HorizonDays,
	})

	var since time.Time
	if s.lookbackDays > 0 {
		since = today.AddDate(0, 0, -s.lookbackDays)
	}
	txns, err := s.source.Transactions(ctx, req.Entity, since, today.AddDate(0, 0, 1))
	if err != nil {
		s.metrics.RecordFailure(req.Entity, metrics.ResultError, s.now().Sub(start))
		log.WithError(err).Error("loading history failed")
		return nil, fmt.Errorf("loading history for %s: %w", req.Entity, err)
	}

	opts := Options{Today: today}
	if s.multipliers != nil {
		m := s.multipliers.Multipliers(req.Entity)
		opts.Multipliers = &m
	}

	out, err := Compute(txns, req.Balance, req.HorizonDays, opts)
	elapsed := s.now().Sub(start)
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, ErrInsufficientHistory) {
			result = metrics.ResultInsufficientHistory
		}
		s.metrics.RecordFailure(req.Entity, result, elapsed)
		log.WithError(err).WithField("transactions", len(txns)).Warn("forecast failed")
		return nil, fmt.Errorf("forecasting %s: %w", req.Entity, err)
	}

	summary := Summarize(req.Balance, out.Days)
	s.metrics.RecordForecast(req.Entity, elapsed, len(out.Recurring), summary.EndBalance.InexactFloat64())

	fields := logrus.Fields{
		"transactions": len(txns),
		"outliers":     out.Analysis.OutlierCount,
		"recurring":    len(out.Recurring),
		"end_balance":  summary.EndBalance.StringFixed(2),
		"duration_ms":  elapsed.Milliseconds(),
	}
	if summary.Shortfall != nil {
		fields["shortfall"] = summary.Shortfall.Format("2006-01-02")
	}
	log.WithFields(fields).Info("forecast complete")

	return &Result{
		Output:  out,
		RunID:   runID,
		Entity:  req.Entity,
		Today:   today,
		Summary: summary,
	}, nil
}
