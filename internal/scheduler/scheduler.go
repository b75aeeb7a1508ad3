// Package scheduler re-runs forecasts for a set of entities on a cron schedule,
// writes each result to a CSV file and records the run in the output
// directory's run log.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/cashflow/internal/forecast"
	"github.com/cleared-dev/cashflow/internal/gitops"
	"github.com/cleared-dev/cashflow/internal/metrics"
	"github.com/cleared-dev/cashflow/internal/report"
	"github.com/cleared-dev/cashflow/internal/runlog"
)

// Forecaster runs one forecast.
type Forecaster interface {
	Run(ctx context.Context, req forecast.Request) (*forecast.Result, error)
}

// BalanceSource supplies the current balance of an entity.
type BalanceSource interface {
	Balance(entity string) (decimal.Decimal, error)
}

// Options configure a Runner.
type Options struct {
	Entities    []string
	HorizonDays int
	OutputDir   string
	Textfile    string // metrics textfile, empty to skip

	// Commit commits written forecasts and the run log when RepoRoot is a
	// git repository.
	Commit   bool
	RepoRoot string
}

// Runner refreshes forecasts.
type Runner struct {
	forecaster Forecaster
	balances   BalanceSource
	metrics    *metrics.Recorder
	log        logrus.FieldLogger
	opts       Options
	now        func() time.Time
}

// New creates a Runner. rec may be nil.
func New(f Forecaster, balances BalanceSource, rec *metrics.Recorder, log logrus.FieldLogger, opts Options) *Runner {
	return &Runner{
		forecaster: f,
		balances:   balances,
		metrics:    rec,
		log:        log,
		opts:       opts,
		now:        time.Now,
	}
}

// Validate reports whether expr is a valid five-field cron expression or descriptor.
func Validate(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// RunOnce forecasts every entity, writes <output_dir>/<entity>-<date>.csv and
// appends one row per written forecast to <output_dir>/runs.csv.
// A failing entity does not stop the others; all failures are returned joined.
func (r *Runner) RunOnce(ctx context.Context) ([]string, error) {
	var (
		written []string
		entries []runlog.Entry
		errs    []error
	)
	for _, entity := range r.opts.Entities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		entry, err := r.runEntity(ctx, entity)
		if err != nil {
			r.log.WithError(err).WithField("entity", entity).Error("scheduled forecast failed")
			errs = append(errs, err)
			continue
		}
		written = append(written, filepath.Join(r.opts.OutputDir, entry.File))
		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		if err := runlog.Append(r.opts.OutputDir, entries); err != nil {
			errs = append(errs, err)
		} else if r.opts.Commit {
			r.commit(written)
		}
	}

	if err := r.metrics.WriteTextfile(r.opts.Textfile); err != nil {
		errs = append(errs, err)
	}
	return written, errors.Join(errs...)
}

func (r *Runner) runEntity(ctx context.Context, entity string) (runlog.Entry, error) {
	balance, err := r.balances.Balance(entity)
	if err != nil {
		return runlog.Entry{}, err
	}
	res, err := r.forecaster.Run(ctx, forecast.Request{
		Entity:      entity,
		Balance:     balance,
		HorizonDays: r.opts.HorizonDays,
	})
	if err != nil {
		return runlog.Entry{}, err
	}
	name := report.FileName(entity, res.Today)
	path := filepath.Join(r.opts.OutputDir, name)
	if err := report.WriteFile(path, res.Days); err != nil {
		return runlog.Entry{}, fmt.Errorf("writing forecast for %s: %w", entity, err)
	}
	r.log.WithFields(logrus.Fields{"entity": entity, "run_id": res.RunID, "path": path}).Info("forecast written")

	return runlog.Entry{
		Timestamp:     r.now(),
		Entity:        entity,
		RunID:         res.RunID,
		Today:         res.Today,
		HorizonDays:   r.opts.HorizonDays,
		EndBalance:    res.Summary.EndBalance,
		LowestBalance: res.Summary.LowestBalance,
		Shortfall:     res.Summary.Shortfall,
		File:          name,
	}, nil
}

// commit versions the written forecasts. Failures are logged, not returned:
// the forecasts themselves are already on disk.
func (r *Runner) commit(written []string) {
	if !gitops.IsRepo(r.opts.RepoRoot) {
		r.log.WithField("repo", r.opts.RepoRoot).Warn("not a git repository, skipping commit")
		return
	}
	paths := append([]string{filepath.Join(r.opts.OutputDir, runlog.FileName)}, written...)
	msg := fmt.Sprintf("forecast: refresh %d entities", len(written))
	hash, err := gitops.Commit(r.opts.RepoRoot, msg, gitops.DefaultAuthor, paths...)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
		r.log.Debug("forecasts unchanged, nothing to commit")
	case err != nil:
		r.log.WithError(err).Error("committing forecasts failed")
	default:
		r.log.WithField("commit", hash).Info("forecasts committed")
	}
}

// Start runs RunOnce on expr until ctx is cancelled, then waits for any
// in-flight run to finish. Overlapping runs are skipped.
func (r *Runner) Start(ctx context.Context, expr string) error {
	if err := Validate(expr); err != nil {
		return err
	}
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(r.log)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(r.log)), cron.SkipIfStillRunning(cron.PrintfLogger(r.log))),
	)
	if _, err := c.AddFunc(expr, func() {
		// Errors are already logged per entity.
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("scheduling forecasts: %w", err)
	}

	r.log.WithFields(logrus.Fields{"cron": expr, "entities": len(r.opts.Entities)}).Info("watching")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
