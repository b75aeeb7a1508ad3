package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/cashflow/internal/config"
	"github.com/cleared-dev/cashflow/internal/forecast"
	"github.com/cleared-dev/cashflow/internal/logging"
	"github.com/cleared-dev/cashflow/internal/metrics"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

const dateFormat = "2006-01-02"

// app bundles the dependencies a command needs once the project is loaded.
type app struct {
	root    string
	cfg     *config.Config
	log     *logrus.Logger
	store   *store.Store
	metrics *metrics.Recorder
}

func openApp(opts *rootOptions) (*app, error) {
	root, err := filepath.Abs(opts.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dsn := cfg.Store.DSN
	if cfg.Store.Driver == store.DriverSQLite {
		dsn = resolve(root, dsn)
	}
	st, err := store.Open(cfg.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}

	return &app{
		root:    root,
		cfg:     cfg,
		log:     logging.New(cfg.Logging),
		store:   st,
		metrics: metrics.New(),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) service() *forecast.Service {
	return forecast.NewService(a.store, a.cfg, a.log, a.metrics, a.cfg.Forecast.LookbackDays)
}

// history returns the lookback window of entity ending on today.
func (a *app) history(ctx context.Context, entity string, today time.Time) ([]model.Transaction, error) {
	var since time.Time
	if a.cfg.Forecast.LookbackDays > 0 {
		since = today.AddDate(0, 0, -a.cfg.Forecast.LookbackDays)
	}
	return a.store.Transactions(ctx, entity, since, today.AddDate(0, 0, 1))
}

func (a *app) writeMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(resolve(a.root, a.cfg.Metrics.Textfile)); err != nil {
		a.log.WithError(err).Warn("writing metrics failed")
	}
}

// resolve makes a config-relative path absolute under the project root.
func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// parseToday parses a --today flag value; empty means the current UTC date.
func parseToday(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now().UTC()), nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --today %q: %w", s, err)
	}
	return t, nil
}
