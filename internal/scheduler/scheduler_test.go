package scheduler

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/forecast"
	"github.com/cleared-dev/cashflow/internal/gitops"
	"github.com/cleared-dev/cashflow/internal/metrics"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/report"
	"github.com/cleared-dev/cashflow/internal/runlog"
)

var today = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

type fakeForecaster struct {
	fail map[string]error
	reqs []forecast.Request
}

func (f *fakeForecaster) Run(_ context.Context, req forecast.Request) (*forecast.Result, error) {
	f.reqs = append(f.reqs, req)
	if err := f.fail[req.Entity]; err != nil {
		return nil, err
	}
	days := []model.DailyForecast{{Date: today.AddDate(0, 0, 1), Balance: req.Balance}}
	return &forecast.Result{
		Output:  &forecast.Output{Days: days},
		RunID:   "run-" + req.Entity,
		Entity:  req.Entity,
		Today:   today,
		Summary: model.Summary{Days: 1, StartBalance: req.Balance, EndBalance: req.Balance, LowestBalance: req.Balance},
	}, nil
}

type balances map[string]string

func (b balances) Balance(entity string) (decimal.Decimal, error) {
	v, ok := b[entity]
	if !ok {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	f := &fakeForecaster{fail: map[string]error{"broken": forecast.ErrInsufficientHistory}}
	log, hook := logtest.NewNullLogger()
	rec := metrics.New()
	textfile := filepath.Join(dir, "metrics", "cashflow.prom")

	r := New(f, balances{"acme": "1500"}, rec, log, Options{
		Entities:    []string{"acme", "broken", "shop"},
		HorizonDays: 14,
		OutputDir:   filepath.Join(dir, "forecasts"),
		Textfile:    textfile,
	})

	written, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, forecast.ErrInsufficientHistory)
	require.Len(t, written, 2)
	assert.Equal(t, filepath.Join(dir, "forecasts", "acme-2025-01-31.csv"), written[0])
	assert.Equal(t, filepath.Join(dir, "forecasts", "shop-2025-01-31.csv"), written[1])

	require.Len(t, f.reqs, 3)
	assert.Equal(t, 14, f.reqs[0].HorizonDays)
	assert.True(t, f.reqs[0].Balance.Equal(decimal.NewFromInt(1500)))

	fh, err := os.Open(written[0])
	require.NoError(t, err)
	defer fh.Close()
	days, err := report.ReadForecast(fh)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].Balance.Equal(decimal.NewFromInt(1500)))

	_, err = os.Stat(textfile)
	assert.NoError(t, err)

	var failed int
	for _, e := range hook.AllEntries() {
		if e.Message == "scheduled forecast failed" {
			failed++
			assert.Equal(t, "broken", e.Data["entity"])
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRunOnce_BadBalance(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	r := New(&fakeForecaster{}, balances{"acme": "lots"}, nil, log, Options{
		Entities:  []string{"acme"},
		OutputDir: t.TempDir(),
	})
	written, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Empty(t, written)
}

func TestRunOnce_Cancelled(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	f := &fakeForecaster{}
	r := New(f, balances{}, nil, log, Options{Entities: []string{"a", "b"}, OutputDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RunOnce(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.reqs)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0 6 * * *"))
	assert.NoError(t, Validate("@daily"))
	assert.NoError(t, Validate("@every 1h"))
	assert.Error(t, Validate("every morning"))
	assert.Error(t, Validate("0 0 6 * * *"))
}

func TestStart_StopsOnCancel(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	r := New(&fakeForecaster{}, balances{}, nil, log, Options{OutputDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx, "@every 1h") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	r := New(&fakeForecaster{}, balances{}, nil, log, Options{})
	assert.Error(t, r.Start(context.Background(), "nope"))
}

func TestRunOnce_AppendsRunLog(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()
	f := &fakeForecaster{fail: map[string]error{"broken": errors.New("boom")}}
	r := New(f, balances{"acme": "1500"}, nil, log, Options{
		Entities:    []string{"acme", "broken"},
		HorizonDays: 7,
		OutputDir:   dir,
	})
	r.now = func() time.Time { return today.Add(6 * time.Hour) }

	_, err := r.RunOnce(context.Background())
	require.Error(t, err)
	_, err = r.RunOnce(context.Background())
	require.Error(t, err)

	entries, err := runlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	e := entries[1]
	assert.Equal(t, "acme", e.Entity)
	assert.Equal(t, "run-acme", e.RunID)
	assert.Equal(t, "acme-2025-01-31.csv", e.File)
	assert.Equal(t, 7, e.HorizonDays)
	assert.True(t, e.EndBalance.Equal(decimal.NewFromInt(1500)))
	assert.True(t, e.Timestamp.Equal(today.Add(6*time.Hour)))
}

func TestRunOnce_NoRunLogWhenNothingWritten(t *testing.T) {
	dir := t.TempDir()
	log, _ := logtest.NewNullLogger()
	f := &fakeForecaster{fail: map[string]error{"acme": errors.New("boom")}}
	r := New(f, balances{}, nil, log, Options{Entities: []string{"acme"}, OutputDir: dir})

	_, err := r.RunOnce(context.Background())
	require.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, runlog.FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunOnce_Commits(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, gitops.Init(repo))
	log, hook := logtest.NewNullLogger()
	r := New(&fakeForecaster{}, balances{"acme": "10"}, nil, log, Options{
		Entities:    []string{"acme"},
		HorizonDays: 7,
		OutputDir:   filepath.Join(repo, "forecasts"),
		Commit:      true,
		RepoRoot:    repo,
	})

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	files := exec.Command("git", "ls-files")
	files.Dir = repo
	out, err := files.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "forecasts/acme-2025-01-31.csv")
	assert.Contains(t, string(out), "forecasts/runs.csv")

	var committed bool
	for _, e := range hook.AllEntries() {
		if e.Message == "forecasts committed" {
			committed = true
			assert.NotEmpty(t, e.Data["commit"])
		}
	}
	assert.True(t, committed)
}

func TestRunOnce_CommitSkippedOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	log, hook := logtest.NewNullLogger()
	r := New(&fakeForecaster{}, balances{}, nil, log, Options{
		Entities:  []string{"acme"},
		OutputDir: dir,
		Commit:    true,
		RepoRoot:  dir,
	})

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "not a git repository, skipping commit", hook.LastEntry().Message)
}
