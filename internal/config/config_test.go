package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	cfg.Entities = map[string]EntityConfig{
		"acme": {Format: "generic", Balance: "1500.25", WeekendIncome: ptr(0.4), WeekendExpense: ptr(0)},
	}
	cfg.Metrics.Textfile = "metrics/cashflow.prom"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business, got.Business)
	assert.Equal(t, cfg.Forecast, got.Forecast)
	assert.Equal(t, cfg.Store, got.Store)
	assert.Equal(t, cfg.Schedule, got.Schedule)
	assert.Equal(t, "metrics/cashflow.prom", got.Metrics.Textfile)
	require.Contains(t, got.Entities, "acme")
	assert.Equal(t, "generic", got.Entities["acme"].Format)
	require.NotNil(t, got.Entities["acme"].WeekendIncome)
	assert.InDelta(t, 0.4, *got.Entities["acme"].WeekendIncome, 0.001)
	// An explicit zero survives the round trip instead of being dropped as empty.
	require.NotNil(t, got.Entities["acme"].WeekendExpense)
	assert.Zero(t, *got.Entities["acme"].WeekendExpense)
}

func ptr(f float64) *float64 { return &f }

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "llc_single_member", cfg.Business.EntityType)
	assert.Equal(t, 90, cfg.Forecast.HorizonDays)
	assert.Equal(t, 365, cfg.Forecast.LookbackDays)
	assert.Equal(t, "income_positive", cfg.Forecast.SignConvention)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, ".cashflow/transactions.db", cfg.Store.DSN)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "forecasts", cfg.Schedule.OutputDir)
	assert.Empty(t, cfg.Entities)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Tiny\nforecast:\n  horizon_days: 30\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Forecast.HorizonDays)
	assert.Equal(t, 365, cfg.Forecast.LookbackDays)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "forecast:\n  horizon_days: 30\n", "Business.Name"},
		{"horizon too long", "business:\n  name: X\nforecast:\n  horizon_days: 1000\n", "HorizonDays"},
		{"bad driver", "business:\n  name: X\nstore:\n  driver: mysql\n", "Driver"},
		{"bad sign", "business:\n  name: X\nforecast:\n  sign_convention: sideways\n", "SignConvention"},
		{"negative multiplier", "business:\n  name: X\nentities:\n  acme:\n    weekend_income: -1\n", "WeekendIncome"},
		{"bad balance", "business:\n  name: X\nentities:\n  acme:\n    balance: lots\n", "Balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "llc_single_member")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "horizon_days: 90")
	assert.Contains(t, contents, "sign_convention: income_positive")
	assert.Contains(t, contents, "driver: sqlite")
}

func TestMultipliers(t *testing.T) {
	cfg := Default("X", "")
	cfg.Entities = map[string]EntityConfig{
		"shop":   {WeekendIncome: ptr(1.5)},
		"office": {WeekendIncome: ptr(0.2), WeekendExpense: ptr(0.5)},
		"closed": {WeekendIncome: ptr(0), WeekendExpense: ptr(0)},
		"plain":  {Balance: "10"},
	}

	assert.Equal(t, model.Multipliers{WeekendIncome: 1.5, WeekendExpense: 1}, cfg.Multipliers("shop"))
	assert.Equal(t, model.Multipliers{WeekendIncome: 0.2, WeekendExpense: 0.5}, cfg.Multipliers("office"))
	assert.Equal(t, model.Multipliers{}, cfg.Multipliers("closed"))
	assert.Equal(t, model.DefaultMultipliers(), cfg.Multipliers("plain"))
	assert.Equal(t, model.DefaultMultipliers(), cfg.Multipliers("unknown"))
}

func TestLoadExplicitZeroMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	yml := "business:\n  name: X\nentities:\n  closed:\n    weekend_income: 0\n  open:\n    balance: \"5\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.Multipliers{WeekendIncome: 0, WeekendExpense: 1}, cfg.Multipliers("closed"))
	assert.Equal(t, model.DefaultMultipliers(), cfg.Multipliers("open"))
}

func TestBalanceAndFormat(t *testing.T) {
	cfg := Default("X", "")
	cfg.Entities = map[string]EntityConfig{"acme": {Balance: "-250.50", Format: "generic"}}

	b, err := cfg.Balance("acme")
	require.NoError(t, err)
	assert.Equal(t, "-250.5", b.String())

	b, err = cfg.Balance("nobody")
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	assert.Equal(t, "generic", cfg.Format("acme"))
	assert.Equal(t, "chase", cfg.Format("nobody"))
}

func TestSignConvention(t *testing.T) {
	cfg := Default("X", "")
	sc, err := cfg.SignConvention()
	require.NoError(t, err)
	assert.Equal(t, model.SignIncomePositive, sc)

	cfg.Forecast.SignConvention = "expense_positive"
	sc, err = cfg.SignConvention()
	require.NoError(t, err)
	assert.Equal(t, model.SignExpensePositive, sc)
}

func TestWatchEntities(t *testing.T) {
	cfg := Default("X", "")
	cfg.Entities = map[string]EntityConfig{"b": {}, "a": {}}
	assert.Equal(t, []string{"a", "b"}, cfg.WatchEntities())

	cfg.Schedule.Entities = []string{"only"}
	assert.Equal(t, []string{"only"}, cfg.WatchEntities())
}
