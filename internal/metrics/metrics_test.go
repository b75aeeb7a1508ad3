package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordForecast(t *testing.T) {
	r := New()
	r.RecordForecast("acme", 20*time.Millisecond, 3, 1234.5)
	r.RecordForecast("acme", 10*time.Millisecond, 4, 99)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecasts.WithLabelValues("acme", ResultOK)))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.recurring.WithLabelValues("acme")))
	assert.Equal(t, 99.0, testutil.ToFloat64(r.endingBalance.WithLabelValues("acme")))
	count, err := testutil.GatherAndCount(r.registry)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRecordFailure(t *testing.T) {
	r := New()
	r.RecordFailure("acme", ResultInsufficientHistory, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.forecasts.WithLabelValues("acme", ResultInsufficientHistory)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.forecasts.WithLabelValues("acme", ResultOK)))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.RecordForecast("acme", time.Second, 1, 1)
	r.RecordFailure("acme", ResultError, time.Second)
	assert.NoError(t, r.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordForecast("acme", time.Millisecond, 2, 500)

	path := filepath.Join(t.TempDir(), "textfile", "cashflow.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cashflow_forecasts_total{entity="acme",result="ok"} 1`)
	assert.Contains(t, string(data), `cashflow_projected_ending_balance{entity="acme"} 500`)
}
