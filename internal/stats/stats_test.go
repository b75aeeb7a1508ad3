package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 0, Mean(nil), 1e-12)
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
}

func TestStdDev(t *testing.T) {
	assert.InDelta(t, 0, StdDev(nil), 1e-12)
	assert.InDelta(t, 0, StdDev([]float64{7, 7, 7}), 1e-12)
	// Population stddev of 2,4,4,4,5,5,7,9 is exactly 2.
	assert.InDelta(t, 2, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.75, 4},
		{1, 5},
		{0.1, 1.4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.q), 1e-12, "q=%v", tt.q)
	}
	assert.InDelta(t, 0, Quantile(nil, 0.5), 1e-12)
}

func TestIQRBounds(t *testing.T) {
	xs := []float64{8, 1, 4, 2, 7, 3, 6, 5}
	// sorted 1..8: Q1 = 2.75, Q3 = 6.25, IQR = 3.5
	lo, hi := IQRBounds(xs, 1.5)
	assert.InDelta(t, 2.75-5.25, lo, 1e-12)
	assert.InDelta(t, 6.25+5.25, hi, 1e-12)
	// Input left unsorted.
	assert.InDelta(t, 8, xs[0], 1e-12)
}

func TestClamp(t *testing.T) {
	assert.InDelta(t, 0.3, Clamp(2, -0.3, 0.3), 1e-12)
	assert.InDelta(t, -0.3, Clamp(-1, -0.3, 0.3), 1e-12)
	assert.InDelta(t, 0.1, Clamp(0.1, -0.3, 0.3), 1e-12)
}
