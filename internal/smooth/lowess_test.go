package smooth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowessRecoversALine(t *testing.T) {
	// Exactly linear data: every local weighted fit is the same line, so
	// the curve must reproduce the inputs.
	xs := make([]float64, 20)
	ys := make([]float64, 20)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 2*float64(i) + 3
	}

	curve, err := Lowess(xs, ys, 0.4)
	require.NoError(t, err)
	require.Len(t, curve, len(xs))

	for i, p := range curve {
		assert.InDelta(t, xs[i], p.X, 1e-12)
		assert.InDelta(t, ys[i], p.Y, 1e-9)
	}
}

func TestLowessMonotoneInputStaysMonotone(t *testing.T) {
	// Convex but monotone data; the smoothed curve must stay
	// non-decreasing within tolerance and keep the input x-range.
	var xs, ys []float64
	for i := 1; i <= 30; i++ {
		x := float64(i)
		xs = append(xs, x)
		ys = append(ys, x*x/10)
	}

	curve, err := Lowess(xs, ys, 0.5)
	require.NoError(t, err)
	require.Len(t, curve, len(xs))

	assert.Equal(t, xs[0], curve[0].X)
	assert.Equal(t, xs[len(xs)-1], curve[len(curve)-1].X)

	const tol = 1e-3
	for i := 1; i < len(curve); i++ {
		assert.GreaterOrEqual(t, curve[i].X, curve[i-1].X)
		assert.GreaterOrEqual(t, curve[i].Y, curve[i-1].Y-tol,
			"curve decreases at index %d", i)
	}
}

func TestLowessSortsUnorderedInput(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3}
	ys := []float64{50, 10, 40, 20, 30}

	curve, err := Lowess(xs, ys, 1)
	require.NoError(t, err)

	for i := 1; i < len(curve); i++ {
		assert.Less(t, curve[i-1].X, curve[i].X)
	}
	assert.InDelta(t, 10, curve[0].Y, 1e-9)
	assert.InDelta(t, 50, curve[len(curve)-1].Y, 1e-9)
}

func TestLowessSmoothsNoise(t *testing.T) {
	// A noisy upward trend: the curve should track the trend far more
	// tightly than the raw points do.
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ys := []float64{1.4, 1.8, 3.4, 3.6, 5.5, 5.7, 7.3, 7.6, 9.5, 9.7}

	curve, err := Lowess(xs, ys, 0.6)
	require.NoError(t, err)

	for i, p := range curve {
		assert.InDelta(t, xs[i], p.Y, 1.0, "curve strays from the trend at x=%v", p.X)
	}
}

func TestLowessDegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"empty", nil, nil},
		{"single point", []float64{1}, []float64{1}},
		{"mismatched lengths", []float64{1, 2, 3}, []float64{1, 2}},
		{"no distinct x", []float64{2, 2, 2}, []float64{1, 5, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lowess(tt.xs, tt.ys, 0.4)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDegenerateInput)
		})
	}
}

func TestLowessFractionValidation(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{1, 2, 3, 4}

	for _, frac := range []float64{0, -0.5, 1.01, math.NaN()} {
		_, err := Lowess(xs, ys, frac)
		require.Error(t, err, "frac %v", frac)
		assert.NotErrorIs(t, err, ErrDegenerateInput)
	}
}

func TestLowessWindowClampedToTwoPoints(t *testing.T) {
	// A tiny fraction would give a one-point window; the clamp keeps the
	// local fit defined.
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ys := []float64{2, 4, 6, 8, 10, 12, 14, 16, 18, 20}

	curve, err := Lowess(xs, ys, 0.01)
	require.NoError(t, err)
	require.Len(t, curve, len(xs))
	for _, p := range curve {
		assert.False(t, math.IsNaN(p.Y), "NaN at x=%v", p.X)
	}
}

func TestLowessTiedXValues(t *testing.T) {
	// Duplicate x values inside a window must not blow up the fit.
	xs := []float64{1, 1, 2, 2, 3, 3, 4, 4}
	ys := []float64{1, 1.2, 2, 2.1, 3, 3.2, 4, 4.1}

	curve, err := Lowess(xs, ys, 0.5)
	require.NoError(t, err)
	require.Len(t, curve, len(xs))
	for _, p := range curve {
		assert.False(t, math.IsNaN(p.Y), "NaN at x=%v", p.X)
	}
}
