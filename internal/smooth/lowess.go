// Package smooth computes the locally weighted regression (LOWESS) curve
// overlaid on the bubble chart.
package smooth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrDegenerateInput reports input the local regression is undefined for:
// fewer than two points, mismatched slice lengths, or fewer than two
// distinct x values. Callers must treat this as a visible failure rather
// than draw a wrong curve.
var ErrDegenerateInput = errors.New("degenerate smoothing input")

// Point is one evaluated point of the smoothed curve.
type Point struct {
	X, Y float64
}

// Lowess fits a locally weighted linear regression through (xs, ys) and
// evaluates it at every input x, returning the curve sorted by x. frac is
// the smoothing fraction: each local fit uses the ceil(frac*N) nearest
// points by x distance, weighted by the tricube kernel. frac must be in
// (0, 1]; the window is clamped to at least two points.
func Lowess(xs, ys []float64, frac float64) ([]Point, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values vs %d y values", ErrDegenerateInput, len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return nil, fmt.Errorf("%w: %d points", ErrDegenerateInput, n)
	}
	if distinct(xs) < 2 {
		return nil, fmt.Errorf("%w: fewer than 2 distinct x values", ErrDegenerateInput)
	}
	if math.IsNaN(frac) || frac <= 0 || frac > 1 {
		return nil, fmt.Errorf("smoothing fraction %v outside (0, 1]", frac)
	}

	window := int(math.Ceil(frac * float64(n)))
	if window < 2 {
		window = 2
	}
	if window > n {
		window = n
	}

	// Work on a copy sorted by x; ties keep their paired y.
	pts := make([]Point, n)
	for i := range xs {
		pts[i] = Point{xs[i], ys[i]}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

	sx := make([]float64, n)
	sy := make([]float64, n)
	for i, p := range pts {
		sx[i] = p.X
		sy[i] = p.Y
	}

	out := make([]Point, n)
	for i := 0; i < n; i++ {
		lo, hi := nearestWindow(sx, i, window)
		out[i] = Point{sx[i], fitAt(sx[lo:hi+1], sy[lo:hi+1], sx[i])}
	}
	return out, nil
}

// nearestWindow returns the bounds of the `size` points nearest to sx[i]
// in a sorted slice, widening toward whichever side is closer.
func nearestWindow(sx []float64, i, size int) (lo, hi int) {
	lo, hi = i, i
	for hi-lo+1 < size {
		switch {
		case lo == 0:
			hi++
		case hi == len(sx)-1:
			lo--
		case sx[i]-sx[lo-1] <= sx[hi+1]-sx[i]:
			lo--
		default:
			hi++
		}
	}
	return lo, hi
}

// fitAt evaluates the tricube-weighted linear fit of the window at x.
func fitAt(wx, wy []float64, x float64) float64 {
	maxDist := 0.0
	for _, v := range wx {
		if d := math.Abs(v - x); d > maxDist {
			maxDist = d
		}
	}
	// All window points share one x: the local line is undefined, fall
	// back to the window mean.
	if maxDist == 0 {
		return stat.Mean(wy, nil)
	}

	weights := make([]float64, len(wx))
	total := 0.0
	for i, v := range wx {
		u := math.Abs(v-x) / maxDist
		w := 1 - u*u*u
		weights[i] = w * w * w
		total += weights[i]
	}

	alpha, beta := stat.LinearRegression(wx, wy, weights, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		// Too few effectively weighted points for a line.
		if total > 0 {
			return stat.Mean(wy, weights)
		}
		return stat.Mean(wy, nil)
	}
	return alpha + beta*x
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}
