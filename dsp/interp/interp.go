package interp

import (
	"fmt"
	"sort"
)

// Linear is a piecewise-linear interpolant over strictly increasing knots.
// Queries outside the knot range extrapolate along the end segments.
type Linear struct {
	xs []float64
	ys []float64
}

// NewLinear creates a linear interpolant from knot positions xs and values
// ys. xs must be strictly increasing and both slices must have the same
// length of at least 2. The slices are copied.
func NewLinear(xs, ys []float64) (*Linear, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("interp: knot slices must have same length: %d vs %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("interp: need at least 2 knots, got %d", len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("interp: knots must be strictly increasing at index %d: %g <= %g", i, xs[i], xs[i-1])
		}
	}

	l := &Linear{
		xs: make([]float64, len(xs)),
		ys: make([]float64, len(ys)),
	}
	copy(l.xs, xs)
	copy(l.ys, ys)
	return l, nil
}

// At evaluates the interpolant at x.
func (l *Linear) At(x float64) float64 {
	n := len(l.xs)
	// Segment index: the knot interval containing x, clamped to the end
	// segments for out-of-range queries.
	i := sort.SearchFloat64s(l.xs, x)
	switch {
	case i <= 0:
		i = 1
	case i >= n:
		i = n - 1
	}
	x0, x1 := l.xs[i-1], l.xs[i]
	y0, y1 := l.ys[i-1], l.ys[i]
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// Eval evaluates the interpolant at every position in xs, returning a new
// slice.
func (l *Linear) Eval(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = l.At(x)
	}
	return out
}

// Knots returns copies of the knot positions and values.
func (l *Linear) Knots() (xs, ys []float64) {
	xs = make([]float64, len(l.xs))
	ys = make([]float64, len(l.ys))
	copy(xs, l.xs)
	copy(ys, l.ys)
	return xs, ys
}
