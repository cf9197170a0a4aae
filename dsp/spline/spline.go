package spline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const degree = 3

var (
	// ErrShapeMismatch indicates abscissa and ordinate slices of different
	// length.
	ErrShapeMismatch = errors.New("spline: shape mismatch")

	// ErrInsufficientData indicates too few samples for the requested knot
	// spacing.
	ErrInsufficientData = errors.New("spline: insufficient data")

	// ErrInvalidParameter indicates a non-positive knot spacing or a
	// non-increasing abscissa.
	ErrInvalidParameter = errors.New("spline: invalid parameter")

	// ErrSingularFit indicates that the least-squares system could not be
	// solved, typically because a knot interval contains no samples.
	ErrSingularFit = errors.New("spline: singular fit")
)

// BSpline is a fitted clamped cubic B-spline. The zero value is not usable;
// obtain one from [Fit].
type BSpline struct {
	knots  []float64
	coeffs []float64
}

// Fit computes the least-squares cubic B-spline through (x, y) with interior
// knots every spacing units of x. The abscissa must be strictly increasing.
// Evaluation uses the same coordinates as the fit.
func Fit(x, y []float64, spacing float64) (*BSpline, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d abscissae, %d ordinates", ErrShapeMismatch, len(x), len(y))
	}
	if spacing <= 0 || math.IsNaN(spacing) {
		return nil, fmt.Errorf("%w: knot spacing %v, want > 0", ErrInvalidParameter, spacing)
	}
	n := len(x)
	if n < degree+1 {
		return nil, fmt.Errorf("%w: %d samples, want at least %d", ErrInsufficientData, n, degree+1)
	}
	for i := 1; i < n; i++ {
		if !(x[i] > x[i-1]) {
			return nil, fmt.Errorf("%w: abscissa not strictly increasing at index %d", ErrInvalidParameter, i)
		}
	}

	knots := knotVector(x[0], x[n-1], spacing)
	nb := len(knots) - degree - 1
	if nb > n {
		return nil, fmt.Errorf("%w: %d basis functions for %d samples; increase spacing", ErrInsufficientData, nb, n)
	}

	design := mat.NewDense(n, nb, nil)
	basis := make([]float64, degree+1)
	for i, xi := range x {
		span := findSpan(knots, nb, xi)
		basisFuncs(knots, span, xi, basis)
		for r, v := range basis {
			design.Set(i, span-degree+r, v)
		}
	}

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(design, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}
	c := make([]float64, nb)
	for i := range c {
		c[i] = coeffs.AtVec(i)
	}
	return &BSpline{knots: knots, coeffs: c}, nil
}

// At evaluates the spline at x. Abscissae outside the fitted span are
// clamped to the nearest end, so extrapolation holds the boundary value of
// the end segment.
func (b *BSpline) At(x float64) float64 {
	t := b.knots
	nb := len(b.coeffs)
	if x < t[degree] {
		x = t[degree]
	}
	if x > t[nb] {
		x = t[nb]
	}
	span := findSpan(t, nb, x)

	// De Boor's algorithm on the k+1 controlling coefficients.
	var d [degree + 1]float64
	copy(d[:], b.coeffs[span-degree:span+1])
	for r := 1; r <= degree; r++ {
		for j := degree; j >= r; j-- {
			i := span - degree + j
			den := t[i+degree-r+1] - t[i]
			var alpha float64
			if den != 0 {
				alpha = (x - t[i]) / den
			}
			d[j] = (1-alpha)*d[j-1] + alpha*d[j]
		}
	}
	return d[degree]
}

// Eval evaluates the spline at every abscissa in xs.
func (b *BSpline) Eval(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = b.At(x)
	}
	return out
}

// Knots returns a copy of the full clamped knot vector.
func (b *BSpline) Knots() []float64 {
	out := make([]float64, len(b.knots))
	copy(out, b.knots)
	return out
}

// knotVector builds the clamped knot vector for [lo, hi] with interior knots
// every spacing units. End knots carry multiplicity degree+1.
func knotVector(lo, hi, spacing float64) []float64 {
	var interior []float64
	for u := lo + spacing; u < hi; u += spacing {
		interior = append(interior, u)
	}
	knots := make([]float64, 0, 2*(degree+1)+len(interior))
	for i := 0; i <= degree; i++ {
		knots = append(knots, lo)
	}
	knots = append(knots, interior...)
	for i := 0; i <= degree; i++ {
		knots = append(knots, hi)
	}
	return knots
}

// findSpan locates the knot span index s with t[s] <= x < t[s+1], capped at
// the last non-degenerate span so the clamped end stays in range.
func findSpan(t []float64, nb int, x float64) int {
	span := degree
	for span < nb-1 && x >= t[span+1] {
		span++
	}
	return span
}

// basisFuncs fills out with the degree+1 non-vanishing B-spline basis values
// at x on the given span.
func basisFuncs(t []float64, span int, x float64, out []float64) {
	var left, right [degree + 1]float64
	out[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = x - t[span+1-j]
		right[j] = t[span+j] - x
		saved := 0.0
		for r := 0; r < j; r++ {
			den := right[r+1] + left[j-r]
			var term float64
			if den != 0 {
				term = out[r] / den
			}
			out[r] = saved + right[r+1]*term
			saved = left[j-r] * term
		}
		out[j] = saved
	}
}
