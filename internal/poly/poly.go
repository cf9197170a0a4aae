// Package poly provides polynomial least-squares fitting and evaluation
// utilities shared by the detrending and correction packages.
//
// Coefficients are stored in ascending power order: p(x) = c[0] + c[1]*x + ...
package poly

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the fit design matrix is rank deficient, e.g.
// when all abscissa values coincide.
var ErrSingular = errors.New("poly: singular fit")

// Fit computes the least-squares polynomial of the given degree through the
// points (x[i], y[i]). It returns degree+1 coefficients in ascending power
// order.
func Fit(x, y []float64, degree int) ([]float64, error) {
	if degree < 0 {
		return nil, fmt.Errorf("poly: degree must be >= 0: %d", degree)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("poly: x and y must have same length: %d vs %d", len(x), len(y))
	}
	if len(x) < degree+1 {
		return nil, fmt.Errorf("poly: need at least %d points for degree %d, got %d", degree+1, degree, len(x))
	}

	n := len(x)
	cols := degree + 1

	a := mat.NewDense(n, cols, nil)
	for i, xi := range x {
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= xi
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	out := make([]float64, cols)
	for i := range out {
		out[i] = coef.AtVec(i)
	}
	return out, nil
}

// Eval evaluates the polynomial with ascending-order coefficients c at x
// using Horner's scheme.
func Eval(c []float64, x float64) float64 {
	var y float64
	for i := len(c) - 1; i >= 0; i-- {
		y = y*x + c[i]
	}
	return y
}

// Deriv returns the coefficients of the derivative polynomial.
func Deriv(c []float64) []float64 {
	if len(c) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(c)-1)
	for i := 1; i < len(c); i++ {
		out[i-1] = float64(i) * c[i]
	}
	return out
}
