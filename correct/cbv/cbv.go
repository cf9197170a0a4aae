package cbv

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch indicates a basis vector whose length differs from
	// the flux.
	ErrShapeMismatch = errors.New("cbv: shape mismatch")

	// ErrSingularFit indicates a rank-deficient design, for example
	// duplicate or constant basis vectors, or fewer finite samples than
	// coefficients.
	ErrSingularFit = errors.New("cbv: singular fit")

	// ErrInvalidParameter indicates a malformed configuration or vector
	// selection.
	ErrInvalidParameter = errors.New("cbv: invalid parameter")
)

// BasisVectorSet holds the cotrending basis vectors for one detector channel
// and observing segment, ordered by decreasing captured variance as delivered
// in the mission products. Vector numbering is 1-based to match those
// products.
type BasisVectorSet struct {
	Channel int
	Quarter int
	Vectors [][]float64
}

// Len returns the number of vectors in the set.
func (s BasisVectorSet) Len() int { return len(s.Vectors) }

// Select returns the basis vectors with the given 1-based numbers, in the
// requested order.
func (s BasisVectorSet) Select(numbers ...int) ([][]float64, error) {
	out := make([][]float64, len(numbers))
	for i, n := range numbers {
		if n < 1 || n > len(s.Vectors) {
			return nil, fmt.Errorf("%w: basis vector %d of a set of %d", ErrInvalidParameter, n, len(s.Vectors))
		}
		out[i] = s.Vectors[n-1]
	}
	return out, nil
}

// Masked returns a copy of the set keeping only the cadences where keep is
// true, so vectors stay row-aligned with a quality-masked flux. Vector order
// and numbering are unchanged.
func (s BasisVectorSet) Masked(keep []bool) (BasisVectorSet, error) {
	out := BasisVectorSet{Channel: s.Channel, Quarter: s.Quarter, Vectors: make([][]float64, len(s.Vectors))}
	for j, v := range s.Vectors {
		if len(v) != len(keep) {
			return BasisVectorSet{}, fmt.Errorf("%w: basis vector %d has %d samples, mask has %d",
				ErrShapeMismatch, j+1, len(v), len(keep))
		}
		kept := make([]float64, 0, len(v))
		for i, ok := range keep {
			if ok {
				kept = append(kept, v[i])
			}
		}
		out.Vectors[j] = kept
	}
	return out, nil
}

// Config holds correction parameters.
type Config struct {
	// Vectors lists the 1-based numbers of the basis vectors a Corrector
	// takes from its set. Empty means vectors 1 and 2, which carry the bulk
	// of the common-mode trends.
	Vectors []int
	// L2Penalty is an optional ridge strength on the basis coefficients;
	// the intercept is never penalised. Zero disables regularisation.
	L2Penalty float64
}

// Result holds the fitted model and the corrected flux.
type Result struct {
	// Coeffs holds one fitted coefficient per basis vector, in input order.
	Coeffs []float64
	// Intercept is the fitted constant term. It stays in Corrected so the
	// corrected flux keeps its original level.
	Intercept float64
	// Corrected is flux minus the fitted basis-vector combination. Samples
	// that are NaN on input stay NaN.
	Corrected []float64
}

// Corrector fits vectors chosen from a fixed BasisVectorSet.
type Corrector struct {
	set BasisVectorSet
	cfg Config
}

// NewCorrector creates a corrector for the given set. An empty cfg.Vectors
// defaults to vectors 1 and 2.
func NewCorrector(set BasisVectorSet, cfg Config) *Corrector {
	if len(cfg.Vectors) == 0 {
		cfg.Vectors = []int{1, 2}
	}
	return &Corrector{set: set, cfg: cfg}
}

// Correct fits the configured vectors to flux and removes them.
func (c *Corrector) Correct(flux []float64) (Result, error) {
	vectors, err := c.set.Select(c.cfg.Vectors...)
	if err != nil {
		return Result{}, err
	}
	return Correct(flux, vectors, c.cfg)
}

// Correct fits flux ~ intercept + sum(coeffs[i]*vectors[i]) by least squares
// and subtracts the basis-vector part. Samples where flux or any vector is
// non-finite do not constrain the fit. cfg.Vectors is ignored here; the
// vectors are used as given.
func Correct(flux []float64, vectors [][]float64, cfg Config) (Result, error) {
	if len(vectors) == 0 {
		return Result{}, fmt.Errorf("%w: no basis vectors", ErrInvalidParameter)
	}
	for j, v := range vectors {
		if len(v) != len(flux) {
			return Result{}, fmt.Errorf("%w: basis vector %d has %d samples, flux has %d",
				ErrShapeMismatch, j+1, len(v), len(flux))
		}
	}
	if cfg.L2Penalty < 0 || math.IsNaN(cfg.L2Penalty) {
		return Result{}, fmt.Errorf("%w: L2 penalty %v, want >= 0", ErrInvalidParameter, cfg.L2Penalty)
	}

	rows := fitRows(flux, vectors)
	k := len(vectors)
	if len(rows) < k+1 {
		return Result{}, fmt.Errorf("%w: %d finite samples for %d coefficients", ErrSingularFit, len(rows), k+1)
	}

	// Ridge regularisation enters as sqrt(penalty) rows appended to the
	// design, one per coefficient column.
	m := len(rows)
	extra := 0
	if cfg.L2Penalty > 0 {
		extra = k
	}
	design := mat.NewDense(m+extra, k+1, nil)
	target := mat.NewVecDense(m+extra, nil)
	for r, i := range rows {
		design.Set(r, 0, 1)
		for j, v := range vectors {
			design.Set(r, j+1, v[i])
		}
		target.SetVec(r, flux[i])
	}
	if extra > 0 {
		root := math.Sqrt(cfg.L2Penalty)
		for j := 0; j < k; j++ {
			design.Set(m+j, j+1, root)
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(design, target); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}
	coeffs := make([]float64, k)
	for j := range coeffs {
		coeffs[j] = sol.AtVec(j + 1)
	}

	model := make([]float64, len(flux))
	scaled := make([]float64, len(flux))
	for j, v := range vectors {
		vecmath.ScaleBlock(scaled, v, coeffs[j])
		vecmath.AddBlockInPlace(model, scaled)
	}
	corrected := make([]float64, len(flux))
	for i := range corrected {
		corrected[i] = flux[i] - model[i]
	}

	return Result{Coeffs: coeffs, Intercept: sol.AtVec(0), Corrected: corrected}, nil
}

// fitRows returns the sample indices whose flux and basis-vector entries are
// all finite.
func fitRows(flux []float64, vectors [][]float64) []int {
	rows := make([]int, 0, len(flux))
	for i, f := range flux {
		if finiteRow(f, vectors, i) {
			rows = append(rows, i)
		}
	}
	return rows
}

func finiteRow(f float64, vectors [][]float64, i int) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	for _, v := range vectors {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
