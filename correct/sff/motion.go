package sff

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-lightcurve/internal/poly"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

// arclengthGridSize is the resolution of the dense grid used to integrate
// arclength along the motion polynomial.
const arclengthGridSize = 10000

// detrendCentroid removes a low-order polynomial in time from one centroid
// coordinate, leaving the drift residual. Non-finite samples are excluded
// from the fit and stay non-finite in the residual.
func detrendCentroid(time, centroid []float64, order int) ([]float64, error) {
	xs := make([]float64, 0, len(time))
	ys := make([]float64, 0, len(time))
	for i, c := range centroid {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		xs = append(xs, time[i]-time[0])
		ys = append(ys, c)
	}
	if len(xs) < order+1 {
		return nil, fmt.Errorf("%w: %d finite centroids for a degree-%d detrend", ErrInsufficientData, len(xs), order)
	}
	coeffs, err := poly.Fit(xs, ys, order)
	if err != nil {
		return nil, fmt.Errorf("%w: centroid detrend: %v", ErrSingularFit, err)
	}
	out := make([]float64, len(centroid))
	for i, c := range centroid {
		out[i] = c - poly.Eval(coeffs, time[i]-time[0])
	}
	return out, nil
}

// rotateCentroids projects the detrended centroid track onto its principal
// axes. It returns the coordinate along the dominant motion direction and
// the transverse coordinate, with a deterministic sign convention so that
// identical inputs always rotate identically.
func rotateCentroids(col, row []float64) (dom, trans []float64, err error) {
	var mc, mr float64
	n := 0
	for i := range col {
		if finite(col[i]) && finite(row[i]) {
			mc += col[i]
			mr += row[i]
			n++
		}
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: %d finite centroid pairs", ErrInsufficientData, n)
	}
	mc /= float64(n)
	mr /= float64(n)

	var scc, scr, srr float64
	for i := range col {
		if !finite(col[i]) || !finite(row[i]) {
			continue
		}
		dc := col[i] - mc
		dr := row[i] - mr
		scc += dc * dc
		scr += dc * dr
		srr += dr * dr
	}
	div := float64(n - 1)
	cov := mat.NewSymDense(2, []float64{scc / div, scr / div, scr / div, srr / div})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, nil, fmt.Errorf("%w: centroid covariance eigendecomposition failed", ErrSingularFit)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come out ascending, so column 1 spans the dominant motion.
	dx, dy := axisSign(vecs.At(0, 1), vecs.At(1, 1))
	tx, ty := axisSign(vecs.At(0, 0), vecs.At(1, 0))

	dom = make([]float64, len(col))
	trans = make([]float64, len(col))
	for i := range col {
		dc := col[i] - mc
		dr := row[i] - mr
		dom[i] = dx*dc + dy*dr
		trans[i] = tx*dc + ty*dr
	}
	return dom, trans, nil
}

// axisSign flips an eigenvector so its first nonzero component is positive.
func axisSign(x, y float64) (float64, float64) {
	if x < 0 || (x == 0 && y < 0) {
		return -x, -y
	}
	return x, y
}

// motionTrack is the fitted drift geometry of one window: the arclength of
// every sample along the motion polynomial.
type motionTrack struct {
	s []float64
}

// fitMotion fits the transverse wobble as a polynomial in the dominant
// coordinate, integrates arclength along it on a dense grid, and maps every
// sample onto that arclength. Samples flagged as centroid outliers still get
// an arclength; they simply do not shape the polynomial.
func fitMotion(dom, trans []float64, order int, sigma float64) (motionTrack, error) {
	inlier := robust.SigmaClip(trans, sigma, 0)
	xs := make([]float64, 0, len(dom))
	ys := make([]float64, 0, len(dom))
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for i, ok := range inlier {
		if !ok || !finite(dom[i]) {
			continue
		}
		xs = append(xs, dom[i])
		ys = append(ys, trans[i])
		lo = math.Min(lo, dom[i])
		hi = math.Max(hi, dom[i])
	}
	if len(xs) < order+1 {
		return motionTrack{}, fmt.Errorf("%w: %d centroid inliers for a degree-%d motion fit", ErrInsufficientData, len(xs), order)
	}
	if hi <= lo {
		return motionTrack{}, fmt.Errorf("%w: centroid track has no spread along the motion axis", ErrInsufficientData)
	}
	coeffs, err := poly.Fit(xs, ys, order)
	if err != nil {
		return motionTrack{}, fmt.Errorf("%w: motion polynomial: %v", ErrSingularFit, err)
	}
	prime := poly.Deriv(coeffs)

	// Cumulative trapezoidal integral of sqrt(1 + p'(x)^2) over the inlier
	// span. Arclength at a sample interpolates this table, clamped so s stays
	// non-negative and bounded for outliers beyond the span.
	step := (hi - lo) / float64(arclengthGridSize-1)
	cum := make([]float64, arclengthGridSize)
	prev := integrand(prime, lo)
	for j := 1; j < arclengthGridSize; j++ {
		cur := integrand(prime, lo+float64(j)*step)
		cum[j] = cum[j-1] + 0.5*(prev+cur)*step
		prev = cur
	}
	total := cum[arclengthGridSize-1]

	s := make([]float64, len(dom))
	for i, x := range dom {
		if !finite(x) {
			s[i] = math.NaN()
			continue
		}
		s[i] = lookupArclength(cum, lo, step, total, x)
	}
	return motionTrack{s: s}, nil
}

func integrand(prime []float64, x float64) float64 {
	d := poly.Eval(prime, x)
	return math.Sqrt(1 + d*d)
}

// lookupArclength linearly interpolates the cumulative arclength table at x.
func lookupArclength(cum []float64, lo, step, total, x float64) float64 {
	pos := (x - lo) / step
	if pos <= 0 {
		return 0
	}
	last := float64(len(cum) - 1)
	if pos >= last {
		return total
	}
	j := int(pos)
	frac := pos - float64(j)
	return cum[j] + frac*(cum[j+1]-cum[j])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
