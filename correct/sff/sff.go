package sff

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-lightcurve/dsp/interp"
	"github.com/cwbudde/algo-lightcurve/dsp/spline"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const (
	defaultNIters        = 3
	defaultWindows       = 1
	defaultBins          = 15
	defaultPolyOrder     = 5
	defaultKnotSpacing   = 1.5
	defaultDetrendOrder  = 1
	defaultSigmaFlux     = 3.0
	defaultSigmaCentroid = 5.0
)

var (
	// ErrShapeMismatch indicates input series of differing lengths.
	ErrShapeMismatch = errors.New("sff: shape mismatch")

	// ErrInsufficientData indicates a window with too few usable samples for
	// the requested binning or fits.
	ErrInsufficientData = errors.New("sff: insufficient data")

	// ErrInvalidParameter indicates a malformed configuration or a
	// non-increasing time series.
	ErrInvalidParameter = errors.New("sff: invalid parameter")

	// ErrSingularFit indicates that one of the underlying least-squares
	// problems could not be solved.
	ErrSingularFit = errors.New("sff: singular fit")
)

// Config holds self-flat-fielding parameters. Zero fields assume the
// published K2 defaults.
type Config struct {
	// NIters is the number of correction passes; each pass refits the trend
	// and the flux-vs-arclength calibration on the previous pass's output.
	NIters int
	// Windows is the number of contiguous temporal segments fitted
	// independently.
	Windows int
	// Bins is the number of arclength bins per window.
	Bins int
	// PolyOrder is the order of the motion polynomial fitted to the rotated
	// centroid track.
	PolyOrder int
	// KnotSpacing is the long-term trend spline knot spacing, in the units
	// of the time series (days for mission products).
	KnotSpacing float64
	// CentroidDetrendOrder is the order of the polynomial in time removed
	// from each centroid coordinate before rotation.
	CentroidDetrendOrder int
	// SigmaFlux is the clip threshold for flux outliers entering the
	// arclength bins. Negative disables clipping.
	SigmaFlux float64
	// SigmaCentroid is the clip threshold for centroid outliers entering
	// the motion fit. Negative disables clipping.
	SigmaCentroid float64
}

// WindowFit is the fitted model of one temporal window, reflecting the final
// correction pass. Callers must treat the contents as read-only.
type WindowFit struct {
	// Lo and Hi bound the window's samples [Lo, Hi) in the input series.
	Lo, Hi int
	// S is the arclength of each sample of the window along the fitted
	// motion polynomial. Non-negative; NaN for samples without centroids.
	S []float64
	// Interp maps arclength to the motion's flux signature.
	Interp *interp.Linear
	// Trend is the long-term flux trend spline over time.
	Trend *spline.BSpline
}

// FitState is the immutable per-window fit state of one correction.
type FitState struct {
	Windows []WindowFit
}

// Result holds the corrected flux and the fitted model.
type Result struct {
	// Corrected is the motion-corrected, flattened flux, normalised so the
	// samples of minimum arclength keep their flattened level. Samples that
	// are NaN on input stay NaN.
	Corrected []float64
	// State holds the per-window fits of the final pass.
	State FitState
}

// S returns the arclength array of the last fitted window.
func (r *Result) S() []float64 {
	if w := r.lastWindow(); w != nil {
		return w.S
	}
	return nil
}

// Interp returns the flux-vs-arclength interpolant of the last fitted
// window.
func (r *Result) Interp() *interp.Linear {
	if w := r.lastWindow(); w != nil {
		return w.Interp
	}
	return nil
}

// Trend returns the long-term trend spline of the last fitted window.
func (r *Result) Trend() *spline.BSpline {
	if w := r.lastWindow(); w != nil {
		return w.Trend
	}
	return nil
}

func (r *Result) lastWindow() *WindowFit {
	if len(r.State.Windows) == 0 {
		return nil
	}
	return &r.State.Windows[len(r.State.Windows)-1]
}

// Corrector applies self-flat-fielding with a fixed configuration.
type Corrector struct {
	cfg Config
}

// NewCorrector creates a corrector, filling zero config fields with the K2
// defaults.
func NewCorrector(cfg Config) *Corrector {
	return &Corrector{cfg: normalizeConfig(cfg)}
}

// Correct is a one-shot correction of flux under cfg.
func Correct(time, flux, centroidCol, centroidRow []float64, cfg Config) (Result, error) {
	return NewCorrector(cfg).Correct(time, flux, centroidCol, centroidRow)
}

// Correct removes the pointing-drift systematic from flux. The four series
// are index-aligned; time must be strictly increasing. The input slices are
// never modified.
func (c *Corrector) Correct(time, flux, centroidCol, centroidRow []float64) (Result, error) {
	cfg := c.cfg
	if err := validateConfig(cfg); err != nil {
		return Result{}, err
	}
	n := len(time)
	if len(flux) != n || len(centroidCol) != n || len(centroidRow) != n {
		return Result{}, fmt.Errorf("%w: time %d, flux %d, centroid_col %d, centroid_row %d",
			ErrShapeMismatch, n, len(flux), len(centroidCol), len(centroidRow))
	}
	if n == 0 {
		return Result{}, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	for i := 1; i < n; i++ {
		if !(time[i] > time[i-1]) {
			return Result{}, fmt.Errorf("%w: time not strictly increasing at index %d", ErrInvalidParameter, i)
		}
	}

	corrected := make([]float64, n)
	fits := make([]WindowFit, 0, cfg.Windows)
	for w := 0; w < cfg.Windows; w++ {
		lo, hi := splitBounds(n, cfg.Windows, w)
		if hi-lo < cfg.Bins {
			return Result{}, fmt.Errorf("%w: window %d has %d samples for %d bins",
				ErrInsufficientData, w, hi-lo, cfg.Bins)
		}
		fit, err := c.correctWindow(time[lo:hi], flux[lo:hi],
			centroidCol[lo:hi], centroidRow[lo:hi], corrected[lo:hi])
		if err != nil {
			return Result{}, fmt.Errorf("%w (window %d)", err, w)
		}
		fit.Lo, fit.Hi = lo, hi
		fits = append(fits, fit)
	}
	return Result{Corrected: corrected, State: FitState{Windows: fits}}, nil
}

// correctWindow runs the full fit-and-divide cycle on one temporal window,
// writing the corrected flux into out.
func (c *Corrector) correctWindow(time, flux, col, row, out []float64) (WindowFit, error) {
	cfg := c.cfg

	colRes, err := detrendCentroid(time, col, cfg.CentroidDetrendOrder)
	if err != nil {
		return WindowFit{}, err
	}
	rowRes, err := detrendCentroid(time, row, cfg.CentroidDetrendOrder)
	if err != nil {
		return WindowFit{}, err
	}
	dom, trans, err := rotateCentroids(colRes, rowRes)
	if err != nil {
		return WindowFit{}, err
	}
	track, err := fitMotion(dom, trans, cfg.PolyOrder, cfg.SigmaCentroid)
	if err != nil {
		return WindowFit{}, err
	}

	work := make([]float64, len(flux))
	copy(work, flux)
	flattened := make([]float64, len(flux))
	var trend *spline.BSpline
	var correction *interp.Linear
	for iter := 0; iter < cfg.NIters; iter++ {
		trend, err = fitTrend(time, work, cfg.KnotSpacing)
		if err != nil {
			return WindowFit{}, err
		}
		for i, v := range work {
			flattened[i] = ratio(v, trend.At(time[i]))
		}
		correction, err = fitCorrection(track.s, flattened, cfg.Bins, cfg.SigmaFlux)
		if err != nil {
			return WindowFit{}, err
		}
		// Normalise the correction to unity at minimum arclength, so
		// samples taken at the drift baseline pass through unchanged.
		baseline := correction.At(minFinite(track.s))
		for i := range work {
			work[i] = ratio(flattened[i]*baseline, correction.At(track.s[i]))
		}
	}
	copy(out, work)
	return WindowFit{S: track.s, Interp: correction, Trend: trend}, nil
}

// fitTrend fits the long-term trend spline over the finite samples.
func fitTrend(time, flux []float64, spacing float64) (*spline.BSpline, error) {
	xs := make([]float64, 0, len(time))
	ys := make([]float64, 0, len(flux))
	for i, v := range flux {
		if finite(v) {
			xs = append(xs, time[i])
			ys = append(ys, v)
		}
	}
	b, err := spline.Fit(xs, ys, spacing)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, spline.ErrSingularFit):
		return nil, fmt.Errorf("%w: long-term trend: %v", ErrSingularFit, err)
	default:
		return nil, fmt.Errorf("%w: long-term trend: %v", ErrInsufficientData, err)
	}
}

// fitCorrection bins the flattened flux by arclength and returns the linear
// interpolant through the bin medians, with the ends pinned to the extreme
// kept samples.
func fitCorrection(s, flattened []float64, bins int, sigma float64) (*interp.Linear, error) {
	keep := robust.SigmaClip(flattened, sigma, 0)
	ss := make([]float64, 0, len(s))
	ff := make([]float64, 0, len(s))
	for i, ok := range keep {
		if !ok || !finite(s[i]) {
			continue
		}
		ss = append(ss, s[i])
		ff = append(ff, flattened[i])
	}
	if len(ss) < bins {
		return nil, fmt.Errorf("%w: %d usable samples for %d arclength bins", ErrInsufficientData, len(ss), bins)
	}
	order := make([]int, len(ss))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ss[order[a]] < ss[order[b]] })

	knots := make([]float64, 0, bins+2)
	vals := make([]float64, 0, bins+2)
	knots = append(knots, ss[order[0]])
	vals = append(vals, ff[order[0]])
	binS := make([]float64, 0, len(ss)/bins+1)
	binF := make([]float64, 0, len(ss)/bins+1)
	for b := 0; b < bins; b++ {
		lo, hi := splitBounds(len(order), bins, b)
		binS = binS[:0]
		binF = binF[:0]
		for _, idx := range order[lo:hi] {
			binS = append(binS, ss[idx])
			binF = append(binF, ff[idx])
		}
		knots = append(knots, robust.Median(binS))
		vals = append(vals, robust.Median(binF))
	}
	knots = append(knots, ss[order[len(order)-1]])
	vals = append(vals, ff[order[len(order)-1]])

	// The interpolant needs strictly increasing knots; crowded bins can
	// produce ties, which collapse onto the first occurrence.
	ux := knots[:1:1]
	uy := vals[:1:1]
	for i := 1; i < len(knots); i++ {
		if knots[i] > ux[len(ux)-1] {
			ux = append(ux, knots[i])
			uy = append(uy, vals[i])
		}
	}
	if len(ux) < 2 {
		return nil, fmt.Errorf("%w: arclength has no spread across bins", ErrInsufficientData)
	}
	li, err := interp.NewLinear(ux, uy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularFit, err)
	}
	return li, nil
}

// splitBounds returns the half-open bounds of part w when splitting n items
// into parts contiguous near-equal pieces; the first n%parts pieces take the
// extra items.
func splitBounds(n, parts, w int) (int, int) {
	base := n / parts
	rem := n % parts
	lo := w*base + min(w, rem)
	hi := lo + base
	if w < rem {
		hi++
	}
	return lo, hi
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

func minFinite(x []float64) float64 {
	m := math.Inf(1)
	for _, v := range x {
		if finite(v) && v < m {
			m = v
		}
	}
	return m
}

func normalizeConfig(cfg Config) Config {
	if cfg.NIters == 0 {
		cfg.NIters = defaultNIters
	}
	if cfg.Windows == 0 {
		cfg.Windows = defaultWindows
	}
	if cfg.Bins == 0 {
		cfg.Bins = defaultBins
	}
	if cfg.PolyOrder == 0 {
		cfg.PolyOrder = defaultPolyOrder
	}
	if cfg.KnotSpacing == 0 {
		cfg.KnotSpacing = defaultKnotSpacing
	}
	if cfg.CentroidDetrendOrder == 0 {
		cfg.CentroidDetrendOrder = defaultDetrendOrder
	}
	if cfg.SigmaFlux == 0 {
		cfg.SigmaFlux = defaultSigmaFlux
	}
	if cfg.SigmaCentroid == 0 {
		cfg.SigmaCentroid = defaultSigmaCentroid
	}
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.NIters < 1 {
		return fmt.Errorf("%w: niters %d, want >= 1", ErrInvalidParameter, cfg.NIters)
	}
	if cfg.Windows < 1 {
		return fmt.Errorf("%w: windows %d, want >= 1", ErrInvalidParameter, cfg.Windows)
	}
	if cfg.Bins < 1 {
		return fmt.Errorf("%w: bins %d, want >= 1", ErrInvalidParameter, cfg.Bins)
	}
	if cfg.PolyOrder < 1 {
		return fmt.Errorf("%w: motion polynomial order %d, want >= 1", ErrInvalidParameter, cfg.PolyOrder)
	}
	if cfg.KnotSpacing <= 0 || math.IsNaN(cfg.KnotSpacing) {
		return fmt.Errorf("%w: knot spacing %v, want > 0", ErrInvalidParameter, cfg.KnotSpacing)
	}
	if cfg.CentroidDetrendOrder < 0 {
		return fmt.Errorf("%w: centroid detrend order %d, want >= 0", ErrInvalidParameter, cfg.CentroidDetrendOrder)
	}
	return nil
}
