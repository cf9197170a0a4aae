package lightcurve

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/dsp/savgol"
	"github.com/cwbudde/algo-lightcurve/measure/cdpp"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const (
	defaultBinSize       = 13
	defaultFlattenWindow = 101
	defaultFlattenOrder  = 3
)

var (
	// ErrShapeMismatch indicates parallel series of differing lengths.
	ErrShapeMismatch = errors.New("lightcurve: shape mismatch")

	// ErrInsufficientData indicates too few samples for the requested
	// operation.
	ErrInsufficientData = errors.New("lightcurve: insufficient data")

	// ErrInvalidParameter indicates a malformed argument, for example a
	// non-positive fold period.
	ErrInvalidParameter = errors.New("lightcurve: invalid parameter")
)

// LightCurve is a flux time series. Time is strictly increasing; FluxErr is
// nil when uncertainties are unknown, otherwise parallel to Flux.
type LightCurve struct {
	Time    []float64
	Flux    []float64
	FluxErr []float64
}

// New validates and copies the input series into a fresh curve. Time and
// flux must have equal length, fluxErr must be nil or the same length, and
// time must be strictly increasing. Later mutation of the argument slices
// does not affect the returned curve.
func New(time, flux, fluxErr []float64) (*LightCurve, error) {
	if len(time) != len(flux) {
		return nil, fmt.Errorf("%w: %d time samples, %d flux samples", ErrShapeMismatch, len(time), len(flux))
	}
	if fluxErr != nil && len(fluxErr) != len(time) {
		return nil, fmt.Errorf("%w: %d time samples, %d flux errors", ErrShapeMismatch, len(time), len(fluxErr))
	}
	if len(time) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	for i := 1; i < len(time); i++ {
		if math.IsNaN(time[i]) || math.IsNaN(time[i-1]) || time[i] <= time[i-1] {
			return nil, fmt.Errorf("%w: time must be strictly increasing (index %d)", ErrInvalidParameter, i)
		}
	}
	return &LightCurve{
		Time:    copyFloats(time),
		Flux:    copyFloats(flux),
		FluxErr: copyFloats(fluxErr),
	}, nil
}

// Len returns the number of samples.
func (lc *LightCurve) Len() int { return len(lc.Time) }

// CDPP estimates the combined differential photometric precision of the
// flux, in parts per million. See measure/cdpp for the estimator and its
// configuration; errors from it are returned unwrapped.
func (lc *LightCurve) CDPP(cfg cdpp.Config) (float64, error) {
	res, err := cdpp.Estimate(lc.Flux, cfg)
	if err != nil {
		return 0, err
	}
	return res.PPM, nil
}

// Normalize returns a copy of the curve with flux (and flux errors) divided
// by the median flux. A zero or non-finite median propagates into the
// result rather than raising an error.
func (lc *LightCurve) Normalize() *LightCurve {
	med := robust.Median(lc.Flux)
	out := &LightCurve{Time: copyFloats(lc.Time), Flux: make([]float64, lc.Len())}
	for i, f := range lc.Flux {
		out.Flux[i] = f / med
	}
	if lc.FluxErr != nil {
		out.FluxErr = make([]float64, lc.Len())
		for i, e := range lc.FluxErr {
			out.FluxErr[i] = e / med
		}
	}
	return out
}

// Append concatenates the curve with the given curves in argument order.
// Samples are not re-sorted; callers stitching observing segments must pass
// them chronologically. If any input carries flux errors, segments without
// them contribute NaN.
func (lc *LightCurve) Append(others ...*LightCurve) *LightCurve {
	curves := make([]*LightCurve, 0, len(others)+1)
	curves = append(curves, lc)
	curves = append(curves, others...)

	n := 0
	hasErr := false
	for _, c := range curves {
		n += c.Len()
		if c.FluxErr != nil {
			hasErr = true
		}
	}

	out := &LightCurve{Time: make([]float64, 0, n), Flux: make([]float64, 0, n)}
	if hasErr {
		out.FluxErr = make([]float64, 0, n)
	}
	for _, c := range curves {
		out.Time = append(out.Time, c.Time...)
		out.Flux = append(out.Flux, c.Flux...)
		if !hasErr {
			continue
		}
		if c.FluxErr != nil {
			out.FluxErr = append(out.FluxErr, c.FluxErr...)
			continue
		}
		for range c.Time {
			out.FluxErr = append(out.FluxErr, math.NaN())
		}
	}
	return out
}

// Select returns a new curve containing the samples where keep is true.
func (lc *LightCurve) Select(keep []bool) (*LightCurve, error) {
	if len(keep) != lc.Len() {
		return nil, fmt.Errorf("%w: mask length %d for %d samples", ErrShapeMismatch, len(keep), lc.Len())
	}
	return lc.filter(keep), nil
}

// RemoveNaNs returns a new curve without the samples whose flux is NaN or
// infinite.
func (lc *LightCurve) RemoveNaNs() *LightCurve {
	keep := make([]bool, lc.Len())
	for i, f := range lc.Flux {
		keep[i] = !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return lc.filter(keep)
}

// RemoveOutliers returns a new curve without the flux outliers beyond sigma
// robust standard deviations of the median, iterated to a fixed point.
// Non-finite flux samples are always removed.
func (lc *LightCurve) RemoveOutliers(sigma float64) (*LightCurve, error) {
	if sigma <= 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("%w: sigma must be positive: %v", ErrInvalidParameter, sigma)
	}
	return lc.filter(robust.SigmaClip(lc.Flux, sigma, 0)), nil
}

// BinMethod selects the per-bin statistic used by Bin.
type BinMethod int

const (
	// BinMean averages each bin, ignoring non-finite samples.
	BinMean BinMethod = iota
	// BinMedian takes the median of each bin, ignoring non-finite samples.
	BinMedian
)

// Bin groups consecutive cadences into Len()/binSize near-equal bins and
// reduces time and flux with the chosen statistic. Flux errors, when
// present, are combined in quadrature and scaled by 1/n per bin. A binSize
// of 0 assumes 13 cadences, one long-cadence transit duration.
func (lc *LightCurve) Bin(binSize int, method BinMethod) (*LightCurve, error) {
	if binSize == 0 {
		binSize = defaultBinSize
	}
	if binSize < 0 {
		return nil, fmt.Errorf("%w: bin size must be positive: %d", ErrInvalidParameter, binSize)
	}
	var center func([]float64) float64
	switch method {
	case BinMean:
		center = robust.Mean
	case BinMedian:
		center = robust.Median
	default:
		return nil, fmt.Errorf("%w: unknown bin method %d", ErrInvalidParameter, method)
	}
	n := lc.Len()
	nb := n / binSize
	if nb < 1 {
		return nil, fmt.Errorf("%w: %d samples for bin size %d", ErrInsufficientData, n, binSize)
	}

	out := &LightCurve{Time: make([]float64, nb), Flux: make([]float64, nb)}
	if lc.FluxErr != nil {
		out.FluxErr = make([]float64, nb)
	}
	for b := 0; b < nb; b++ {
		lo, hi := binBounds(n, nb, b)
		out.Time[b] = center(lc.Time[lo:hi])
		out.Flux[b] = center(lc.Flux[lo:hi])
		if lc.FluxErr == nil {
			continue
		}
		sum := 0.0
		for _, e := range lc.FluxErr[lo:hi] {
			if !math.IsNaN(e) && !math.IsInf(e, 0) {
				sum += e * e
			}
		}
		out.FluxErr[b] = math.Sqrt(sum) / float64(hi-lo)
	}
	return out, nil
}

// Flatten removes the long-term trend with a Savitzky-Golay filter and
// returns the flattened curve together with the trend curve. The flattened
// flux is the ratio of flux to trend, so multiplying the two restores the
// input. Zero window or polyorder assume 101 and 3; the window must be odd
// and no longer than the series. The trend curve carries no flux errors.
func (lc *LightCurve) Flatten(window, polyorder int) (flattened, trend *LightCurve, err error) {
	if window == 0 {
		window = defaultFlattenWindow
	}
	if polyorder == 0 {
		polyorder = defaultFlattenOrder
	}
	smooth, err := savgol.Smooth(lc.Flux, window, polyorder)
	if err != nil {
		return nil, nil, err
	}

	flattened = &LightCurve{Time: copyFloats(lc.Time), Flux: make([]float64, lc.Len())}
	for i, f := range lc.Flux {
		flattened.Flux[i] = f / smooth[i]
	}
	if lc.FluxErr != nil {
		flattened.FluxErr = make([]float64, lc.Len())
		for i, e := range lc.FluxErr {
			flattened.FluxErr[i] = e / smooth[i]
		}
	}
	trend = &LightCurve{Time: copyFloats(lc.Time), Flux: smooth}
	return flattened, trend, nil
}

func (lc *LightCurve) filter(keep []bool) *LightCurve {
	n := 0
	for _, b := range keep {
		if b {
			n++
		}
	}
	out := &LightCurve{Time: make([]float64, 0, n), Flux: make([]float64, 0, n)}
	if lc.FluxErr != nil {
		out.FluxErr = make([]float64, 0, n)
	}
	for i, b := range keep {
		if !b {
			continue
		}
		out.Time = append(out.Time, lc.Time[i])
		out.Flux = append(out.Flux, lc.Flux[i])
		if lc.FluxErr != nil {
			out.FluxErr = append(out.FluxErr, lc.FluxErr[i])
		}
	}
	return out
}

// binBounds splits n samples into near-equal parts, longer parts first.
func binBounds(n, parts, w int) (int, int) {
	base := n / parts
	rem := n % parts
	lo := w*base + min(w, rem)
	hi := lo + base
	if w < rem {
		hi++
	}
	return lo, hi
}

func copyFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
