// Package cdpp estimates Combined Differential Photometric Precision, the
// standard noise metric for transit surveys: the effective white-noise level,
// in parts per million, seen by a transit of a given duration.
//
// The estimate is a proxy for the pipeline metric: the flux is detrended with
// a Savitzky-Golay filter, outliers are removed by iterative sigma clipping,
// and the scatter is measured as the median standard deviation over a sliding
// window of TransitDuration cadences.
package cdpp

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-lightcurve/dsp/savgol"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const (
	defaultTransitDuration = 13
	defaultSavGolWindow    = 101
	defaultSavGolPolyOrder = 2
	defaultSigmaClip       = 5.0
)

var (
	// ErrInsufficientData indicates empty or all-NaN flux.
	ErrInsufficientData = errors.New("cdpp: insufficient data")

	// ErrInvalidParameter indicates a malformed configuration.
	ErrInvalidParameter = errors.New("cdpp: invalid parameter")
)

// Config holds CDPP estimation parameters. Zero fields assume the Kepler
// long-cadence defaults: a 13-cadence transit window (about 6.5 hours), a
// 101-point quadratic Savitzky-Golay detrend and 5-sigma clipping.
type Config struct {
	// TransitDuration is the sliding-window width in cadences.
	TransitDuration int
	// SavGolWindow is the detrend filter length in cadences; must be odd.
	SavGolWindow int
	// SavGolPolyOrder is the detrend polynomial order.
	SavGolPolyOrder int
	// SigmaClip is the outlier rejection threshold in robust standard
	// deviations. Negative disables clipping.
	SigmaClip float64
}

// Result holds a CDPP estimate and the sample accounting behind it.
type Result struct {
	// PPM is the noise estimate in parts per million.
	PPM float64
	// FiniteSamples counts the flux values that entered the estimate.
	FiniteSamples int
	// ClippedSamples counts the values rejected by sigma clipping.
	ClippedSamples int
	// WindowCount is the number of sliding windows measured.
	WindowCount int
}

// Estimator computes CDPP for a fixed configuration.
type Estimator struct {
	cfg Config
}

// NewEstimator creates a CDPP estimator, filling zero config fields with the
// Kepler long-cadence defaults.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: normalizeConfig(cfg)}
}

// Estimate is a one-shot CDPP estimate of flux under cfg.
func Estimate(flux []float64, cfg Config) (Result, error) {
	return NewEstimator(cfg).Estimate(flux)
}

// Estimate computes the CDPP of flux. NaN and Inf samples are excluded from
// the statistics rather than propagated.
func (e *Estimator) Estimate(flux []float64) (Result, error) {
	cfg := e.cfg
	if err := validateConfig(cfg); err != nil {
		return Result{}, err
	}

	finite := make([]float64, 0, len(flux))
	for _, v := range flux {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Result{}, fmt.Errorf("%w: no finite flux samples", ErrInsufficientData)
	}

	detrended := detrend(finite, cfg.SavGolWindow, cfg.SavGolPolyOrder)
	mask := robust.SigmaClip(detrended, cfg.SigmaClip, 0)
	kept := make([]float64, 0, len(detrended))
	for i, ok := range mask {
		if ok {
			kept = append(kept, detrended[i])
		}
	}
	if len(kept) == 0 {
		return Result{}, fmt.Errorf("%w: sigma clipping removed all samples", ErrInsufficientData)
	}

	width := cfg.TransitDuration
	if width > len(kept) {
		width = len(kept)
	}
	stds := make([]float64, len(kept)-width+1)
	for i := range stds {
		stds[i] = robust.Std(kept[i : i+width])
	}

	return Result{
		PPM:            robust.Median(stds) * 1e6,
		FiniteSamples:  len(finite),
		ClippedSamples: len(finite) - len(kept),
		WindowCount:    len(stds),
	}, nil
}

// detrend divides flux by its Savitzky-Golay smoothed trend, leaving a series
// scattered around unity. Series shorter than the filter fall back to a
// narrower window, and degenerate cases to the median level.
func detrend(flux []float64, window, polyorder int) []float64 {
	n := len(flux)
	if window > n {
		window = n
		if window%2 == 0 {
			window--
		}
	}
	if polyorder >= window {
		polyorder = window - 1
	}

	var trend []float64
	if window >= 3 && polyorder >= 0 {
		if smoothed, err := savgol.Smooth(flux, window, polyorder); err == nil {
			trend = smoothed
		}
	}
	out := make([]float64, n)
	if trend == nil {
		med := robust.Median(flux)
		for i, v := range flux {
			out[i] = ratio(v, med)
		}
		return out
	}
	for i, v := range flux {
		out[i] = ratio(v, trend[i])
	}
	return out
}

func ratio(v, trend float64) float64 {
	if trend == 0 {
		return math.NaN()
	}
	return v / trend
}

func normalizeConfig(cfg Config) Config {
	if cfg.TransitDuration == 0 {
		cfg.TransitDuration = defaultTransitDuration
	}
	if cfg.SavGolWindow == 0 {
		cfg.SavGolWindow = defaultSavGolWindow
	}
	if cfg.SavGolPolyOrder == 0 {
		cfg.SavGolPolyOrder = defaultSavGolPolyOrder
	}
	if cfg.SigmaClip == 0 {
		cfg.SigmaClip = defaultSigmaClip
	}
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.TransitDuration < 1 {
		return fmt.Errorf("%w: transit duration %d, want >= 1", ErrInvalidParameter, cfg.TransitDuration)
	}
	if cfg.SavGolWindow < 1 || cfg.SavGolWindow%2 == 0 {
		return fmt.Errorf("%w: detrend window %d, want odd and positive", ErrInvalidParameter, cfg.SavGolWindow)
	}
	if cfg.SavGolPolyOrder < 0 || cfg.SavGolPolyOrder >= cfg.SavGolWindow {
		return fmt.Errorf("%w: detrend order %d for window %d", ErrInvalidParameter, cfg.SavGolPolyOrder, cfg.SavGolWindow)
	}
	return nil
}
