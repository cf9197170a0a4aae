package periodogram

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-lightcurve/dsp/taper"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

var (
	// ErrShapeMismatch indicates time and flux series of differing lengths.
	ErrShapeMismatch = errors.New("periodogram: shape mismatch")

	// ErrInsufficientData indicates fewer than two usable samples.
	ErrInsufficientData = errors.New("periodogram: insufficient data")

	// ErrInvalidParameter indicates a malformed configuration, a
	// non-positive cadence, or flux with no usable mean level.
	ErrInvalidParameter = errors.New("periodogram: invalid parameter")
)

// Config holds spectrum parameters. The zero value is ready to use.
type Config struct {
	// Oversample multiplies the transform length beyond the next power of
	// two, refining the frequency grid by zero padding. Zero assumes 1.
	Oversample int
	// Taper apodizes the series before the transform to suppress spectral
	// leakage. Amplitudes are renormalized by the taper weight, so on-bin
	// signals keep their ppm scale. Zero is rectangular, i.e. no tapering.
	Taper taper.Type
}

// Result is a one-sided amplitude spectrum. The zero-frequency bin is
// omitted; Frequency ascends from the fundamental to the Nyquist frequency.
type Result struct {
	// Frequency holds the bin frequencies in cycles per day.
	Frequency []float64
	// Amplitude holds the bin amplitudes in ppm of the mean flux.
	Amplitude []float64
	// PeakFrequency and PeakAmplitude describe the strongest bin.
	PeakFrequency float64
	PeakAmplitude float64
	// Cadence is the median sampling interval the grid is built on, in
	// days.
	Cadence float64
}

// Analyzer computes spectra with a fixed configuration.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Compute is shorthand for NewAnalyzer(cfg).Compute(time, flux).
func Compute(time, flux []float64, cfg Config) (Result, error) {
	return NewAnalyzer(cfg).Compute(time, flux)
}

// Compute transforms the flux series. The cadence comes from the median
// time step, so mildly irregular sampling is tolerated; non-finite flux
// samples contribute no power. Amplitudes are relative to the mean flux,
// which must therefore be nonzero.
func (a *Analyzer) Compute(time, flux []float64) (Result, error) {
	if len(time) != len(flux) {
		return Result{}, fmt.Errorf("%w: %d time samples, %d flux samples", ErrShapeMismatch, len(time), len(flux))
	}
	oversample := a.cfg.Oversample
	if oversample == 0 {
		oversample = 1
	}
	if oversample < 0 {
		return Result{}, fmt.Errorf("%w: oversample %d, want >= 1", ErrInvalidParameter, oversample)
	}
	n := len(flux)
	if n < 2 {
		return Result{}, fmt.Errorf("%w: %d samples", ErrInsufficientData, n)
	}

	diffs := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diffs[i-1] = time[i] - time[i-1]
	}
	dt := robust.Median(diffs)
	if math.IsNaN(dt) || dt <= 0 {
		return Result{}, fmt.Errorf("%w: median cadence %v, want > 0", ErrInvalidParameter, dt)
	}

	mean := robust.Mean(flux)
	if math.IsNaN(mean) {
		return Result{}, fmt.Errorf("%w: no finite flux samples", ErrInsufficientData)
	}
	if mean == 0 {
		return Result{}, fmt.Errorf("%w: zero mean flux, amplitudes have no reference level", ErrInvalidParameter)
	}

	fftSize := nextPowerOf2(n * oversample)
	in := make([]complex128, fftSize)
	weights := taper.Generate(a.cfg.Taper, n)
	wsum := 0.0
	for i, f := range flux {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		in[i] = complex((f-mean)*weights[i], 0)
		wsum += weights[i]
	}
	if wsum == 0 {
		return Result{}, fmt.Errorf("%w: taper leaves no spectral weight", ErrInsufficientData)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("periodogram: fft plan: %w", err)
	}
	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("periodogram: forward transform: %w", err)
	}

	half := fftSize / 2
	mags := make([]float64, half)
	freqs := make([]float64, half)
	for k := 1; k <= half; k++ {
		mags[k-1] = cmplx.Abs(out[k])
		freqs[k-1] = float64(k) / (float64(fftSize) * dt)
	}

	// One-sided amplitude relative to the mean level, normalized by the
	// taper weight of the contributing samples: mirrored bins count twice,
	// the Nyquist bin does not.
	amps := make([]float64, half)
	vecmath.ScaleBlock(amps, mags, 2e6/(wsum*math.Abs(mean)))
	amps[half-1] /= 2

	res := Result{Frequency: freqs, Amplitude: amps, Cadence: dt}
	for i, amp := range amps {
		if amp > res.PeakAmplitude {
			res.PeakAmplitude = amp
			res.PeakFrequency = freqs[i]
		}
	}
	return res, nil
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
