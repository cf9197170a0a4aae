package taper

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a taper function.
type Type int

const (
	// TypeRectangular applies no tapering; every sample keeps unit weight.
	TypeRectangular Type = iota
	// TypeHann is the raised-cosine taper, the usual default for amplitude
	// spectra.
	TypeHann
	// TypeHamming trades deeper near sidelobes for a higher sidelobe floor.
	TypeHamming
	// TypeTukey is flat over the centre and cosine-tapered over the outer
	// alpha fraction, keeping most of the series at full weight.
	TypeTukey
)

func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeTukey:
		return "tukey"
	default:
		return "invalid"
	}
}

// ParseType reads a taper by name.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rectangular", "none":
		return TypeRectangular, nil
	case "hann":
		return TypeHann, nil
	case "hamming":
		return TypeHamming, nil
	case "tukey":
		return TypeTukey, nil
	}
	return 0, fmt.Errorf("taper: unknown taper %q", s)
}

var (
	errEmptyCoeffs      = errors.New("taper: coefficients must not be empty")
	errZeroCoherentGain = errors.New("taper: coherent gain is zero")
	errMismatchedLength = errors.New("taper: samples and coefficients must have same length")
)

// Two-term cosine sums evaluated as c0 + c1*cos(2*pi*x).
var (
	hannCoeffs    = []float64{0.5, -0.5}
	hammingCoeffs = []float64{0.54, -0.46}
)

const defaultTukeyAlpha = 0.5

// Option configures taper generation.
type Option func(*config)

type config struct {
	alpha float64
}

func defaultConfig() config {
	return config{alpha: defaultTukeyAlpha}
}

// WithAlpha sets the tapered fraction of the Tukey taper, in [0, 1]. Zero
// degenerates to rectangular, one to Hann. Other taper types ignore it.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v >= 0 && v <= 1 {
			c.alpha = v
		}
	}
}

// Generate returns symmetric taper coefficients of the given length. A
// non-positive length yields nil.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalTaper(t, samplePosition(i, length), cfg)
	}
	return out
}

// Apply multiplies samples by the taper and returns a new slice.
func Apply(t Type, samples []float64, opts ...Option) []float64 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, Generate(t, len(samples), opts...))
	return out
}

// ApplyCoefficients multiplies samples with precomputed coefficients and
// returns a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}
	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)
	return out, nil
}

// CoherentGain returns sum(w)/N, the DC amplitude response of the taper.
// Amplitudes measured through a taper are divided by it to restore the
// untapered scale.
func CoherentGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}
	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}
	gain := sum / float64(len(coeffs))
	if gain == 0 {
		return 0, errZeroCoherentGain
	}
	return gain, nil
}

// EquivalentNoiseBandwidth returns the ENBW of the taper in bins; white
// noise passed through the taper spreads over that many transform bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}
	sum := 0.0
	sumSquares := 0.0
	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}
	if sum == 0 {
		return 0, errZeroCoherentGain
	}
	return float64(len(coeffs)) * sumSquares / (sum * sum), nil
}

func evalTaper(t Type, x float64, cfg config) float64 {
	switch t {
	case TypeHann:
		return cosineFromCoeffs(x, hannCoeffs)
	case TypeHamming:
		return cosineFromCoeffs(x, hammingCoeffs)
	case TypeTukey:
		return tukeyAt(x, cfg.alpha)
	default:
		return 1
	}
}

func cosineFromCoeffs(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x
	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}
	return sum
}

func tukeyAt(x, alpha float64) float64 {
	if alpha <= 0 {
		return 1
	}
	if alpha >= 1 {
		return cosineFromCoeffs(x, hannCoeffs)
	}

	a := alpha / 2
	switch {
	case x < a:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-1)))
	case x <= 1-a:
		return 1
	default:
		return 0.5 * (1 + math.Cos(math.Pi*(2*x/alpha-2/alpha+1)))
	}
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0
	}
	return float64(n) / float64(size-1)
}
