// Package synth synthesises light curves with known ground truth for
// examples, benchmarks, and pipeline rehearsal. Every generator call is
// deterministic for a given seed, so synthetic scenarios reproduce exactly.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/quality"
)

// ErrInvalidParameter indicates a malformed generator configuration or call.
var ErrInvalidParameter = errors.New("synth: invalid parameter")

// Generator creates deterministic light curves from a shared cadence
// configuration.
type Generator struct {
	cadence float64
	start   float64
	noise   float64
	seed    int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithCadence sets the sampling interval in days. The default is the
// half-hour long cadence, 1/48 day.
func WithCadence(days float64) Option {
	return func(g *Generator) {
		g.cadence = days
	}
}

// WithStart sets the time stamp of the first cadence in days.
func WithStart(day float64) Option {
	return func(g *Generator) {
		g.start = day
	}
}

// WithNoise sets the relative Gaussian scatter applied to every generated
// flux sample. Non-positive values leave the curves noiseless, the default.
func WithNoise(sigma float64) Option {
	return func(g *Generator) {
		g.noise = sigma
	}
}

// WithSeed sets the deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured light curve generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{cadence: 1.0 / 48, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Cadence returns the configured sampling interval in days.
func (g *Generator) Cadence() float64 { return g.cadence }

// Flat returns a constant curve at the given flux level.
func (g *Generator) Flat(level float64, samples int) (*lightcurve.LightCurve, error) {
	time, err := g.times(samples)
	if err != nil {
		return nil, err
	}
	flux := make([]float64, samples)
	for i := range flux {
		flux[i] = level
	}
	g.perturb(flux)
	return lightcurve.New(time, flux, nil)
}

// Sine returns a sinusoidally variable curve,
// level*(1 + amplitude*sin(2*pi*(t-start)/period)) with the period in days.
func (g *Generator) Sine(level, amplitude, period float64, samples int) (*lightcurve.LightCurve, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period %v days, want > 0", ErrInvalidParameter, period)
	}
	time, err := g.times(samples)
	if err != nil {
		return nil, err
	}
	flux := make([]float64, samples)
	for i, t := range time {
		flux[i] = level * (1 + amplitude*math.Sin(2*math.Pi*(t-g.start)/period))
	}
	g.perturb(flux)
	return lightcurve.New(time, flux, nil)
}

// Transits returns a flat curve at level with one box-shaped dip of the
// given fractional depth per period, each lasting duration days, the first
// centred on the first cadence.
func (g *Generator) Transits(level, depth, period, duration float64, samples int) (*lightcurve.LightCurve, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: period %v days, want > 0", ErrInvalidParameter, period)
	}
	if duration <= 0 || duration >= period {
		return nil, fmt.Errorf("%w: duration %v days of a %v day period, want 0 < duration < period",
			ErrInvalidParameter, duration, period)
	}
	time, err := g.times(samples)
	if err != nil {
		return nil, err
	}
	flux := make([]float64, samples)
	for i, t := range time {
		flux[i] = level
		if phase := foldOffset(t-g.start, period); math.Abs(phase) < duration/2 {
			flux[i] = level * (1 - depth)
		}
	}
	g.perturb(flux)
	return lightcurve.New(time, flux, nil)
}

// The drift track runs at a fixed angle through a nominal centroid so the
// rotation recovery in the correction always has work to do.
const (
	driftAngle     = math.Pi / 6
	driftRefCol    = 50.0
	driftRefRow    = 30.0
	centroidJitter = 0.01
)

// Drift returns roll-drift photometry for correction rehearsal. The star
// wanders along a fixed detector axis with a sawtooth of the given period,
// the flux follows 1 + loss*(d + d*d/4) at drift offset d in [-1, 1], and
// the centroid tracks carry 0.01 pixel of jitter. Cadences where the
// sawtooth resets are flagged as thruster firings, the mission is K2, and
// with noise enabled FluxErr holds the per-sample 1-sigma level. Correct on
// the result therefore picks the self-flat-fielding backend and should
// recover a flat normalised curve.
func (g *Generator) Drift(level, loss, period float64, samples int) (*lightcurve.KeplerLightCurve, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: drift period %v days, want > 0", ErrInvalidParameter, period)
	}
	time, err := g.times(samples)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.seed))
	flux := make([]float64, samples)
	col := make([]float64, samples)
	row := make([]float64, samples)
	qual := make([]uint32, samples)
	var fluxErr []float64
	if g.noise > 0 {
		fluxErr = make([]float64, samples)
	}

	prev := 0.0
	for i, t := range time {
		frac := math.Mod(t-g.start, period) / period
		if frac < 0 {
			frac++
		}
		if i > 0 && frac < prev {
			qual[i] = uint32(quality.ThrusterFiring)
		}
		prev = frac

		d := 2*frac - 1
		col[i] = driftRefCol + d*math.Cos(driftAngle) + centroidJitter*rng.NormFloat64()
		row[i] = driftRefRow + d*math.Sin(driftAngle) + centroidJitter*rng.NormFloat64()
		flux[i] = level * (1 + loss*(d+d*d/4))
		if g.noise > 0 {
			flux[i] *= 1 + g.noise*rng.NormFloat64()
			fluxErr[i] = g.noise * level
		}
	}

	k, err := lightcurve.NewKepler(time, flux, fluxErr, col, row)
	if err != nil {
		return nil, err
	}
	k.Quality = qual
	k.Mission = lightcurve.MissionK2
	return k, nil
}

func (g *Generator) times(samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("%w: %d samples, want > 0", ErrInvalidParameter, samples)
	}
	if g.cadence <= 0 {
		return nil, fmt.Errorf("%w: cadence %v days, want > 0", ErrInvalidParameter, g.cadence)
	}
	out := make([]float64, samples)
	for i := range out {
		out[i] = g.start + float64(i)*g.cadence
	}
	return out, nil
}

// perturb multiplies each sample by 1 plus seeded Gaussian noise. A fresh
// source per call keeps repeated calls on one generator identical.
func (g *Generator) perturb(flux []float64) {
	if g.noise <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(g.seed))
	for i := range flux {
		flux[i] *= 1 + g.noise*rng.NormFloat64()
	}
}

// foldOffset maps t onto [-period/2, period/2) around the nearest epoch.
func foldOffset(t, period float64) float64 {
	f := math.Mod(t+period/2, period)
	if f < 0 {
		f += period
	}
	return f - period/2
}
