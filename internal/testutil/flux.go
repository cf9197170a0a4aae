// Package testutil provides shared tolerances and deterministic light-curve
// generators for tests.
package testutil

import (
	"math"
	"math/rand"
)

// Cadences returns n evenly spaced time stamps starting at t0 (days).
func Cadences(n int, t0, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = t0 + float64(i)*step
	}
	return out
}

// FlatFlux returns a constant flux series at the given level.
func FlatFlux(n int, level float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

// GaussianFlux returns flux scattered around mean with the given standard
// deviation, using a fixed seed for reproducibility.
func GaussianFlux(seed int64, n int, mean, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + sigma*rng.NormFloat64()
	}
	return out
}

// SineFlux returns level*(1 + amp*sin(2*pi*t/period + phase)) sampled at the
// given times.
func SineFlux(time []float64, level, amp, period, phase float64) []float64 {
	out := make([]float64, len(time))
	for i, t := range time {
		out[i] = level * (1 + amp*math.Sin(2*math.Pi*t/period+phase))
	}
	return out
}

// TransitFlux returns a flat unit flux with periodic box-shaped dips of the
// given fractional depth and duration (same units as time).
func TransitFlux(time []float64, period, epoch, duration, depth float64) []float64 {
	out := make([]float64, len(time))
	for i, t := range time {
		out[i] = 1.0
		phase := math.Mod(t-epoch+period/2, period)
		if phase < 0 {
			phase += period
		}
		phase -= period / 2
		if math.Abs(phase) < duration/2 {
			out[i] = 1.0 - depth
		}
	}
	return out
}

// SawtoothDrift returns a sawtooth motion profile with the given period and
// amplitude, the shape of roll-drift-and-thruster-reset pointing wander.
func SawtoothDrift(time []float64, period, amplitude float64) []float64 {
	out := make([]float64, len(time))
	for i, t := range time {
		frac := math.Mod(t, period) / period
		if frac < 0 {
			frac += 1
		}
		out[i] = amplitude * (2*frac - 1)
	}
	return out
}
