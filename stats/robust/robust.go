// Package robust provides outlier- and NaN-tolerant statistics for light
// curve processing. All functions skip non-finite samples instead of
// propagating them.
package robust

import (
	"math"
	"sort"
)

// finite collects the finite values of x into a fresh slice.
func finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the mean of the finite values of x using Kahan summation.
// Returns NaN if no finite value exists.
func Mean(x []float64) float64 {
	var sum, c float64
	n := 0
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Std returns the sample standard deviation of the finite values of x,
// computed with Welford's online algorithm. Returns 0 for fewer than two
// finite values.
func Std(x []float64) float64 {
	var mean, m2 float64
	n := 0
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n++
		delta := v - mean
		mean += delta / float64(n)
		m2 += delta * (v - mean)
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(m2 / float64(n-1))
}

// Median returns the median of the finite values of x.
// Returns NaN if no finite value exists.
func Median(x []float64) float64 {
	v := finite(x)
	if len(v) == 0 {
		return math.NaN()
	}
	sort.Float64s(v)
	n := len(v)
	if n%2 == 0 {
		return 0.5 * (v[n/2-1] + v[n/2])
	}
	return v[n/2]
}

// MAD returns the median absolute deviation of the finite values of x
// (unscaled; multiply by 1.4826 for a Gaussian-consistent sigma estimate).
func MAD(x []float64) float64 {
	med := Median(x)
	if math.IsNaN(med) {
		return math.NaN()
	}
	dev := make([]float64, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		dev = append(dev, math.Abs(v-med))
	}
	sort.Float64s(dev)
	n := len(dev)
	if n%2 == 0 {
		return 0.5 * (dev[n/2-1] + dev[n/2])
	}
	return dev[n/2]
}

// SigmaClip returns a keep mask over x: true for samples within sigma
// standard deviations of the median of the kept set, iterated to a fixed
// point (at most maxIter rounds; maxIter <= 0 means iterate until stable).
// Non-finite samples are always rejected. sigma <= 0 disables clipping and
// returns the finite mask.
func SigmaClip(x []float64, sigma float64, maxIter int) []bool {
	keep := make([]bool, len(x))
	for i, v := range x {
		keep[i] = !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	if sigma <= 0 {
		return keep
	}
	if maxIter <= 0 {
		maxIter = len(x)
	}

	kept := make([]float64, 0, len(x))
	for iter := 0; iter < maxIter; iter++ {
		kept = kept[:0]
		for i, v := range x {
			if keep[i] {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			return keep
		}

		center := Median(kept)
		scale := Std(kept)
		if scale == 0 {
			// No spread left to clip against.
			break
		}

		changed := false
		for i, v := range x {
			if !keep[i] {
				continue
			}
			if math.Abs(v-center) > sigma*scale {
				keep[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return keep
}
