package cdpp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

func TestEstimateFlatFlux(t *testing.T) {
	flux := testutil.FlatFlux(1000, 1.0)

	res, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.PPM > 1e-3 {
		t.Fatalf("flat flux CDPP = %v ppm, want ~0", res.PPM)
	}
	if res.FiniteSamples != 1000 {
		t.Fatalf("FiniteSamples = %d, want 1000", res.FiniteSamples)
	}
}

func TestEstimateGaussianNoise(t *testing.T) {
	// White noise at a known 100 ppm level. The sliding-window median is a
	// mildly biased scale estimator, so the check is deliberately coarse.
	flux := testutil.GaussianFlux(42, 10000, 1.0, 100e-6)

	res, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.PPM < 85 || res.PPM > 110 {
		t.Fatalf("CDPP = %v ppm, want ~100", res.PPM)
	}
	if res.WindowCount == 0 {
		t.Fatal("WindowCount = 0, want > 0")
	}
}

func TestEstimateScaleInvariance(t *testing.T) {
	// The ratio detrend normalises out the flux level, so an identical
	// relative scatter yields an identical estimate at any scale.
	unit := testutil.GaussianFlux(42, 10000, 1.0, 100e-6)
	bright := make([]float64, len(unit))
	for i, v := range unit {
		bright[i] = 5000 * v
	}

	a, err := Estimate(unit, Config{})
	if err != nil {
		t.Fatalf("Estimate(unit): %v", err)
	}
	b, err := Estimate(bright, Config{})
	if err != nil {
		t.Fatalf("Estimate(bright): %v", err)
	}
	testutil.RequireNearlyEqual(t, a.PPM, b.PPM, 0.01)
}

func TestEstimateRemovesSlowTrend(t *testing.T) {
	// A 1% sinusoidal trend over 30 days dwarfs the 100 ppm noise but is far
	// slower than the 101-cadence detrend window, so it must not inflate the
	// estimate.
	time := testutil.Cadences(10000, 0, 1.0/48)
	flux := testutil.SineFlux(time, 1.0, 0.01, 30, 0)
	noise := testutil.GaussianFlux(7, len(flux), 0, 100e-6)
	for i := range flux {
		flux[i] += noise[i]
	}

	res, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.PPM < 80 || res.PPM > 115 {
		t.Fatalf("CDPP = %v ppm, want ~100", res.PPM)
	}
}

func TestEstimateToleratesNaN(t *testing.T) {
	flux := testutil.GaussianFlux(42, 10000, 1.0, 100e-6)
	clean, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate(clean): %v", err)
	}

	for i := 0; i < len(flux); i += 100 {
		flux[i] = math.NaN()
	}
	gapped, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate(gapped): %v", err)
	}
	if gapped.FiniteSamples != 9900 {
		t.Fatalf("FiniteSamples = %d, want 9900", gapped.FiniteSamples)
	}
	testutil.RequireNearlyEqual(t, gapped.PPM, clean.PPM, 5)
}

func TestEstimateClipsOutliers(t *testing.T) {
	flux := testutil.GaussianFlux(42, 10000, 1.0, 100e-6)
	clean, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate(clean): %v", err)
	}

	for i := 500; i < 10000; i += 1000 {
		flux[i] += 0.05
	}
	spiked, err := Estimate(flux, Config{})
	if err != nil {
		t.Fatalf("Estimate(spiked): %v", err)
	}
	if spiked.ClippedSamples < 10 {
		t.Fatalf("ClippedSamples = %d, want >= 10", spiked.ClippedSamples)
	}
	testutil.RequireNearlyEqual(t, spiked.PPM, clean.PPM, 5)
}

func TestEstimateShortSeries(t *testing.T) {
	// Shorter than the default detrend window; the filter falls back to a
	// narrower one instead of failing.
	res, err := Estimate(testutil.FlatFlux(51, 2.5), Config{})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.PPM > 1e-3 {
		t.Fatalf("flat flux CDPP = %v ppm, want ~0", res.PPM)
	}
	if res.WindowCount != 39 {
		t.Fatalf("WindowCount = %d, want 39", res.WindowCount)
	}
}

func TestEstimateErrors(t *testing.T) {
	if _, err := Estimate(nil, Config{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("empty flux: err = %v, want ErrInsufficientData", err)
	}

	allNaN := make([]float64, 64)
	for i := range allNaN {
		allNaN[i] = math.NaN()
	}
	if _, err := Estimate(allNaN, Config{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("all-NaN flux: err = %v, want ErrInsufficientData", err)
	}

	flux := testutil.FlatFlux(200, 1)
	if _, err := Estimate(flux, Config{SavGolWindow: 4}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("even window: err = %v, want ErrInvalidParameter", err)
	}
	if _, err := Estimate(flux, Config{TransitDuration: -1}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("negative duration: err = %v, want ErrInvalidParameter", err)
	}
	if _, err := Estimate(flux, Config{SavGolWindow: 5, SavGolPolyOrder: 7}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("order above window: err = %v, want ErrInvalidParameter", err)
	}
}

func TestEstimatorReuse(t *testing.T) {
	est := NewEstimator(Config{TransitDuration: 7})
	flux := testutil.GaussianFlux(3, 5000, 1.0, 50e-6)

	a, err := est.Estimate(flux)
	if err != nil {
		t.Fatalf("first Estimate: %v", err)
	}
	b, err := est.Estimate(flux)
	if err != nil {
		t.Fatalf("second Estimate: %v", err)
	}
	if a != b {
		t.Fatalf("repeated estimates differ: %+v vs %+v", a, b)
	}
}
