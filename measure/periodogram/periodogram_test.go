package periodogram

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/dsp/taper"
	"github.com/cwbudde/algo-lightcurve/internal/testutil"
)

// onBinScenario places a 500ppm sine exactly on transform bin 32: 1024
// cadences at 48 per day give a 1.5 cycles/day bin frequency.
func onBinScenario() (time, flux []float64) {
	n := 1024
	dt := 1.0 / 48
	time = testutil.Cadences(n, 0, dt)
	period := float64(n) * dt / 32
	flux = testutil.SineFlux(time, 1000, 500e-6, period, 0)
	return time, flux
}

func TestComputeRecoversOnBinSine(t *testing.T) {
	time, flux := onBinScenario()

	res, err := Compute(time, flux, Config{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Frequency) != 512 || len(res.Amplitude) != 512 {
		t.Fatalf("spectrum size = %d/%d, want 512", len(res.Frequency), len(res.Amplitude))
	}
	testutil.RequireNearlyEqual(t, res.Frequency[0], 48.0/1024, 1e-15)
	testutil.RequireNearlyEqual(t, res.Frequency[511], 24.0, 1e-12)
	testutil.RequireNearlyEqual(t, res.Cadence, 1.0/48, 1e-12)

	testutil.RequireNearlyEqual(t, res.PeakFrequency, 1.5, 1e-12)
	testutil.RequireNearlyEqual(t, res.PeakAmplitude, 500, 1e-6)

	// On-bin input leaks nowhere else.
	for i, amp := range res.Amplitude {
		if res.Frequency[i] == res.PeakFrequency {
			continue
		}
		if amp > 1e-3 {
			t.Fatalf("amplitude %v ppm at %v cycles/day, want clean spectrum", amp, res.Frequency[i])
		}
	}
}

func TestComputePadsToPowerOfTwo(t *testing.T) {
	n := 1000
	dt := 1.0 / 48
	time := testutil.Cadences(n, 0, dt)

	// Same per-sample frequency as the on-bin scenario; the transform pads
	// 1000 samples up to 1024.
	period := 1024.0 * dt / 32
	flux := testutil.SineFlux(time, 1000, 500e-6, period, 0)

	res, err := Compute(time, flux, Config{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Frequency) != 512 {
		t.Fatalf("spectrum size = %d, want 512 after padding", len(res.Frequency))
	}
	testutil.RequireNearlyEqual(t, res.PeakFrequency, 1.5, 1e-9)
	if res.PeakAmplitude < 490 || res.PeakAmplitude > 510 {
		t.Fatalf("peak amplitude = %v ppm, want near 500", res.PeakAmplitude)
	}
}

func TestComputeFlatFlux(t *testing.T) {
	time := testutil.Cadences(256, 0, 1.0/48)
	flux := testutil.FlatFlux(256, 5000)

	res, err := Compute(time, flux, Config{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if res.PeakAmplitude > 1e-12 {
		t.Fatalf("peak amplitude = %v ppm for constant flux", res.PeakAmplitude)
	}
}

func TestComputeFillsGaps(t *testing.T) {
	time, flux := onBinScenario()
	for i := 50; i < 1024; i += 100 {
		flux[i] = math.NaN()
	}

	res, err := Compute(time, flux, Config{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	testutil.RequireNearlyEqual(t, res.PeakFrequency, 1.5, 1e-9)
	if res.PeakAmplitude < 485 || res.PeakAmplitude > 510 {
		t.Fatalf("peak amplitude = %v ppm with gaps, want near 500", res.PeakAmplitude)
	}
}

func TestComputeHannTaperKeepsScale(t *testing.T) {
	time, flux := onBinScenario()

	res, err := Compute(time, flux, Config{Taper: taper.TypeHann})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	testutil.RequireNearlyEqual(t, res.PeakFrequency, 1.5, 1e-12)
	if res.PeakAmplitude < 490 || res.PeakAmplitude > 510 {
		t.Fatalf("peak amplitude = %v ppm through Hann taper, want near 500", res.PeakAmplitude)
	}
}

func TestComputeTaperSuppressesLeakage(t *testing.T) {
	// An off-bin sine leaks into the whole rectangular spectrum; the Hann
	// taper must push the far sidelobes down by orders of magnitude.
	n := 512
	dt := 1.0 / 48
	time := testutil.Cadences(n, 0, dt)
	flux := testutil.SineFlux(time, 1000, 500e-6, 1/1.53, 0)

	far := func(cfg Config) float64 {
		res, err := Compute(time, flux, cfg)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		worst := 0.0
		for i, amp := range res.Amplitude {
			if math.Abs(res.Frequency[i]-1.53) < 1 {
				continue
			}
			worst = math.Max(worst, amp)
		}
		return worst
	}

	rect := far(Config{})
	hann := far(Config{Taper: taper.TypeHann})
	if hann > rect/20 {
		t.Fatalf("far sidelobe %v ppm with Hann vs %v rectangular, want 20x suppression", hann, rect)
	}
}

func TestComputeOversampleRefinesGrid(t *testing.T) {
	n := 512
	dt := 1.0 / 48
	time := testutil.Cadences(n, 0, dt)
	flux := testutil.SineFlux(time, 1000, 500e-6, 1/1.53, 0)

	res, err := Compute(time, flux, Config{Oversample: 4})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Frequency) != 1024 {
		t.Fatalf("spectrum size = %d, want 1024 with fourfold oversampling", len(res.Frequency))
	}
	if math.Abs(res.PeakFrequency-1.53) > 0.025 {
		t.Fatalf("peak frequency = %v, want within a fine bin of 1.53", res.PeakFrequency)
	}
	if res.PeakAmplitude < 470 {
		t.Fatalf("peak amplitude = %v ppm, want near 500", res.PeakAmplitude)
	}
}

func TestComputeErrors(t *testing.T) {
	time, flux := onBinScenario()

	if _, err := Compute(time[:5], flux[:4], Config{}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("mismatch error = %v, want ErrShapeMismatch", err)
	}
	if _, err := Compute(time[:1], flux[:1], Config{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("single sample error = %v, want ErrInsufficientData", err)
	}
	if _, err := Compute(time, flux, Config{Oversample: -1}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("oversample error = %v, want ErrInvalidParameter", err)
	}

	allNaN := make([]float64, 16)
	for i := range allNaN {
		allNaN[i] = math.NaN()
	}
	if _, err := Compute(time[:16], allNaN, Config{}); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("all-NaN error = %v, want ErrInsufficientData", err)
	}

	if _, err := Compute([]float64{0, 1}, []float64{1, -1}, Config{}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("zero-mean error = %v, want ErrInvalidParameter", err)
	}

	decreasing := []float64{3, 2, 1, 0}
	if _, err := Compute(decreasing, testutil.FlatFlux(4, 1), Config{}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("decreasing-time error = %v, want ErrInvalidParameter", err)
	}
}
