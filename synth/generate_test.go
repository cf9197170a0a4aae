package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-lightcurve/internal/testutil"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/quality"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

func TestFlatPure(t *testing.T) {
	g := NewGenerator(WithStart(100), WithCadence(0.5))
	lc, err := g.Flat(2.5, 3)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, lc.Time, []float64{100, 100.5, 101}, 0)
	for i, f := range lc.Flux {
		if f != 2.5 {
			t.Fatalf("Flux[%d] = %v, want 2.5 without noise", i, f)
		}
	}
	if lc.FluxErr != nil {
		t.Fatalf("FluxErr = %v, want nil", lc.FluxErr)
	}
}

func TestSineKnownValues(t *testing.T) {
	g := NewGenerator(WithCadence(0.25))
	lc, err := g.Sine(2, 0.01, 1, 5)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}
	want := []float64{2, 2.02, 2, 1.98, 2}
	testutil.RequireSliceNearlyEqual(t, lc.Flux, want, 1e-12)
}

func TestSinePhaseAnchoredAtStart(t *testing.T) {
	g := NewGenerator(WithStart(37.5), WithCadence(0.5))
	lc, err := g.Sine(1, 0.5, 2, 2)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}
	// The first cadence sits at phase zero regardless of the start time.
	testutil.RequireSliceNearlyEqual(t, lc.Flux, []float64{1, 1.5}, 1e-12)
}

func TestTransitsDutyCycle(t *testing.T) {
	g := NewGenerator()
	lc, err := g.Transits(1, 0.01, 2.5, 0.15, 2400)
	if err != nil {
		t.Fatalf("Transits: %v", err)
	}
	dipped := 0
	for i, f := range lc.Flux {
		switch f {
		case 1:
		case 0.99:
			dipped++
		default:
			t.Fatalf("Flux[%d] = %v, want 1 or 0.99", i, f)
		}
	}
	// 7 of every 120 half-hour cadences fall inside a 0.15 day dip.
	if dipped != 140 {
		t.Fatalf("dipped samples = %d, want 140", dipped)
	}
}

func TestNoiseDeterministic(t *testing.T) {
	g1 := NewGenerator(WithNoise(1e-4), WithSeed(42))
	g2 := NewGenerator(WithNoise(1e-4), WithSeed(42))

	a, err := g1.Flat(1, 16)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	b, err := g2.Flat(1, 16)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	for i := range a.Flux {
		if a.Flux[i] != b.Flux[i] {
			t.Fatalf("noise mismatch at %d: %v != %v", i, a.Flux[i], b.Flux[i])
		}
	}

	// Repeated calls on one generator reproduce as well.
	c, err := g1.Flat(1, 16)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	for i := range a.Flux {
		if a.Flux[i] != c.Flux[i] {
			t.Fatalf("repeat mismatch at %d: %v != %v", i, a.Flux[i], c.Flux[i])
		}
	}

	d, err := NewGenerator(WithNoise(1e-4), WithSeed(43)).Flat(1, 16)
	if err != nil {
		t.Fatalf("Flat: %v", err)
	}
	same := true
	for i := range a.Flux {
		if a.Flux[i] != d.Flux[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to produce different noise")
	}
}

func TestDriftFlagsResets(t *testing.T) {
	g := NewGenerator(WithSeed(5))
	k, err := g.Drift(5000, 0.02, 0.26, 800)
	if err != nil {
		t.Fatalf("Drift: %v", err)
	}
	if k.Mission != lightcurve.MissionK2 {
		t.Fatalf("Mission = %v, want K2", k.Mission)
	}
	if k.FluxErr != nil {
		t.Fatal("noiseless drift curve must not carry FluxErr")
	}

	flagged := 0
	for i, q := range k.Quality {
		switch q {
		case 0:
		case uint32(quality.ThrusterFiring):
			flagged++
			if i == 0 {
				t.Fatal("first cadence flagged as a reset")
			}
		default:
			t.Fatalf("Quality[%d] = %d, want 0 or thruster firing", i, q)
		}
	}
	// 800 half-hour cadences span 64 sawtooth cycles.
	if flagged < 60 || flagged > 68 {
		t.Fatalf("flagged resets = %d, want about 64", flagged)
	}

	keep := quality.Mask(k.Quality, quality.BitmaskDefault)
	kept := 0
	for _, ok := range keep {
		if ok {
			kept++
		}
	}
	if kept != k.Len()-flagged {
		t.Fatalf("default bitmask keeps %d cadences, want %d", kept, k.Len()-flagged)
	}
}

func TestDriftCorrectRoundtrip(t *testing.T) {
	g := NewGenerator(WithNoise(100e-6), WithSeed(5))
	k, err := g.Drift(5000, 0.02, 0.26, 800)
	if err != nil {
		t.Fatalf("Drift: %v", err)
	}
	if k.FluxErr == nil || k.FluxErr[0] != 0.5 {
		t.Fatalf("FluxErr = %v, want the 0.5 flux unit noise level", k.FluxErr)
	}

	keep := quality.Mask(k.Quality, quality.BitmaskDefault)
	masked, err := k.Select(keep)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	res, err := masked.Correct()
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if res.Correction == nil || res.Correction.Method != lightcurve.MethodSFF {
		t.Fatalf("Correction = %+v, want the self-flat-fielding backend", res.Correction)
	}

	before := robust.Std(masked.Flux) / robust.Mean(masked.Flux)
	after := robust.Std(res.Flux) / robust.Mean(res.Flux)
	if after > before/5 {
		t.Fatalf("relative scatter %v -> %v, want a fivefold improvement", before, after)
	}
	// Self-flat-fielding returns normalised flux.
	if mean := robust.Mean(res.Flux); math.Abs(mean-1) > 0.05 {
		t.Fatalf("corrected mean = %v, want near 1", mean)
	}
}

func TestGeneratorErrors(t *testing.T) {
	g := NewGenerator()

	cases := []struct {
		name string
		err  func() error
	}{
		{"zero samples", func() error { _, err := g.Flat(1, 0); return err }},
		{"zero cadence", func() error { _, err := NewGenerator(WithCadence(0)).Flat(1, 4); return err }},
		{"zero sine period", func() error { _, err := g.Sine(1, 0.1, 0, 4); return err }},
		{"zero transit period", func() error { _, err := g.Transits(1, 0.1, 0, 0.1, 4); return err }},
		{"duration at period", func() error { _, err := g.Transits(1, 0.1, 2, 2, 4); return err }},
		{"zero duration", func() error { _, err := g.Transits(1, 0.1, 2, 0, 4); return err }},
		{"negative drift period", func() error { _, err := g.Drift(1, 0.02, -1, 4); return err }},
	}
	for _, tc := range cases {
		if err := tc.err(); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("%s: err = %v, want ErrInvalidParameter", tc.name, err)
		}
	}
}
