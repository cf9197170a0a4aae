package robust

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
		{"nan skipped", []float64{1, math.NaN(), 3}, 2},
		{"inf skipped", []float64{1, math.Inf(1), 3, 5}, 3},
	}
	for _, tc := range cases {
		if got := Median(tc.in); got != tc.want {
			t.Errorf("%s: got %g, want %g", tc.name, got, tc.want)
		}
	}
	if got := Median([]float64{math.NaN()}); !math.IsNaN(got) {
		t.Errorf("all-NaN median: got %g, want NaN", got)
	}
}

func TestMeanIgnoresNonFinite(t *testing.T) {
	in := []float64{1, 2, math.NaN(), 3, math.Inf(-1)}
	if got := Mean(in); got != 2 {
		t.Errorf("got %g, want 2", got)
	}
	if got := Mean(nil); !math.IsNaN(got) {
		t.Errorf("empty mean: got %g, want NaN", got)
	}
}

func TestStd(t *testing.T) {
	in := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	// Sample standard deviation of the classic example set.
	want := math.Sqrt(32.0 / 7.0)
	if got := Std(in); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %g, want %g", got, want)
	}
	if got := Std([]float64{1}); got != 0 {
		t.Errorf("single sample: got %g, want 0", got)
	}
	withNaN := []float64{2, math.NaN(), 4, 4, 4, 5, 5, 7, 9}
	if got := Std(withNaN); math.Abs(got-want) > 1e-12 {
		t.Errorf("NaN not skipped: got %g, want %g", got, want)
	}
}

func TestMAD(t *testing.T) {
	in := []float64{1, 1, 2, 2, 4, 6, 9}
	if got := MAD(in); got != 1 {
		t.Errorf("got %g, want 1", got)
	}
}

func TestSigmaClipRejectsSpikes(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 1.0 + 0.001*math.Sin(float64(i))
	}
	x[10] = 5.0
	x[50] = -3.0
	x[70] = math.NaN()

	keep := SigmaClip(x, 3, 0)
	if keep[10] || keep[50] {
		t.Error("spikes survived clipping")
	}
	if keep[70] {
		t.Error("NaN survived clipping")
	}
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	if kept != len(x)-3 {
		t.Errorf("kept %d samples, want %d", kept, len(x)-3)
	}
}

func TestSigmaClipFlatKeepsAll(t *testing.T) {
	x := []float64{1, 1, 1, 1, 1}
	for i, k := range SigmaClip(x, 3, 0) {
		if !k {
			t.Fatalf("flat sample %d clipped", i)
		}
	}
}

func TestSigmaClipDisabled(t *testing.T) {
	x := []float64{1, 100, math.NaN()}
	keep := SigmaClip(x, 0, 0)
	if !keep[0] || !keep[1] || keep[2] {
		t.Errorf("sigma<=0 should only reject non-finite samples, got %v", keep)
	}
}
