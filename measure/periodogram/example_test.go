package periodogram_test

import (
	"fmt"

	"github.com/cwbudde/algo-lightcurve/measure/periodogram"
	"github.com/cwbudde/algo-lightcurve/synth"
)

func ExampleCompute() {
	// A 500 ppm oscillation at 1.5 cycles per day over 1024 half-hour
	// cadences, landing exactly on a transform bin.
	g := synth.NewGenerator()
	lc, err := g.Sine(1000, 500e-6, 2.0/3, 1024)
	if err != nil {
		fmt.Println("generate failed:", err)
		return
	}

	res, err := periodogram.Compute(lc.Time, lc.Flux, periodogram.Config{})
	if err != nil {
		fmt.Println("compute failed:", err)
		return
	}
	fmt.Printf("%.1f ppm at %.2f cycles/day\n", res.PeakAmplitude, res.PeakFrequency)

	// Output:
	// 500.0 ppm at 1.50 cycles/day
}
