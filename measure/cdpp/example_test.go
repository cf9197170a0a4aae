package cdpp_test

import (
	"fmt"

	"github.com/cwbudde/algo-lightcurve/measure/cdpp"
)

func ExampleEstimate() {
	// A constant light curve carries no differential noise.
	flux := make([]float64, 500)
	for i := range flux {
		flux[i] = 1.0
	}

	res, err := cdpp.Estimate(flux, cdpp.Config{TransitDuration: 13})
	if err != nil {
		fmt.Println("estimate failed:", err)
		return
	}
	fmt.Printf("%.1f ppm\n", res.PPM)
	// Output:
	// 0.0 ppm
}
