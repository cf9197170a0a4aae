package savgol

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-lightcurve/internal/poly"
)

func validate(window, polyorder int) error {
	if window < 1 || window%2 == 0 {
		return fmt.Errorf("savgol: window must be a positive odd number: %d", window)
	}
	if polyorder < 0 {
		return fmt.Errorf("savgol: polyorder must be >= 0: %d", polyorder)
	}
	if polyorder >= window {
		return fmt.Errorf("savgol: polyorder %d must be smaller than window %d", polyorder, window)
	}
	return nil
}

// Coefficients returns the smoothing convolution kernel for the given odd
// window length and polynomial order. The kernel is symmetric and sums to 1.
func Coefficients(window, polyorder int) ([]float64, error) {
	if err := validate(window, polyorder); err != nil {
		return nil, err
	}

	half := window / 2
	cols := polyorder + 1

	a := mat.NewDense(window, cols, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}

	// The centre-sample weights are A (A'A)^-1 e0, i.e. the impulse-response
	// polynomial z with (A'A) z = e0 evaluated at each window offset.
	var g mat.Dense
	g.Mul(a.T(), a)

	e0 := mat.NewVecDense(cols, nil)
	e0.SetVec(0, 1)

	var z mat.VecDense
	if err := z.SolveVec(&g, e0); err != nil {
		return nil, fmt.Errorf("savgol: kernel design failed: %v", err)
	}

	zc := make([]float64, cols)
	for i := range zc {
		zc[i] = z.AtVec(i)
	}

	kernel := make([]float64, window)
	for j := range kernel {
		kernel[j] = poly.Eval(zc, float64(j-half))
	}
	return kernel, nil
}

// Smooth returns the Savitzky-Golay smoothed copy of data. The window
// interior is handled by kernel convolution; the first and last half-window
// are filled by evaluating a least-squares polynomial fitted to the first and
// last window of samples, so the result has the same length as the input.
// Non-finite input samples propagate into the affected output windows.
func Smooth(data []float64, window, polyorder int) ([]float64, error) {
	if err := validate(window, polyorder); err != nil {
		return nil, err
	}
	if window > len(data) {
		return nil, fmt.Errorf("savgol: window %d exceeds data length %d", window, len(data))
	}

	kernel, err := Coefficients(window, polyorder)
	if err != nil {
		return nil, err
	}

	half := window / 2
	n := len(data)
	out := make([]float64, n)

	for i := half; i < n-half; i++ {
		var acc float64
		base := i - half
		for k, w := range kernel {
			acc += w * data[base+k]
		}
		out[i] = acc
	}

	offsets := make([]float64, window)
	for i := range offsets {
		offsets[i] = float64(i)
	}

	head, err := poly.Fit(offsets, data[:window], polyorder)
	if err != nil {
		return nil, fmt.Errorf("savgol: head fit failed: %w", err)
	}
	for i := 0; i < half; i++ {
		out[i] = poly.Eval(head, float64(i))
	}

	tail, err := poly.Fit(offsets, data[n-window:], polyorder)
	if err != nil {
		return nil, fmt.Errorf("savgol: tail fit failed: %w", err)
	}
	for i := n - half; i < n; i++ {
		out[i] = poly.Eval(tail, float64(i-(n-window)))
	}

	return out, nil
}
