// Package savgol implements Savitzky-Golay smoothing for evenly sampled
// series.
//
// The filter fits a least-squares polynomial of a given order inside a
// sliding window and takes its centre value, which removes slow trends while
// preserving short features far better than a plain moving average. The
// convolution kernel is designed once per (window, polyorder) pair;
// [Smooth] applies it to the window interior and falls back to an explicit
// polynomial fit over the first and last window so the output covers the
// full input length.
//
// Polynomials of degree <= polyorder pass through the filter unchanged.
package savgol
