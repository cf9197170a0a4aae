// Package periodogram computes one-sided FFT amplitude spectra of evenly
// cadenced light curves, in parts per million of the mean flux against
// frequency in cycles per day. An optional taper (dsp/taper) suppresses
// spectral leakage from the finite baseline.
package periodogram
