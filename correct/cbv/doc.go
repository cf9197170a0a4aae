// Package cbv removes common-mode instrumental systematics from a light
// curve by fitting cotrending basis vectors.
//
// Cotrending basis vectors are trend templates extracted by the mission
// pipeline from the ensemble of quiet stars on one detector channel and
// observing segment. Signals shared across the ensemble are instrumental, so
// subtracting the best-fit linear combination of the leading vectors strips
// pointing drifts, focus changes and thermal transients while leaving
// astrophysical variability in place.
//
// The fit is plain linear least squares with an intercept, optionally ridge
// regularised. It is fully deterministic: identical inputs produce identical
// coefficients.
package cbv
