// Package spline implements least-squares cubic B-spline smoothing over
// irregularly sampled series.
//
// [Fit] places interior knots at a fixed spacing across the sample span,
// clamps the ends, and solves for the control values that minimise the
// squared residual against the data. The result is a smooth low-frequency
// trend estimate: wider spacing means a stiffer spline. With a span shorter
// than one knot spacing the fit degenerates to a single least-squares cubic.
package spline
