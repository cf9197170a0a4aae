// Package interp provides 1-D interpolation over irregular knots.
//
// [Linear] connects (x, y) knots with straight segments and extends the first
// and last segment beyond the knot range, matching the behaviour expected
// from binned-profile lookups where query points may fall slightly outside
// the fitted span.
package interp
