// Package lightcurve is the user-facing surface of the module: a light
// curve value type with the common reduction operations, phase folding,
// noise estimation, and mission-aware systematics correction.
//
// A LightCurve couples a strictly increasing time series with flux and
// optional per-sample flux uncertainties. Curves behave like values:
// constructors copy their inputs and every operation returns a new curve,
// so no two curves share backing arrays. All numerical work is delegated
// to the measure and correct packages; this package only composes them.
//
// KeplerLightCurve extends the base curve with detector metadata, centroid
// tracks and per-cadence quality flags, and dispatches Correct to the
// cotrending (correct/cbv) or self-flat-fielding (correct/sff) backend
// based on the mission or an explicit method option.
package lightcurve
