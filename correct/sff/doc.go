// Package sff implements self-flat-fielding, the correction for
// pointing-drift systematics in photometry from a spacecraft with degraded
// attitude control.
//
// The failure of two reaction wheels left the Kepler spacecraft rolling
// slowly about its boresight between thruster firings. Stars drift across
// detector pixels with varying sensitivity, imprinting a sawtooth onto every
// raw light curve. Because the drift is essentially one-dimensional, flux
// loss is a function of a single variable: the position along the drift
// track. Self-flat-fielding (after Vanderburg & Johnson 2014) recovers that
// function from the star's own data and divides it out.
//
// Per temporal window the corrector rotates the centroid track onto its
// dominant motion axis, fits a polynomial to the transverse wobble,
// integrates arclength along it, and calibrates flux against arclength with
// binned robust statistics. A least-squares B-spline over time separates the
// slow astrophysical trend from the fast motion systematic, and the whole
// cycle is iterated so outliers settle out. The fitted model for every
// window is returned as an immutable FitState for inspection.
package sff
