// Package taper provides apodization functions for spectral analysis of
// light curves.
//
// A finite observing baseline turns every sharp frequency into a sinc
// pattern whose sidelobes can bury nearby low-amplitude signals. Tapering
// the series before the transform suppresses that leakage at the cost of a
// known amplitude attenuation, the coherent gain, which callers divide out
// again. The rectangular taper is the identity and the package default
// everywhere.
package taper
