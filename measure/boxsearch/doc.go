// Package boxsearch finds periodic box-shaped dips such as planetary
// transits by brute force. Each trial period folds the light curve, bins
// the phased flux, and scores the deepest bin by the significance of its
// drop below the median flux. The score peaks at the true period, where
// every transit stacks into the same phase bin.
//
// The search assumes a detrended curve; slow trends widen the scatter
// estimate and wash out shallow dips. Flatten or correct the curve first.
package boxsearch
