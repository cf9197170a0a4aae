package lightcurve

import (
	"fmt"
	"math"
)

// FoldedLightCurve is a curve remapped to phase-relative time in
// [-Period/2, Period/2). Samples keep the source order; callers that need
// phase-ordered samples sort afterwards.
type FoldedLightCurve struct {
	LightCurve
	Period float64
	Phase  float64
}

// Fold maps each time onto its phase offset from the nearest epoch of the
// given period. Phase shifts the epoch as a fraction of the period, so a
// sample at time phase*period folds to zero. The period must be positive
// and finite.
func (lc *LightCurve) Fold(period, phase float64) (*FoldedLightCurve, error) {
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return nil, fmt.Errorf("%w: period must be positive and finite: %v", ErrInvalidParameter, period)
	}
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		return nil, fmt.Errorf("%w: phase must be finite: %v", ErrInvalidParameter, phase)
	}

	half := period / 2
	folded := make([]float64, lc.Len())
	for i, t := range lc.Time {
		f := math.Mod(t-phase*period+half, period)
		if f < 0 {
			f += period
		}
		// Rounding can land exactly on period; wrap to keep the half-open
		// interval.
		if f >= period {
			f = 0
		}
		folded[i] = f - half
	}
	return &FoldedLightCurve{
		LightCurve: LightCurve{
			Time:    folded,
			Flux:    copyFloats(lc.Flux),
			FluxErr: copyFloats(lc.FluxErr),
		},
		Period: period,
		Phase:  phase,
	}, nil
}
