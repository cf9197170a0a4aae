package lightcurve

import (
	"fmt"

	"github.com/cwbudde/algo-lightcurve/correct/cbv"
	"github.com/cwbudde/algo-lightcurve/correct/sff"
)

// Mission identifies the observing program a curve was taken under. It
// selects the default correction backend: the nominal Kepler mission used
// cotrending basis vectors, while the two-wheel K2 mission needs the
// motion-driven self-flat-fielding correction.
type Mission int

const (
	MissionUnknown Mission = iota
	MissionKepler
	MissionK2
)

func (m Mission) String() string {
	switch m {
	case MissionKepler:
		return "Kepler"
	case MissionK2:
		return "K2"
	default:
		return "unknown"
	}
}

// Method names a systematics correction backend.
type Method int

const (
	// MethodAuto picks the backend from the mission, falling back to the
	// available inputs when the mission is unknown.
	MethodAuto Method = iota
	// MethodCBV removes trends shared across the detector channel using
	// cotrending basis vectors.
	MethodCBV
	// MethodSFF removes pointing-drift systematics from the centroid
	// tracks.
	MethodSFF
)

func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodCBV:
		return "cbv"
	case MethodSFF:
		return "sff"
	default:
		return "invalid"
	}
}

// Correction records which backend produced a corrected curve and its full
// fit result. Exactly one of CBV and SFF is set.
type Correction struct {
	Method Method
	CBV    *cbv.Result
	SFF    *sff.Result
}

// KeplerLightCurve is a light curve with Kepler/K2 per-cadence and detector
// metadata. CentroidCol and CentroidRow are either both nil or both parallel
// to Flux; Quality, when set, must stay parallel to Flux as well. Correction
// is non-nil only on curves returned by Correct.
type KeplerLightCurve struct {
	LightCurve
	CentroidCol []float64
	CentroidRow []float64
	Quality     []uint32
	Channel     int
	Quarter     int
	Campaign    int
	Mission     Mission
	Correction  *Correction
}

// NewKepler validates and copies the series into a fresh curve. Centroid
// series may both be nil when only cotrending is intended. Quality flags and
// detector metadata are assigned on the returned struct.
func NewKepler(time, flux, fluxErr, centroidCol, centroidRow []float64) (*KeplerLightCurve, error) {
	base, err := New(time, flux, fluxErr)
	if err != nil {
		return nil, err
	}
	if (centroidCol == nil) != (centroidRow == nil) {
		return nil, fmt.Errorf("%w: centroid series must come in pairs", ErrShapeMismatch)
	}
	if centroidCol != nil && (len(centroidCol) != base.Len() || len(centroidRow) != base.Len()) {
		return nil, fmt.Errorf("%w: %d samples, %d column and %d row centroids",
			ErrShapeMismatch, base.Len(), len(centroidCol), len(centroidRow))
	}
	return &KeplerLightCurve{
		LightCurve:  *base,
		CentroidCol: copyFloats(centroidCol),
		CentroidRow: copyFloats(centroidRow),
	}, nil
}

// Select returns a new curve containing the samples where keep is true,
// filtering the centroid and quality series alongside the flux. Detector
// metadata is carried over; any previous correction is not.
func (k *KeplerLightCurve) Select(keep []bool) (*KeplerLightCurve, error) {
	if len(keep) != k.Len() {
		return nil, fmt.Errorf("%w: mask length %d for %d samples", ErrShapeMismatch, len(keep), k.Len())
	}
	out := &KeplerLightCurve{
		LightCurve: *k.LightCurve.filter(keep),
		Channel:    k.Channel,
		Quarter:    k.Quarter,
		Campaign:   k.Campaign,
		Mission:    k.Mission,
	}
	if k.CentroidCol != nil {
		out.CentroidCol = make([]float64, 0, out.Len())
		out.CentroidRow = make([]float64, 0, out.Len())
	}
	if k.Quality != nil {
		out.Quality = make([]uint32, 0, out.Len())
	}
	for i, b := range keep {
		if !b {
			continue
		}
		if k.CentroidCol != nil {
			out.CentroidCol = append(out.CentroidCol, k.CentroidCol[i])
			out.CentroidRow = append(out.CentroidRow, k.CentroidRow[i])
		}
		if k.Quality != nil {
			out.Quality = append(out.Quality, k.Quality[i])
		}
	}
	return out, nil
}

// CorrectOption adjusts a Correct call.
type CorrectOption func(*correctOptions)

type correctOptions struct {
	method Method
	set    cbv.BasisVectorSet
	hasSet bool
	cbvCfg cbv.Config
	sffCfg sff.Config
}

// WithMethod forces a correction backend regardless of the mission.
func WithMethod(m Method) CorrectOption {
	return func(o *correctOptions) { o.method = m }
}

// WithBasisVectors supplies the cotrending basis vectors for the curve's
// channel and quarter. Required whenever the CBV backend runs.
func WithBasisVectors(set cbv.BasisVectorSet) CorrectOption {
	return func(o *correctOptions) {
		o.set = set
		o.hasSet = true
	}
}

// WithCBVConfig overrides the cotrending configuration.
func WithCBVConfig(cfg cbv.Config) CorrectOption {
	return func(o *correctOptions) { o.cbvCfg = cfg }
}

// WithSFFConfig overrides the self-flat-fielding configuration.
func WithSFFConfig(cfg sff.Config) CorrectOption {
	return func(o *correctOptions) { o.sffCfg = cfg }
}

// Correct removes systematics from the flux and returns a new curve whose
// Correction field records the backend and its fit result. The receiver is
// not modified. The backend comes from WithMethod when given, otherwise
// from the mission: K2 selects self-flat-fielding, Kepler selects
// cotrending. Cotrended flux keeps the input scale and flux errors;
// self-flat-fielded flux is normalized around unity and drops them.
func (k *KeplerLightCurve) Correct(opts ...CorrectOption) (*KeplerLightCurve, error) {
	var o correctOptions
	for _, opt := range opts {
		opt(&o)
	}
	method, err := k.resolveMethod(&o)
	if err != nil {
		return nil, err
	}
	switch method {
	case MethodCBV:
		return k.correctCBV(&o)
	case MethodSFF:
		return k.correctSFF(&o)
	default:
		return nil, fmt.Errorf("%w: unknown correction method %d", ErrInvalidParameter, method)
	}
}

func (k *KeplerLightCurve) resolveMethod(o *correctOptions) (Method, error) {
	if o.method != MethodAuto {
		return o.method, nil
	}
	switch k.Mission {
	case MissionK2:
		return MethodSFF, nil
	case MissionKepler:
		return MethodCBV, nil
	}
	if o.hasSet {
		return MethodCBV, nil
	}
	if len(k.CentroidCol) > 0 {
		return MethodSFF, nil
	}
	return MethodAuto, fmt.Errorf("%w: no correction method for mission %v without basis vectors or centroids",
		ErrInvalidParameter, k.Mission)
}

func (k *KeplerLightCurve) correctCBV(o *correctOptions) (*KeplerLightCurve, error) {
	if !o.hasSet {
		return nil, fmt.Errorf("%w: cotrending requires basis vectors", ErrInvalidParameter)
	}
	res, err := cbv.NewCorrector(o.set, o.cbvCfg).Correct(k.Flux)
	if err != nil {
		return nil, err
	}
	out := k.clone()
	out.Flux = res.Corrected
	out.Correction = &Correction{Method: MethodCBV, CBV: &res}
	return out, nil
}

func (k *KeplerLightCurve) correctSFF(o *correctOptions) (*KeplerLightCurve, error) {
	if len(k.CentroidCol) == 0 || len(k.CentroidRow) == 0 {
		return nil, fmt.Errorf("%w: self-flat-fielding requires centroid series", ErrInvalidParameter)
	}
	res, err := sff.Correct(k.Time, k.Flux, k.CentroidCol, k.CentroidRow, o.sffCfg)
	if err != nil {
		return nil, err
	}
	out := k.clone()
	out.Flux = res.Corrected
	// Normalized flux no longer shares units with the stored errors.
	out.FluxErr = nil
	out.Correction = &Correction{Method: MethodSFF, SFF: &res}
	return out, nil
}

func (k *KeplerLightCurve) clone() *KeplerLightCurve {
	out := *k
	out.Time = copyFloats(k.Time)
	out.Flux = copyFloats(k.Flux)
	out.FluxErr = copyFloats(k.FluxErr)
	out.CentroidCol = copyFloats(k.CentroidCol)
	out.CentroidRow = copyFloats(k.CentroidRow)
	out.Quality = copyUint32s(k.Quality)
	out.Correction = nil
	return &out
}

func copyUint32s(s []uint32) []uint32 {
	if s == nil {
		return nil
	}
	out := make([]uint32, len(s))
	copy(out, s)
	return out
}
