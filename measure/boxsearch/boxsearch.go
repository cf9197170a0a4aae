package boxsearch

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

const (
	defaultMinPeriod = 0.5
	defaultMaxPeriod = 30.0
	defaultNPeriods  = 2000
	defaultBins      = 20
	// gaussianMADScale converts a median absolute deviation into the
	// standard deviation of a Gaussian with the same MAD.
	gaussianMADScale = 1.4826
)

var (
	// ErrInsufficientData indicates too few finite samples for the requested
	// phase binning.
	ErrInsufficientData = errors.New("boxsearch: insufficient data")

	// ErrInvalidParameter indicates a malformed period range or grid.
	ErrInvalidParameter = errors.New("boxsearch: invalid parameter")
)

// Scale selects the spacing of the trial period grid.
type Scale int

const (
	// ScaleLog spaces trials evenly in log period, matching the constant
	// fractional width of a transit signal's period response.
	ScaleLog Scale = iota
	// ScaleLinear spaces trials evenly in period.
	ScaleLinear
)

func (s Scale) String() string {
	switch s {
	case ScaleLog:
		return "log"
	case ScaleLinear:
		return "linear"
	default:
		return "invalid"
	}
}

// ParseScale reads a grid scale by name.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "log":
		return ScaleLog, nil
	case "linear":
		return ScaleLinear, nil
	}
	return 0, fmt.Errorf("%w: unknown period scale %q", ErrInvalidParameter, s)
}

// Config holds search parameters. Zero fields assume a 0.5 to 30 day log
// grid of 2000 trials with 20 phase bins, a grid wide enough for the
// transiting planets a single observing campaign can cover.
type Config struct {
	// MinPeriod and MaxPeriod bound the trial grid, in the units of the
	// curve's time axis.
	MinPeriod float64
	MaxPeriod float64
	// NPeriods is the number of grid points.
	NPeriods int
	// Bins is the number of phase bins per fold. The dip must roughly fill
	// one bin to score fully, so more bins suit shorter transit durations.
	Bins int
	// Scale selects log or linear grid spacing.
	Scale Scale
}

// Result holds the scored period grid.
type Result struct {
	// Periods is the trial grid, ascending.
	Periods []float64
	// Scores holds the per-trial depth significance: the deepest phase
	// bin's drop below the median flux, over the standard error a robust
	// per-sample scatter estimate predicts for that bin. Trials without a
	// dip score zero.
	Scores []float64
	// BestPeriod and BestScore describe the strongest trial.
	BestPeriod float64
	BestScore  float64
	// BestDepth is the deepest bin's drop below the median flux at the
	// best period, in the flux units of the input.
	BestDepth float64
}

// Searcher scans light curves for periodic box-shaped dips with a fixed
// configuration.
type Searcher struct {
	cfg Config
}

// NewSearcher creates a searcher, filling zero config fields with the
// defaults.
func NewSearcher(cfg Config) *Searcher {
	return &Searcher{cfg: normalizeConfig(cfg)}
}

// Search is a one-shot scan of lc under cfg.
func Search(lc *lightcurve.LightCurve, cfg Config) (Result, error) {
	return NewSearcher(cfg).Search(lc)
}

// Search folds the curve at every trial period and scores the deepest
// phase bin. Periodic transit-like dips concentrate into a single bin only
// near their true period, so the score peaks there; at submultiples only
// part of the fold cycles carry the dip and at multiples the dip smears
// over wider bins, so harmonics score lower. Non-finite flux samples are
// excluded.
func (s *Searcher) Search(lc *lightcurve.LightCurve) (Result, error) {
	cfg := s.cfg
	if err := validateConfig(cfg); err != nil {
		return Result{}, err
	}

	baseline := robust.Median(lc.Flux)
	if math.IsNaN(baseline) {
		return Result{}, fmt.Errorf("%w: no finite flux samples", ErrInsufficientData)
	}
	finite := 0
	for _, f := range lc.Flux {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			finite++
		}
	}
	if finite < cfg.Bins {
		return Result{}, fmt.Errorf("%w: %d finite samples for %d phase bins", ErrInsufficientData, finite, cfg.Bins)
	}

	// Per-sample scatter for the significance scale. MAD stays anchored to
	// the out-of-dip baseline even when the dips carry most of the
	// variance, which a plain standard deviation would not.
	scatter := gaussianMADScale * robust.MAD(lc.Flux)

	res := Result{
		Periods: periodGrid(cfg),
		Scores:  make([]float64, cfg.NPeriods),
	}
	sums := make([]float64, cfg.Bins)
	counts := make([]int, cfg.Bins)
	for i, period := range res.Periods {
		score, depth, err := s.scoreTrial(lc, period, baseline, scatter, sums, counts)
		if err != nil {
			return Result{}, err
		}
		res.Scores[i] = score
		if i == 0 || score > res.BestScore {
			res.BestPeriod = period
			res.BestScore = score
			res.BestDepth = depth
		}
	}
	return res, nil
}

// scoreTrial folds at one trial period and rates the deepest phase bin.
func (s *Searcher) scoreTrial(lc *lightcurve.LightCurve, period, baseline, scatter float64, sums []float64, counts []int) (score, depth float64, err error) {
	folded, err := lc.Fold(period, 0)
	if err != nil {
		return 0, 0, err
	}

	bins := len(sums)
	for b := range sums {
		sums[b] = 0
		counts[b] = 0
	}
	for i, f := range folded.Flux {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		// Folded time lies in [-period/2, period/2).
		b := int((folded.Time[i]/period + 0.5) * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		sums[b] += f
		counts[b]++
	}

	for b := range sums {
		if counts[b] == 0 {
			continue
		}
		d := baseline - sums[b]/float64(counts[b])
		if d <= 0 {
			continue
		}
		snr := significance(d, scatter, counts[b])
		if snr > score {
			score = snr
			depth = d
		}
	}
	return score, depth, nil
}

// significance rates a mean drop of depth over n samples against the
// per-sample scatter. A zero scatter makes any real dip infinitely
// significant.
func significance(depth, scatter float64, n int) float64 {
	if scatter == 0 {
		return math.Inf(1)
	}
	return depth / (scatter / math.Sqrt(float64(n)))
}

func periodGrid(cfg Config) []float64 {
	periods := make([]float64, cfg.NPeriods)
	last := float64(cfg.NPeriods - 1)
	switch cfg.Scale {
	case ScaleLinear:
		step := (cfg.MaxPeriod - cfg.MinPeriod) / last
		for i := range periods {
			periods[i] = cfg.MinPeriod + float64(i)*step
		}
	default:
		step := math.Log(cfg.MaxPeriod/cfg.MinPeriod) / last
		for i := range periods {
			periods[i] = cfg.MinPeriod * math.Exp(float64(i)*step)
		}
	}
	return periods
}

func normalizeConfig(cfg Config) Config {
	if cfg.MinPeriod == 0 {
		cfg.MinPeriod = defaultMinPeriod
	}
	if cfg.MaxPeriod == 0 {
		cfg.MaxPeriod = defaultMaxPeriod
	}
	if cfg.NPeriods == 0 {
		cfg.NPeriods = defaultNPeriods
	}
	if cfg.Bins == 0 {
		cfg.Bins = defaultBins
	}
	return cfg
}

func validateConfig(cfg Config) error {
	if cfg.MinPeriod <= 0 || math.IsNaN(cfg.MinPeriod) || math.IsInf(cfg.MinPeriod, 0) {
		return fmt.Errorf("%w: min period %v, want > 0", ErrInvalidParameter, cfg.MinPeriod)
	}
	if cfg.MaxPeriod <= cfg.MinPeriod || math.IsNaN(cfg.MaxPeriod) || math.IsInf(cfg.MaxPeriod, 0) {
		return fmt.Errorf("%w: period range [%v, %v], want max > min", ErrInvalidParameter, cfg.MinPeriod, cfg.MaxPeriod)
	}
	if cfg.NPeriods < 2 {
		return fmt.Errorf("%w: %d trial periods, want >= 2", ErrInvalidParameter, cfg.NPeriods)
	}
	if cfg.Bins < 2 {
		return fmt.Errorf("%w: %d phase bins, want >= 2", ErrInvalidParameter, cfg.Bins)
	}
	if cfg.Scale != ScaleLog && cfg.Scale != ScaleLinear {
		return fmt.Errorf("%w: unknown period scale %d", ErrInvalidParameter, cfg.Scale)
	}
	return nil
}
