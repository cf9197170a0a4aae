// Command lcstat summarises and corrects light curve CSV exports.
//
// Usage:
//
//	lcstat [flags] input.csv
//
// The input columns are time,flux[,flux_err[,centroid_col,centroid_row
// [,quality]]] with an optional header row. A YAML pipeline file selects
// the quality bitmask, correction backend, and summary metrics; the flags
// override its common fields.
//
// Examples:
//
//	lcstat curve.csv
//	lcstat -bitmask hard -method sff -out corrected.csv curve.csv
//	lcstat -config pipeline.yaml curve.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-lightcurve/correct/cbv"
	"github.com/cwbudde/algo-lightcurve/correct/sff"
	"github.com/cwbudde/algo-lightcurve/dsp/taper"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
	"github.com/cwbudde/algo-lightcurve/measure/boxsearch"
	"github.com/cwbudde/algo-lightcurve/measure/cdpp"
	"github.com/cwbudde/algo-lightcurve/measure/periodogram"
	"github.com/cwbudde/algo-lightcurve/quality"
	"github.com/cwbudde/algo-lightcurve/stats/robust"
)

func main() {
	configPath := flag.String("config", "", "YAML pipeline configuration file")
	bitmask := flag.String("bitmask", "", "quality bitmask: none, default, hard, hardest, or an integer (overrides config)")
	method := flag.String("method", "", "correction method: auto, cbv, sff, or none (overrides config)")
	out := flag.String("out", "", "write the corrected curve to this CSV file (overrides config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lcstat [flags] input.csv\n\n")
		fmt.Fprintf(os.Stderr, "Summarises a light curve CSV: quality masking, systematics correction,\n")
		fmt.Fprintf(os.Stderr, "CDPP noise before and after, and optional fold, period search, and\n")
		fmt.Fprintf(os.Stderr, "periodogram summaries.\n\n")
		fmt.Fprintf(os.Stderr, "The input columns are time,flux[,flux_err[,centroid_col,centroid_row\n")
		fmt.Fprintf(os.Stderr, "[,quality]]] with an optional header row.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lcstat curve.csv\n")
		fmt.Fprintf(os.Stderr, "  lcstat -bitmask hard -method sff -out corrected.csv curve.csv\n")
		fmt.Fprintf(os.Stderr, "  lcstat -config pipeline.yaml curve.csv\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *bitmask != "" {
		cfg.Bitmask = *bitmask
	}
	if *method != "" {
		cfg.Correction.Method = *method
	}
	if *out != "" {
		cfg.Output.Corrected = *out
	}

	if err := run(flag.Arg(0), cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// methodChoice is the CLI-level correction selector; unlike
// lightcurve.Method it can opt out of correcting entirely.
type methodChoice int

const (
	methodAuto methodChoice = iota
	methodCBV
	methodSFF
	methodNone
)

func parseMethodChoice(s string) (methodChoice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return methodAuto, nil
	case "cbv":
		return methodCBV, nil
	case "sff":
		return methodSFF, nil
	case "none":
		return methodNone, nil
	}
	return 0, fmt.Errorf("unknown correction method %q (want auto, cbv, sff, or none)", s)
}

func parseMission(s string) (lightcurve.Mission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return lightcurve.MissionUnknown, nil
	case "kepler":
		return lightcurve.MissionKepler, nil
	case "k2":
		return lightcurve.MissionK2, nil
	}
	return 0, fmt.Errorf("unknown mission %q (want kepler, k2, or unknown)", s)
}

func run(input string, cfg *pipelineConfig, w io.Writer) error {
	mission, err := parseMission(cfg.Mission)
	if err != nil {
		return err
	}
	bm, err := quality.ParseBitmask(cfg.Bitmask)
	if err != nil {
		return err
	}
	choice, err := parseMethodChoice(cfg.Correction.Method)
	if err != nil {
		return err
	}

	columns, dropped, err := readCurve(input)
	if err != nil {
		return err
	}
	if dropped > 0 {
		fmt.Fprintf(os.Stderr, "warning: dropped %d rows without a finite time stamp\n", dropped)
	}

	raw, err := lightcurve.NewKepler(columns.time, columns.flux, columns.fluxErr,
		columns.centroidCol, columns.centroidRow)
	if err != nil {
		return err
	}
	raw.Quality = columns.quality
	raw.Mission = mission

	keep := make([]bool, raw.Len())
	for i := range keep {
		keep[i] = true
	}
	if len(raw.Quality) > 0 {
		keep = quality.Mask(raw.Quality, bm)
	}
	masked, err := raw.Select(keep)
	if err != nil {
		return err
	}
	if masked.Len() == 0 {
		return fmt.Errorf("bitmask %v excludes every cadence", bm)
	}

	// Basis vectors align with the raw cadences, so the quality mask must
	// drop the same rows from both.
	var set cbv.BasisVectorSet
	hasSet := false
	if cfg.Correction.CBVFile != "" {
		vectors, err := readBasisVectors(cfg.Correction.CBVFile)
		if err != nil {
			return err
		}
		if len(vectors[0]) != raw.Len() {
			return fmt.Errorf("basis vectors have %d rows, light curve has %d cadences",
				len(vectors[0]), raw.Len())
		}
		set, err = cbv.BasisVectorSet{Vectors: vectors}.Masked(keep)
		if err != nil {
			return err
		}
		hasSet = true
	}

	rep := &report{}
	rep.addf("input cadences", "%d", raw.Len())
	rep.addf("kept cadences", "%d (bitmask %v)", masked.Len(), bm)
	rep.addf("mission", "%v", masked.Mission)

	cdppCfg := cdpp.Config{TransitDuration: cfg.CDPP.TransitDuration}
	before, err := masked.CDPP(cdppCfg)
	if err != nil {
		return fmt.Errorf("cdpp: %w", err)
	}

	curve := masked
	backend, runCorrection := resolveChoice(choice, masked, hasSet)
	if !runCorrection {
		if choice == methodAuto {
			fmt.Fprintf(os.Stderr, "note: no basis vectors or centroids available; skipping correction\n")
		}
		rep.addf("correction", "none")
		rep.addf("cdpp [ppm]", "%.1f", before)
	} else {
		opts := []lightcurve.CorrectOption{
			lightcurve.WithMethod(backend),
			lightcurve.WithCBVConfig(cbv.Config{
				Vectors:   cfg.Correction.CBVVectors,
				L2Penalty: cfg.Correction.L2Penalty,
			}),
			lightcurve.WithSFFConfig(sff.Config{
				NIters:  cfg.Correction.NIters,
				Windows: cfg.Correction.Windows,
				Bins:    cfg.Correction.Bins,
			}),
		}
		if hasSet {
			opts = append(opts, lightcurve.WithBasisVectors(set))
		}
		curve, err = masked.Correct(opts...)
		if err != nil {
			return fmt.Errorf("correct: %w", err)
		}
		rep.addf("correction", "%v", backend)
		if c := curve.Correction; c != nil && c.CBV != nil {
			rep.addf("cbv coefficients", "%s", formatCoeffs(cfg.Correction.CBVVectors, c.CBV.Coeffs))
		}
		after, err := curve.CDPP(cdppCfg)
		if err != nil {
			return fmt.Errorf("cdpp after correction: %w", err)
		}
		rep.addf("cdpp before [ppm]", "%.1f", before)
		rep.addf("cdpp after [ppm]", "%.1f", after)
	}

	if cfg.Fold.Period > 0 {
		if err := foldSummary(curve, cfg.Fold, rep); err != nil {
			return err
		}
	}
	if cfg.Search.Enabled {
		if err := searchSummary(curve, cfg.Search, rep); err != nil {
			return err
		}
	}
	if cfg.Periodogram.Enabled {
		if err := periodogramSummary(curve, cfg.Periodogram, rep); err != nil {
			return err
		}
	}

	if err := rep.print(w); err != nil {
		return err
	}

	if cfg.Output.Corrected != "" {
		if err := writeCurve(cfg.Output.Corrected, curve); err != nil {
			return err
		}
	}
	return nil
}

// resolveChoice picks the backend for auto from the mission and the
// available inputs. The second result reports whether to correct at all.
func resolveChoice(choice methodChoice, masked *lightcurve.KeplerLightCurve, hasSet bool) (lightcurve.Method, bool) {
	switch choice {
	case methodCBV:
		return lightcurve.MethodCBV, true
	case methodSFF:
		return lightcurve.MethodSFF, true
	case methodNone:
		return 0, false
	}
	hasCentroids := len(masked.CentroidCol) > 0
	switch {
	case masked.Mission == lightcurve.MissionK2 && hasCentroids:
		return lightcurve.MethodSFF, true
	case masked.Mission == lightcurve.MissionKepler && hasSet:
		return lightcurve.MethodCBV, true
	case hasSet:
		return lightcurve.MethodCBV, true
	case hasCentroids:
		return lightcurve.MethodSFF, true
	}
	return 0, false
}

// foldSummary reports the drop of the folded flux around phase zero below
// the median level.
func foldSummary(curve *lightcurve.KeplerLightCurve, cfg foldConfig, rep *report) error {
	folded, err := curve.Fold(cfg.Period, cfg.Phase)
	if err != nil {
		return fmt.Errorf("fold: %w", err)
	}
	window := 0.05 * cfg.Period
	core := make([]float64, 0, folded.Len())
	for i, t := range folded.Time {
		if math.Abs(t) <= window {
			core = append(core, folded.Flux[i])
		}
	}
	rep.addf("fold period [d]", "%g", cfg.Period)
	if len(core) == 0 {
		rep.addf("fold depth at phase 0", "no samples near phase zero")
		return nil
	}
	depth := robust.Median(folded.Flux) - robust.Mean(core)
	rep.addf("fold depth at phase 0", "%.6g (%d samples)", depth, len(core))
	return nil
}

func searchSummary(curve *lightcurve.KeplerLightCurve, cfg searchConfig, rep *report) error {
	scale, err := boxsearch.ParseScale(cfg.Scale)
	if err != nil {
		return err
	}
	res, err := boxsearch.Search(&curve.LightCurve, boxsearch.Config{
		MinPeriod: cfg.MinPeriod,
		MaxPeriod: cfg.MaxPeriod,
		NPeriods:  cfg.NPeriods,
		Bins:      cfg.Bins,
		Scale:     scale,
	})
	if err != nil {
		return fmt.Errorf("period search: %w", err)
	}
	rep.addf("search best period [d]", "%.6g", res.BestPeriod)
	rep.addf("search best score", "%.1f", res.BestScore)
	rep.addf("search best depth", "%.6g", res.BestDepth)
	return nil
}

func periodogramSummary(curve *lightcurve.KeplerLightCurve, cfg periodogramConfig, rep *report) error {
	taperType, err := taper.ParseType(cfg.Taper)
	if err != nil {
		return err
	}
	res, err := periodogram.Compute(curve.Time, curve.Flux, periodogram.Config{
		Oversample: cfg.Oversample,
		Taper:      taperType,
	})
	if err != nil {
		return fmt.Errorf("periodogram: %w", err)
	}
	rep.addf("median cadence [d]", "%.6g", res.Cadence)
	rep.addf("peak frequency [1/d]", "%.6g", res.PeakFrequency)
	rep.addf("peak amplitude [ppm]", "%.1f", res.PeakAmplitude)
	return nil
}

func formatCoeffs(numbers []int, coeffs []float64) string {
	if len(numbers) == 0 {
		numbers = []int{1, 2}
	}
	var b strings.Builder
	for i, c := range coeffs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "v%d=%.4f", numbers[i], c)
	}
	return b.String()
}

// report is an ordered metric table printed through a tabwriter.
type report struct {
	rows [][2]string
}

func (r *report) addf(name, format string, args ...any) {
	r.rows = append(r.rows, [2]string{name, fmt.Sprintf(format, args...)})
}

func (r *report) print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Metric\tValue\n------\t-----\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	for _, row := range r.rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
