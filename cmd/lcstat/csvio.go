package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// curveColumns holds the parsed light curve CSV. Optional series are nil
// when the column layout omits them.
type curveColumns struct {
	time        []float64
	flux        []float64
	fluxErr     []float64
	centroidCol []float64
	centroidRow []float64
	quality     []uint32
}

// readCurve parses a light curve CSV. The column count selects the layout:
//
//	2  time,flux
//	3  time,flux,flux_err
//	5  time,flux,flux_err,centroid_col,centroid_row
//	6  time,flux,flux_err,centroid_col,centroid_row,quality
//
// A header row is detected by a non-numeric first field. Empty numeric
// fields read as NaN. Rows without a finite time stamp are dropped; the
// second return value counts them.
func readCurve(path string) (*curveColumns, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open light curve: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("light curve %s is empty", path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read light curve: %w", err)
	}
	switch len(first) {
	case 2, 3, 5, 6:
	default:
		return nil, 0, fmt.Errorf("light curve %s has %d columns, want 2, 3, 5, or 6", path, len(first))
	}

	out := &curveColumns{}
	line := 1
	skipped := 0
	if _, err := strconv.ParseFloat(first[0], 64); err == nil {
		// No header; the first record is data.
		ok, err := out.appendRecord(first, line)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			skipped++
		}
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read light curve: %w", err)
		}
		line++
		ok, err := out.appendRecord(rec, line)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			skipped++
		}
	}
	if len(out.time) == 0 {
		return nil, 0, fmt.Errorf("light curve %s has no usable rows", path)
	}
	return out, skipped, nil
}

// appendRecord parses one data row. It reports false without error for rows
// dropped over a missing time stamp.
func (c *curveColumns) appendRecord(rec []string, line int) (bool, error) {
	t, err := parseField(rec[0])
	if err != nil {
		return false, fmt.Errorf("light curve line %d: time: %w", line, err)
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false, nil
	}
	flux, err := parseField(rec[1])
	if err != nil {
		return false, fmt.Errorf("light curve line %d: flux: %w", line, err)
	}
	c.time = append(c.time, t)
	c.flux = append(c.flux, flux)

	if len(rec) >= 3 {
		v, err := parseField(rec[2])
		if err != nil {
			return false, fmt.Errorf("light curve line %d: flux_err: %w", line, err)
		}
		c.fluxErr = append(c.fluxErr, v)
	}
	if len(rec) >= 5 {
		col, err := parseField(rec[3])
		if err != nil {
			return false, fmt.Errorf("light curve line %d: centroid_col: %w", line, err)
		}
		row, err := parseField(rec[4])
		if err != nil {
			return false, fmt.Errorf("light curve line %d: centroid_row: %w", line, err)
		}
		c.centroidCol = append(c.centroidCol, col)
		c.centroidRow = append(c.centroidRow, row)
	}
	if len(rec) >= 6 {
		q := uint64(0)
		if rec[5] != "" {
			q, err = strconv.ParseUint(rec[5], 0, 32)
			if err != nil {
				return false, fmt.Errorf("light curve line %d: quality %q: %w", line, rec[5], err)
			}
		}
		c.quality = append(c.quality, uint32(q))
	}
	return true, nil
}

// readBasisVectors parses a CSV of per-cadence basis vector columns, one
// column per vector, optionally headed, and returns them column-major.
func readBasisVectors(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open basis vectors: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("basis vector file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read basis vectors: %w", err)
	}

	vectors := make([][]float64, len(first))
	line := 1
	if _, err := strconv.ParseFloat(first[0], 64); err == nil {
		if err := appendVectorRow(vectors, first, line); err != nil {
			return nil, err
		}
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read basis vectors: %w", err)
		}
		line++
		if err := appendVectorRow(vectors, rec, line); err != nil {
			return nil, err
		}
	}
	if len(vectors[0]) == 0 {
		return nil, fmt.Errorf("basis vector file %s has no data rows", path)
	}
	return vectors, nil
}

func appendVectorRow(vectors [][]float64, rec []string, line int) error {
	for j, field := range rec {
		v, err := parseField(field)
		if err != nil {
			return fmt.Errorf("basis vectors line %d, column %d: %w", line, j+1, err)
		}
		vectors[j] = append(vectors[j], v)
	}
	return nil
}

// writeCurve writes the curve as a CSV with a header row. The layout widens
// to cover the widest series present, filling absent intermediate columns
// with empty fields so the file reads back under the same conventions.
func writeCurve(path string, k *lightcurve.KeplerLightCurve) error {
	hasErr := k.FluxErr != nil
	hasCentroid := k.CentroidCol != nil
	hasQuality := len(k.Quality) > 0

	header := []string{"time", "flux"}
	if hasErr || hasCentroid || hasQuality {
		header = append(header, "flux_err")
	}
	if hasCentroid || hasQuality {
		header = append(header, "centroid_col", "centroid_row")
	}
	if hasQuality {
		header = append(header, "quality")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	rec := make([]string, len(header))
	for i := 0; i < k.Len(); i++ {
		rec = rec[:0]
		rec = append(rec, formatField(k.Time[i]), formatField(k.Flux[i]))
		if hasErr {
			rec = append(rec, formatField(k.FluxErr[i]))
		} else if hasCentroid || hasQuality {
			rec = append(rec, "")
		}
		if hasCentroid {
			rec = append(rec, formatField(k.CentroidCol[i]), formatField(k.CentroidRow[i]))
		} else if hasQuality {
			rec = append(rec, "", "")
		}
		if hasQuality {
			rec = append(rec, strconv.FormatUint(uint64(k.Quality[i]), 10))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("write output: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// parseField reads a float field; empty means NaN.
func parseField(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// formatField renders a float field; NaN means empty.
func formatField(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
