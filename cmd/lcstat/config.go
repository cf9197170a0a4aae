package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type correctionConfig struct {
	// Method is auto, cbv, sff, or none.
	Method string `yaml:"method"`
	// NIters, Windows, and Bins tune the self-flat-fielding backend.
	NIters  int `yaml:"niters"`
	Windows int `yaml:"windows"`
	Bins    int `yaml:"bins"`
	// CBVFile is a CSV of per-cadence basis vector columns aligned with the
	// input rows. CBVVectors selects 1-based columns; empty means 1 and 2.
	CBVFile    string  `yaml:"cbv_file"`
	CBVVectors []int   `yaml:"cbv_vectors"`
	L2Penalty  float64 `yaml:"l2_penalty"`
}

type cdppConfig struct {
	// TransitDuration is the sliding-window length in cadences; 0 keeps the
	// estimator default.
	TransitDuration int `yaml:"transit_duration"`
}

type foldConfig struct {
	// Period in time-axis units enables the fold summary; 0 disables it.
	Period float64 `yaml:"period"`
	// Phase shifts the fold epoch as a fraction of the period.
	Phase float64 `yaml:"phase"`
}

type searchConfig struct {
	Enabled   bool    `yaml:"enabled"`
	MinPeriod float64 `yaml:"min_period"`
	MaxPeriod float64 `yaml:"max_period"`
	NPeriods  int     `yaml:"nperiods"`
	Bins      int     `yaml:"bins"`
	// Scale is log or linear.
	Scale string `yaml:"scale"`
}

type periodogramConfig struct {
	Enabled    bool `yaml:"enabled"`
	Oversample int  `yaml:"oversample"`
	// Taper is rectangular, hann, hamming, or tukey.
	Taper string `yaml:"taper"`
}

type outputConfig struct {
	// Corrected is the path the corrected curve CSV is written to.
	Corrected string `yaml:"corrected"`
}

// pipelineConfig is the top-level structure of the -config YAML file. Keys
// absent from the file keep the defaults.
type pipelineConfig struct {
	// Mission is kepler, k2, or unknown. It picks the default correction
	// backend when the method is auto.
	Mission string `yaml:"mission"`
	// Bitmask is a quality strictness level (none, default, hard, hardest)
	// or a raw integer mask.
	Bitmask     string            `yaml:"bitmask"`
	Correction  correctionConfig  `yaml:"correction"`
	CDPP        cdppConfig        `yaml:"cdpp"`
	Fold        foldConfig        `yaml:"fold"`
	Search      searchConfig      `yaml:"search"`
	Periodogram periodogramConfig `yaml:"periodogram"`
	Output      outputConfig      `yaml:"output"`
}

func defaultConfig() *pipelineConfig {
	return &pipelineConfig{
		Mission:     "unknown",
		Bitmask:     "default",
		Correction:  correctionConfig{Method: "auto"},
		Periodogram: periodogramConfig{Enabled: true},
	}
}

// loadConfig reads a pipeline YAML file over the defaults.
func loadConfig(path string) (*pipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	return cfg, nil
}
