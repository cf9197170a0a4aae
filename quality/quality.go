package quality

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

// ErrInvalidParameter indicates a bitmask string that is neither a known
// level name nor an integer.
var ErrInvalidParameter = errors.New("quality: invalid parameter")

// Flag is a single Kepler quality condition, one bit per flag as documented
// in the mission archive manual. Bit 10 is reserved and never set.
type Flag uint32

const (
	AttitudeTweak Flag = 1 << iota
	SafeMode
	CoarsePoint
	EarthPoint
	ZeroCrossing
	Desat
	Argabrightening
	ApertureCosmic
	ManualExclude
	_
	SensitivityDropout
	ImpulsiveOutlier
	ArgabrighteningOnCCD
	CollateralCosmic
	DetectorAnomaly
	NoFinePoint
	NoData
	RollingBandInAperture
	RollingBandInMask
	PossibleThrusterFiring
	ThrusterFiring
)

var flagNames = map[Flag]string{
	AttitudeTweak:          "attitude tweak",
	SafeMode:               "safe mode",
	CoarsePoint:            "coarse point",
	EarthPoint:             "earth point",
	ZeroCrossing:           "zero crossing",
	Desat:                  "desaturation event",
	Argabrightening:        "argabrightening",
	ApertureCosmic:         "cosmic ray in aperture",
	ManualExclude:          "manual exclude",
	SensitivityDropout:     "sensitivity dropout",
	ImpulsiveOutlier:       "impulsive outlier",
	ArgabrighteningOnCCD:   "argabrightening on CCD",
	CollateralCosmic:       "cosmic ray in collateral data",
	DetectorAnomaly:        "detector anomaly",
	NoFinePoint:            "no fine point",
	NoData:                 "no data",
	RollingBandInAperture:  "rolling band in aperture",
	RollingBandInMask:      "rolling band in mask",
	PossibleThrusterFiring: "possible thruster firing",
	ThrusterFiring:         "thruster firing",
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return "0x" + strconv.FormatUint(uint64(f), 16)
}

// Bitmask selects the quality conditions that disqualify a cadence. A
// cadence is kept when its flags share no bit with the mask.
type Bitmask uint32

const (
	// BitmaskNone keeps every cadence.
	BitmaskNone Bitmask = 0

	// BitmaskDefault excludes the conditions the mission pipeline treats
	// as unusable data.
	BitmaskDefault = Bitmask(AttitudeTweak | SafeMode | CoarsePoint | EarthPoint |
		Desat | ApertureCosmic | ManualExclude | DetectorAnomaly | NoData |
		ThrusterFiring)

	// BitmaskHard adds conditions that mark suspect but often usable
	// cadences.
	BitmaskHard = BitmaskDefault | Bitmask(SensitivityDropout|CollateralCosmic|
		PossibleThrusterFiring)

	// BitmaskHardest excludes every defined flag, keeping only cadences
	// with a clean quality word.
	BitmaskHardest = BitmaskHard | Bitmask(ZeroCrossing|Argabrightening|
		ImpulsiveOutlier|ArgabrighteningOnCCD|NoFinePoint|
		RollingBandInAperture|RollingBandInMask)
)

func (b Bitmask) String() string {
	switch b {
	case BitmaskNone:
		return "none"
	case BitmaskDefault:
		return "default"
	case BitmaskHard:
		return "hard"
	case BitmaskHardest:
		return "hardest"
	}
	return strconv.FormatUint(uint64(b), 10)
}

// ParseBitmask reads a strictness level by name (none, default, hard,
// hardest) or as a raw integer, decimal or 0x-prefixed.
func ParseBitmask(s string) (Bitmask, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "none":
		return BitmaskNone, nil
	case "default":
		return BitmaskDefault, nil
	case "hard":
		return BitmaskHard, nil
	case "hardest":
		return BitmaskHardest, nil
	}
	v, err := strconv.ParseUint(name, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is neither a level name nor an integer", ErrInvalidParameter, s)
	}
	return Bitmask(v), nil
}

// Mask returns a keep mask over a quality series: true where the cadence
// shares no flag with the bitmask.
func Mask(qualityFlags []uint32, bm Bitmask) []bool {
	keep := make([]bool, len(qualityFlags))
	for i, q := range qualityFlags {
		keep[i] = q&uint32(bm) == 0
	}
	return keep
}

// Apply removes the cadences whose quality flags match the bitmask and
// returns the filtered curve. A curve without quality flags has nothing to
// exclude and comes back complete.
func Apply(k *lightcurve.KeplerLightCurve, bm Bitmask) (*lightcurve.KeplerLightCurve, error) {
	if len(k.Quality) == 0 {
		keep := make([]bool, k.Len())
		for i := range keep {
			keep[i] = true
		}
		return k.Select(keep)
	}
	return k.Select(Mask(k.Quality, bm))
}
