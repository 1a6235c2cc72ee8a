// internal/morse/estimator.go
package morse

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimingProfile is the unit-duration calibration used to classify runs.
type TimingProfile struct {
	// UnitsPerDot is the estimated number of noise units in one dot
	UnitsPerDot float64
	// Tolerance is the classification band half-width, UnitsPerDot / 3
	Tolerance float64
	// SecondsPerUnit is the wall-clock duration of one noise unit
	SecondsPerUnit float64
}

// NewTimingProfile builds a profile for a known dot length in units.
func NewTimingProfile(unitsPerDot, secondsPerUnit float64) TimingProfile {
	return TimingProfile{
		UnitsPerDot:    unitsPerDot,
		Tolerance:      unitsPerDot / ToleranceDivisor,
		SecondsPerUnit: secondsPerUnit,
	}
}

// ProfileFromWPM derives the profile a sender at the given speed would
// produce when each unit lasts secondsPerUnit.
func ProfileFromWPM(wpm int, secondsPerUnit float64) (TimingProfile, error) {
	if wpm <= 0 {
		return TimingProfile{}, ErrInvalidWPM
	}
	dotsPerUnit := float64(wpm) * secondsPerUnit / SecondsPerMinute * DitsPerWord
	return NewTimingProfile(1/dotsPerUnit, secondsPerUnit), nil
}

// WPM converts the profile back into words per minute (PARIS standard).
func (p TimingProfile) WPM() int {
	if p.UnitsPerDot <= 0 || p.SecondsPerUnit <= 0 {
		return 0
	}
	dotsPerSec := (1 / p.SecondsPerUnit) * (1 / p.UnitsPerDot)
	return int(math.Round(dotsPerSec * SecondsPerMinute / DitsPerWord))
}

// DotDuration is the wall-clock length of one dot.
func (p TimingProfile) DotDuration() time.Duration {
	return time.Duration(p.UnitsPerDot * p.SecondsPerUnit * float64(time.Second))
}

// ToneRunLengths returns the lengths of the tone runs in a smoothed
// sequence. Silence lengths are discarded.
func ToneRunLengths(smoothed []bool) []float64 {
	var lengths []float64
	for _, r := range Runs(smoothed) {
		if r.Kind == Tone {
			lengths = append(lengths, float64(r.Len))
		}
	}
	return lengths
}

// EstimateUnitsPerDot averages the tone runs shorter than the mean tone run.
// It assumes dashes are the longer minority; dash-heavy or very short
// messages skew the mean. No outliers are rejected.
func EstimateUnitsPerDot(toneLengths []float64) (float64, error) {
	if len(toneLengths) == 0 {
		return 0, fmt.Errorf("%w: no tone runs", ErrEstimationUndefined)
	}
	toneAvg := stat.Mean(toneLengths, nil)

	var dots []float64
	for _, l := range toneLengths {
		if l < toneAvg && l != 0 {
			dots = append(dots, l)
		}
	}
	if len(dots) == 0 {
		return 0, fmt.Errorf("%w: %d tone runs, none below mean %.2f",
			ErrEstimationUndefined, len(toneLengths), toneAvg)
	}
	return stat.Mean(dots, nil), nil
}

// Estimate derives a timing profile from a smoothed unit sequence.
func Estimate(smoothed []bool, secondsPerUnit float64) (TimingProfile, error) {
	unitsPerDot, err := EstimateUnitsPerDot(ToneRunLengths(smoothed))
	if err != nil {
		return TimingProfile{}, err
	}
	return NewTimingProfile(unitsPerDot, secondsPerUnit), nil
}

// EstimateBuffer smooths a snapshot of the buffer and estimates from it.
func EstimateBuffer(b *NoiseBuffer, secondsPerUnit float64) (TimingProfile, error) {
	return Estimate(b.Smoothed(), secondsPerUnit)
}
