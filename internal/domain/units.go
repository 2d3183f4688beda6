package domain

import (
	"fmt"
	"strings"
)

// Physical unit constants. These are fixed by the reference values and must
// not be replaced with more precise ones.
const (
	FeetPerMeter        = 3.28084
	InchesPerMeter      = 39.3701
	MillimetersPerMeter = 1000.0
	DaysPerYear         = 365.25
	YearsPerDecade      = 10.0

	// Z95 is the two-sided 95% normal quantile used for every reported interval.
	Z95 = 1.96

	ReferenceDay = 15

	secondsPerDay = 86400.0
)

// MetersToFeet converts a height in meters to feet.
func MetersToFeet(m float64) float64 {
	return m * FeetPerMeter
}

// FeetToMLLW shifts an MSL-relative height in feet onto the MLLW datum.
func FeetToMLLW(feet, offsetFeet float64) float64 {
	return feet + offsetFeet
}

// Units selects the unit system a chart is drawn and annotated in.
type Units string

const (
	// UnitsImperial plots feet above MLLW and annotates inches per decade.
	UnitsImperial Units = "imperial"
	// UnitsMetric plots meters relative to MSL and annotates millimeters per year.
	UnitsMetric Units = "metric"
)

// ParseUnits accepts "imperial" or "metric", case-insensitively.
func ParseUnits(s string) (Units, error) {
	switch u := Units(strings.ToLower(strings.TrimSpace(s))); u {
	case UnitsImperial, UnitsMetric:
		return u, nil
	default:
		return "", fmt.Errorf("unknown units %q (want imperial or metric)", s)
	}
}

// RateLabel is the unit suffix used when printing a scaled rate.
func (u Units) RateLabel() string {
	if u == UnitsMetric {
		return "mm/yr"
	}
	return "in/decade"
}

// AxisLabel is the y-axis caption for a chart drawn in these units.
func (u Units) AxisLabel() string {
	if u == UnitsMetric {
		return "Monthly mean sea level (m, MSL)"
	}
	return "Monthly mean sea level (ft, MLLW)"
}

// Height picks the observation height matching the unit system.
func (u Units) Height(o Observation) float64 {
	if u == UnitsMetric {
		return o.MSLMeters
	}
	return o.MLLWFeet
}

// ChartSpec describes one chart variant: its rolling-mean window in months
// and the unit system it is drawn in.
type ChartSpec struct {
	Name   string
	Window int
	Units  Units
}
