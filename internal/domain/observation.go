package domain

import "time"

// Observation is one monthly mean sea level value with its derived fields.
type Observation struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	MSLMeters float64    `json:"msl_m"`

	// Unverified is nil when the column is absent, empty, or not numeric.
	Unverified *float64 `json:"unverified,omitempty"`

	Date     time.Time `json:"date"`
	MSLFeet  float64   `json:"msl_ft"`
	MLLWFeet float64   `json:"mllw_ft"`
}

// Station carries the per-gauge configuration needed to load and plot a series.
type Station struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	MLLWOffsetFeet float64 `json:"mllw_offset_ft" yaml:"mllw_offset_ft"`
	MSLColumn      string  `json:"msl_column,omitempty" yaml:"msl_column,omitempty"`
}

// DefaultStation is the gauge the reference graphic was drawn for.
var DefaultStation = Station{
	ID:             "8418150",
	Name:           "Portland, ME",
	MLLWOffsetFeet: 4.94,
	MSLColumn:      "Monthly_MSL",
}

// NewObservation builds an Observation and derives its date and datum-converted
// heights for the given station.
func NewObservation(year int, month time.Month, mslMeters float64, unverified *float64, station Station) Observation {
	feet := MetersToFeet(mslMeters)
	return Observation{
		Year:       year,
		Month:      month,
		MSLMeters:  mslMeters,
		Unverified: unverified,
		Date:       MonthDate(year, month),
		MSLFeet:    feet,
		MLLWFeet:   FeetToMLLW(feet, station.MLLWOffsetFeet),
	}
}

// MonthDate anchors a (year, month) pair to the 15th of that month, 00:00 UTC.
func MonthDate(year int, month time.Month) time.Time {
	return time.Date(year, month, ReferenceDay, 0, 0, 0, 0, time.UTC)
}

// DaysSinceEpoch returns t as fractional days since 1970-01-01 UTC.
func DaysSinceEpoch(t time.Time) float64 {
	return float64(t.Unix()) / secondsPerDay
}

// monthIndex maps (year, month) onto a single increasing integer.
func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}
