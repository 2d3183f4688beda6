package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrWindow is returned by RollingMean for a window smaller than one.
var ErrWindow = errors.New("rolling window must be at least 1")

// ValidateSeries checks that observations are in strictly increasing
// (year, month) order. Months outside 1..12 and duplicates are rejected.
func ValidateSeries(obs []Observation) error {
	for i, o := range obs {
		if o.Month < 1 || o.Month > 12 {
			return &DataFormatError{Column: "Month", Err: fmt.Errorf("row %d: month %d out of range 1..12", i+1, o.Month)}
		}
		if i == 0 {
			continue
		}
		prev := obs[i-1]
		cur, last := monthIndex(o.Year, o.Month), monthIndex(prev.Year, prev.Month)
		switch {
		case cur == last:
			return &DataFormatError{Err: fmt.Errorf("row %d: duplicate observation for %d-%02d", i+1, o.Year, o.Month)}
		case cur < last:
			return &DataFormatError{Err: fmt.Errorf("row %d: %d-%02d precedes %d-%02d", i+1, o.Year, o.Month, prev.Year, prev.Month)}
		}
	}
	return nil
}

// CountGaps returns the number of calendar months missing between the first
// and last observation. The input must already satisfy ValidateSeries.
func CountGaps(obs []Observation) int {
	if len(obs) < 2 {
		return 0
	}
	first, last := obs[0], obs[len(obs)-1]
	span := monthIndex(last.Year, last.Month) - monthIndex(first.Year, first.Month) + 1
	return span - len(obs)
}

// RollingMean returns the centered moving average of values over window
// consecutive points. The window for index i starts at i-(window-1)/2, so an
// even window leans one point to the right. Positions whose window would
// extend past either end of the series are NaN; partial windows are never
// averaged.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, ErrWindow
	}
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window > len(values) {
		return out, nil
	}

	lead := (window - 1) / 2
	for start := 0; start+window <= len(values); start++ {
		sum := 0.0
		for _, v := range values[start : start+window] {
			sum += v
		}
		out[start+lead] = sum / float64(window)
	}
	return out, nil
}
