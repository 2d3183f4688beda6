// Package synth generates synthetic monthly mean sea level series with a known
// linear trend, for fixtures and statistical tests.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// Params describes a synthetic series.
type Params struct {
	StartYear  int
	StartMonth time.Month
	Months     int

	// RateMMPerYear is the injected linear trend.
	RateMMPerYear float64
	// NoiseMM is the marginal standard deviation of the residuals.
	NoiseMM float64
	// Phi is the lag-1 autocorrelation of the residuals; 0 gives white noise.
	Phi float64
	// SeasonalMM is the amplitude of an annual cycle peaking in late summer.
	SeasonalMM float64
	// OffsetM is the level at the first month.
	OffsetM float64

	// Skip lists zero-based month indices to leave out, producing gaps.
	Skip []int

	Seed uint64
}

// DefaultParams is a ten year white-noise series rising 2 mm/yr.
func DefaultParams() Params {
	return Params{
		StartYear:     2010,
		StartMonth:    time.January,
		Months:        120,
		RateMMPerYear: 2,
		NoiseMM:       30,
		Seed:          1,
	}
}

// Generate builds the observations described by p for station.
func Generate(p Params, station domain.Station) ([]domain.Observation, error) {
	if p.Months < 1 {
		return nil, fmt.Errorf("months must be positive, got %d", p.Months)
	}
	if p.Phi <= -1 || p.Phi >= 1 {
		return nil, fmt.Errorf("phi must be in (-1, 1), got %g", p.Phi)
	}
	if p.StartMonth < time.January || p.StartMonth > time.December {
		return nil, fmt.Errorf("start month %d out of range", p.StartMonth)
	}

	skip := make(map[int]bool, len(p.Skip))
	for _, i := range p.Skip {
		skip[i] = true
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	sigma := p.NoiseMM / domain.MillimetersPerMeter
	innovation := sigma * math.Sqrt(1-p.Phi*p.Phi)
	slope := p.RateMMPerYear / domain.MillimetersPerMeter / domain.DaysPerYear

	origin := domain.MonthDate(p.StartYear, p.StartMonth)
	obs := make([]domain.Observation, 0, p.Months)
	noise := sigma * rng.NormFloat64()
	for i := 0; i < p.Months; i++ {
		if i > 0 {
			noise = p.Phi*noise + innovation*rng.NormFloat64()
		}
		if skip[i] {
			continue
		}

		date := origin.AddDate(0, i, 0)
		days := domain.DaysSinceEpoch(date) - domain.DaysSinceEpoch(origin)
		seasonal := p.SeasonalMM / domain.MillimetersPerMeter * math.Cos(2*math.Pi*(float64(date.Month())-8)/12)
		msl := p.OffsetM + slope*days + seasonal + noise

		obs = append(obs, domain.NewObservation(date.Year(), date.Month(), msl, nil, station))
	}
	return obs, nil
}

// WriteCSV writes observations in the NOAA extract layout. The Unverified
// column is written empty unless a value is present.
func WriteCSV(w io.Writer, obs []domain.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Year", "Month", "Monthly_MSL", "Unverified"}); err != nil {
		return err
	}
	for _, o := range obs {
		unverified := ""
		if o.Unverified != nil {
			unverified = strconv.FormatFloat(*o.Unverified, 'f', -1, 64)
		}
		row := []string{
			strconv.Itoa(o.Year),
			strconv.Itoa(int(o.Month)),
			strconv.FormatFloat(o.MSLMeters, 'f', -1, 64),
			unverified,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
