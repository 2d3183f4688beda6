package domain

import "fmt"

// Estimation methods recorded on a TrendEstimate.
const (
	MethodGLSAR1 = "gls_ar1"
	MethodOLS    = "ols"
)

// TrendEstimate is the slope of mean sea level on date, in meters per day,
// together with the quantities the fit produced alongside it.
type TrendEstimate struct {
	Method       string  `json:"method"`
	SlopePerDay  float64 `json:"slope_per_day"`
	StderrPerDay float64 `json:"stderr_per_day"`
	Intercept    float64 `json:"intercept"`
	Phi          float64 `json:"phi"`
	Sigma        float64 `json:"sigma"`
	LogLik       float64 `json:"log_lik"`
	N            int     `json:"n"`
}

// AnnualRateMM is the trend in millimeters per year.
func (e TrendEstimate) AnnualRateMM() float64 {
	return e.SlopePerDay * DaysPerYear * MillimetersPerMeter
}

// AnnualCI95MM is the 95% half-width of AnnualRateMM.
func (e TrendEstimate) AnnualCI95MM() float64 {
	return Z95 * e.StderrPerDay * DaysPerYear * MillimetersPerMeter
}

// DecadeRateIn is the trend in inches per decade.
func (e TrendEstimate) DecadeRateIn() float64 {
	return e.SlopePerDay * DaysPerYear * InchesPerMeter * YearsPerDecade
}

// DecadeCI95In is the 95% half-width of DecadeRateIn.
func (e TrendEstimate) DecadeCI95In() float64 {
	return Z95 * e.StderrPerDay * DaysPerYear * InchesPerMeter * YearsPerDecade
}

// ScaledRate returns the rate in the unit system's annotation unit.
func (e TrendEstimate) ScaledRate(u Units) float64 {
	if u == UnitsMetric {
		return e.AnnualRateMM()
	}
	return e.DecadeRateIn()
}

// ScaledCI95 returns the 95% half-width in the unit system's annotation unit.
func (e TrendEstimate) ScaledCI95(u Units) float64 {
	if u == UnitsMetric {
		return e.AnnualCI95MM()
	}
	return e.DecadeCI95In()
}

// Annotation formats the rate and interval the way the chart prints it,
// e.g. "Trend: +0.74 ± 0.04 in/decade".
func (e TrendEstimate) Annotation(u Units) string {
	return fmt.Sprintf("Trend: %+.2f ± %.2f %s", e.ScaledRate(u), e.ScaledCI95(u), u.RateLabel())
}
