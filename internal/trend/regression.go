package trend

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// numCoef is the number of regression coefficients (intercept and slope).
const numCoef = 2

var (
	errTooFew   = errors.New("at least 3 observations are required")
	errSingular = errors.New("design matrix is singular (all dates equal?)")
	errPhiRange = errors.New("phi must be in (-1, 1)")
)

// series is the regression input: centered day numbers and heights in meters.
type series struct {
	x     []float64
	y     []float64
	xMean float64
}

func newSeries(obs []domain.Observation) series {
	s := series{
		x: make([]float64, len(obs)),
		y: make([]float64, len(obs)),
	}
	for i, o := range obs {
		s.x[i] = domain.DaysSinceEpoch(o.Date)
		s.y[i] = o.MSLMeters
	}
	s.xMean = stat.Mean(s.x, nil)
	for i := range s.x {
		s.x[i] -= s.xMean
	}
	return s
}

// whitenedFit is the regression solved for one value of phi.
type whitenedFit struct {
	phi       float64
	intercept float64 // at the mean date
	slope     float64
	rss       float64
	cov       *mat.SymDense // (Z'Z)^-1, unscaled
	logDetZtZ float64
}

// fitAtPhi whitens the series for phi and solves the normal equations.
func fitAtPhi(s series, phi float64) (whitenedFit, error) {
	if phi <= -1 || phi >= 1 || math.IsNaN(phi) {
		return whitenedFit{}, errPhiRange
	}
	n := len(s.y)
	if n <= numCoef {
		return whitenedFit{}, errTooFew
	}

	head := math.Sqrt(1 - phi*phi)
	z0 := make([]float64, n)
	z1 := make([]float64, n)
	zy := make([]float64, n)
	z0[0], z1[0], zy[0] = head, head*s.x[0], head*s.y[0]
	for t := 1; t < n; t++ {
		z0[t] = 1 - phi
		z1[t] = s.x[t] - phi*s.x[t-1]
		zy[t] = s.y[t] - phi*s.y[t-1]
	}

	var a00, a01, a11, b0, b1 float64
	for t := 0; t < n; t++ {
		a00 += z0[t] * z0[t]
		a01 += z0[t] * z1[t]
		a11 += z1[t] * z1[t]
		b0 += z0[t] * zy[t]
		b1 += z1[t] * zy[t]
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(numCoef, []float64{a00, a01, a01, a11})); !ok {
		return whitenedFit{}, errSingular
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, mat.NewVecDense(numCoef, []float64{b0, b1})); err != nil {
		return whitenedFit{}, errSingular
	}
	cov := mat.NewSymDense(numCoef, nil)
	if err := chol.InverseTo(cov); err != nil {
		return whitenedFit{}, errSingular
	}

	f := whitenedFit{
		phi:       phi,
		intercept: beta.AtVec(0),
		slope:     beta.AtVec(1),
		cov:       cov,
		logDetZtZ: chol.LogDet(),
	}
	for t := 0; t < n; t++ {
		r := zy[t] - f.intercept*z0[t] - f.slope*z1[t]
		f.rss += r * r
	}
	return f, nil
}

// dof is the residual degrees of freedom.
func (f whitenedFit) dof(n int) float64 {
	return float64(n - numCoef)
}

// negRestrictedLogLik is -2 times the profiled REML log-likelihood without
// the constant term. It is the quantity the optimizer minimizes.
func (f whitenedFit) negRestrictedLogLik(n int) float64 {
	nu := f.dof(n)
	return nu*math.Log(f.rss/nu) - math.Log(1-f.phi*f.phi) + f.logDetZtZ
}

// restrictedLogLik is the REML log-likelihood including its constant.
func (f whitenedFit) restrictedLogLik(n int) float64 {
	nu := f.dof(n)
	return -0.5 * (f.negRestrictedLogLik(n) + nu*(math.Log(2*math.Pi)+1))
}

// estimate converts the fit to the domain representation.
func (f whitenedFit) estimate(s series, method string) domain.TrendEstimate {
	n := len(s.y)
	innovationVar := f.rss / f.dof(n)
	return domain.TrendEstimate{
		Method:       method,
		SlopePerDay:  f.slope,
		StderrPerDay: math.Sqrt(innovationVar * f.cov.At(1, 1)),
		Intercept:    f.intercept - f.slope*s.xMean,
		Phi:          f.phi,
		Sigma:        math.Sqrt(innovationVar / (1 - f.phi*f.phi)),
		LogLik:       f.restrictedLogLik(n),
		N:            n,
	}
}

// lag1Autocorrelation of the residuals y - (a + b x), used to seed the search.
func lag1Autocorrelation(s series, a, b float64) float64 {
	n := len(s.y)
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = s.y[i] - a - b*s.x[i]
	}
	mean := stat.Mean(resid, nil)
	var num, den float64
	for i := 0; i < n; i++ {
		d := resid[i] - mean
		den += d * d
		if i > 0 {
			num += d * (resid[i-1] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}
