package trend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// degenerateRSS is the residual share of total variation below which a
// series is treated as an exact line with no noise to model.
const degenerateRSS = 1e-20

// Options tunes the AR(1) coefficient search.
type Options struct {
	// MaxIterations bounds the optimizer's major iterations.
	MaxIterations int
	// PhiLimit rejects estimates with |phi| at or beyond it as degenerate.
	PhiLimit float64
}

// DefaultOptions returns the settings used for reports.
func DefaultOptions() Options {
	return Options{MaxIterations: 200, PhiLimit: 0.999}
}

// Estimator fits the GLS AR(1) trend. It implements pipeline.Estimator.
type Estimator struct {
	opts Options
}

// NewEstimator creates an Estimator. Zero fields in opts take their defaults.
func NewEstimator(opts Options) *Estimator {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.PhiLimit <= 0 || opts.PhiLimit >= 1 {
		opts.PhiLimit = def.PhiLimit
	}
	return &Estimator{opts: opts}
}

// Fit estimates the trend of MSLMeters on date with AR(1) errors, choosing
// phi by restricted maximum likelihood.
func (e *Estimator) Fit(ctx context.Context, obs []domain.Observation) (domain.TrendEstimate, error) {
	if err := ctx.Err(); err != nil {
		return domain.TrendEstimate{}, err
	}
	fail := func(err error) (domain.TrendEstimate, error) {
		return domain.TrendEstimate{}, &domain.FitConvergenceError{Op: domain.MethodGLSAR1, N: len(obs), Err: err}
	}

	s := newSeries(obs)
	ols, err := fitAtPhi(s, 0)
	if err != nil {
		return fail(err)
	}
	if tss := stat.Variance(s.y, nil) * float64(len(s.y)-1); ols.rss <= degenerateRSS*tss {
		return fail(errors.New("residuals are identically zero"))
	}

	seed := clamp(lag1Autocorrelation(s, ols.intercept, ols.slope), -0.9, 0.9)
	n := len(s.y)
	objective := func(x []float64) float64 {
		f, err := fitAtPhi(s, math.Tanh(x[0]))
		if err != nil {
			return math.Inf(1)
		}
		return f.negRestrictedLogLik(n)
	}

	settings := &optimize.Settings{
		MajorIterations: e.opts.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 20,
		},
	}
	result, err := optimize.Minimize(optimize.Problem{Func: objective}, []float64{math.Atanh(seed)}, settings, &optimize.NelderMead{})
	if err != nil {
		return fail(fmt.Errorf("optimize phi: %w", err))
	}
	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit, optimize.Failure:
		return fail(fmt.Errorf("optimize phi: %v", result.Status))
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return fail(errors.New("restricted likelihood is not finite"))
	}

	phi := math.Tanh(result.X[0])
	if math.Abs(phi) >= e.opts.PhiLimit {
		return fail(fmt.Errorf("phi %.6f reached the stationarity limit %.3f", phi, e.opts.PhiLimit))
	}

	best, err := fitAtPhi(s, phi)
	if err != nil {
		return fail(err)
	}
	est := best.estimate(s, domain.MethodGLSAR1)
	if !finite(est.SlopePerDay) || !finite(est.StderrPerDay) || est.StderrPerDay == 0 {
		return fail(errors.New("degenerate standard error"))
	}
	return est, nil
}

// FitOLS fits the same regression assuming independent errors. Its interval
// is narrower than the GLS one whenever residuals are positively correlated.
func (e *Estimator) FitOLS(ctx context.Context, obs []domain.Observation) (domain.TrendEstimate, error) {
	if err := ctx.Err(); err != nil {
		return domain.TrendEstimate{}, err
	}
	return FitAtPhi(obs, 0)
}

// FitAtPhi solves the regression with phi held fixed. phi = 0 is ordinary
// least squares.
func FitAtPhi(obs []domain.Observation, phi float64) (domain.TrendEstimate, error) {
	method := domain.MethodGLSAR1
	if phi == 0 {
		method = domain.MethodOLS
	}
	s := newSeries(obs)
	f, err := fitAtPhi(s, phi)
	if err != nil {
		return domain.TrendEstimate{}, &domain.FitConvergenceError{Op: method, N: len(obs), Err: err}
	}
	return f.estimate(s, method), nil
}

// Line is a straight line y = Intercept + Slope*x.
type Line struct {
	Intercept float64
	Slope     float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// TrendLine fits an ordinary least squares line through (xs, ys). It is the
// visual reference drawn on charts, separate from the GLS estimate.
func TrendLine(xs, ys []float64) (Line, error) {
	if len(xs) != len(ys) {
		return Line{}, fmt.Errorf("length mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return Line{}, errors.New("at least 2 points are required")
	}
	if stat.Variance(xs, nil) == 0 {
		return Line{}, errSingular
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Line{Intercept: alpha, Slope: beta}, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
