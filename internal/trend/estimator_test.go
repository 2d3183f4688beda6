package trend

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/synth"
)

func generate(t *testing.T, mod func(*synth.Params)) []domain.Observation {
	t.Helper()
	p := synth.DefaultParams()
	if mod != nil {
		mod(&p)
	}
	obs, err := synth.Generate(p, domain.DefaultStation)
	require.NoError(t, err)
	return obs
}

func TestFitAtPhi_OLSMatchesClosedForm(t *testing.T) {
	obs := generate(t, nil)

	est, err := FitAtPhi(obs, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodOLS, est.Method)

	xs := make([]float64, len(obs))
	ys := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = domain.DaysSinceEpoch(o.Date)
		ys[i] = o.MSLMeters
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	var rss, sxx float64
	mx := stat.Mean(xs, nil)
	for i := range xs {
		r := ys[i] - alpha - beta*xs[i]
		rss += r * r
		sxx += (xs[i] - mx) * (xs[i] - mx)
	}
	wantSE := math.Sqrt(rss / float64(len(xs)-2) / sxx)

	assert.InDelta(t, beta, est.SlopePerDay, 1e-12)
	assert.InDelta(t, alpha, est.Intercept, 1e-9)
	assert.InDelta(t, wantSE, est.StderrPerDay, 1e-12)
	assert.Equal(t, len(obs), est.N)
}

// The Prais-Winsten solution must equal GLS computed with the explicit AR(1)
// correlation matrix.
func TestFitAtPhi_MatchesExplicitGLS(t *testing.T) {
	obs := generate(t, func(p *synth.Params) {
		p.Months = 24
		p.Phi = 0.5
	})
	const phi = 0.43
	n := len(obs)

	corr := mat.NewDense(n, n, nil)
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range obs {
		x.Set(i, 0, 1)
		x.Set(i, 1, domain.DaysSinceEpoch(o.Date))
		y.SetVec(i, o.MSLMeters)
		for j := range obs {
			corr.Set(i, j, math.Pow(phi, math.Abs(float64(i-j))))
		}
	}
	var rinv mat.Dense
	require.NoError(t, rinv.Inverse(corr))

	var xtr, xtrx, xtrxInv mat.Dense
	xtr.Mul(x.T(), &rinv)
	xtrx.Mul(&xtr, x)
	require.NoError(t, xtrxInv.Inverse(&xtrx))

	var xtry, beta mat.VecDense
	xtry.MulVec(&xtr, y)
	beta.MulVec(&xtrxInv, &xtry)

	var fitted, resid, rinvResid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)
	rinvResid.MulVec(&rinv, &resid)
	sigma2 := mat.Dot(&resid, &rinvResid) / float64(n-2)
	wantSE := math.Sqrt(sigma2 * xtrxInv.At(1, 1))

	est, err := FitAtPhi(obs, phi)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGLSAR1, est.Method)
	assert.InDelta(t, beta.AtVec(1), est.SlopePerDay, 1e-10)
	assert.InDelta(t, wantSE, est.StderrPerDay, 1e-10)
	assert.InDelta(t, math.Sqrt(sigma2), est.Sigma, 1e-9)
}

func TestFitAtPhi_Errors(t *testing.T) {
	obs := generate(t, nil)

	_, err := FitAtPhi(obs, 1)
	assert.ErrorIs(t, err, domain.ErrFitConvergence)

	_, err = FitAtPhi(obs[:2], 0)
	assert.ErrorIs(t, err, domain.ErrFitConvergence)
}

func TestEstimator_Fit_IsREMLMaximum(t *testing.T) {
	obs := generate(t, func(p *synth.Params) {
		p.Months = 360
		p.Phi = 0.6
		p.Seed = 7
	})

	est, err := NewEstimator(Options{}).Fit(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGLSAR1, est.Method)

	for _, d := range []float64{-0.05, -0.01, 0.01, 0.05} {
		other, err := FitAtPhi(obs, est.Phi+d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est.LogLik, other.LogLik-1e-9, "phi offset %g", d)
	}
}

func TestEstimator_Fit_RecoversAutocorrelation(t *testing.T) {
	obs := generate(t, func(p *synth.Params) {
		p.Months = 1200
		p.Phi = 0.6
		p.Seed = 11
	})

	est, err := NewEstimator(DefaultOptions()).Fit(context.Background(), obs)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, est.Phi, 0.08)
	assert.InDelta(t, 2.0, est.AnnualRateMM(), 4*est.AnnualCI95MM()/1.96)
	assert.Equal(t, 1200, est.N)
}

// Ordinary least squares understates the standard error of serially
// correlated residuals; the AR(1) fit must widen it.
func TestEstimator_GLSWiderThanOLS(t *testing.T) {
	obs := generate(t, func(p *synth.Params) {
		p.Months = 600
		p.Phi = 0.7
		p.Seed = 3
	})
	e := NewEstimator(DefaultOptions())

	gls, err := e.Fit(context.Background(), obs)
	require.NoError(t, err)
	ols, err := e.FitOLS(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodOLS, ols.Method)
	assert.Greater(t, gls.AnnualCI95MM(), 1.5*ols.AnnualCI95MM())
}

// With white noise the true 2 mm/yr rate should land inside the reported
// 95% interval in close to 95% of trials.
func TestEstimator_Fit_IntervalCoverage(t *testing.T) {
	const (
		trials = 200
		rate   = 2.0
	)
	e := NewEstimator(DefaultOptions())

	covered := 0
	for i := 0; i < trials; i++ {
		obs := generate(t, func(p *synth.Params) {
			p.Months = 120
			p.RateMMPerYear = rate
			p.NoiseMM = 30
			p.Seed = uint64(1000 + i)
		})
		est, err := e.Fit(context.Background(), obs)
		require.NoError(t, err)

		if math.Abs(est.AnnualRateMM()-rate) <= est.AnnualCI95MM() {
			covered++
		}
	}

	assert.GreaterOrEqual(t, float64(covered)/trials, 0.85, "covered %d of %d", covered, trials)
}

func TestEstimator_Fit_Deterministic(t *testing.T) {
	obs := generate(t, func(p *synth.Params) { p.Phi = 0.4 })
	e := NewEstimator(DefaultOptions())

	a, err := e.Fit(context.Background(), obs)
	require.NoError(t, err)
	b, err := e.Fit(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimator_Fit_GapsUseRowAdjacency(t *testing.T) {
	full := generate(t, func(p *synth.Params) { p.Phi = 0.3 })
	gapped := generate(t, func(p *synth.Params) {
		p.Phi = 0.3
		p.Skip = []int{10, 11, 12, 60}
	})

	est, err := NewEstimator(DefaultOptions()).Fit(context.Background(), gapped)
	require.NoError(t, err)
	assert.Equal(t, len(full)-4, est.N)
	assert.InDelta(t, 2.0, est.AnnualRateMM(), 3*est.AnnualCI95MM())
}

func TestEstimator_Fit_Failures(t *testing.T) {
	e := NewEstimator(DefaultOptions())

	t.Run("too few observations", func(t *testing.T) {
		obs := generate(t, func(p *synth.Params) { p.Months = 2 })
		_, err := e.Fit(context.Background(), obs)

		var fce *domain.FitConvergenceError
		require.True(t, errors.As(err, &fce))
		assert.Equal(t, 2, fce.N)
		assert.Contains(t, err.Error(), "at least 3")
	})

	t.Run("all dates equal", func(t *testing.T) {
		obs := []domain.Observation{
			domain.NewObservation(2000, time.May, 0.1, nil, domain.DefaultStation),
			domain.NewObservation(2000, time.May, 0.2, nil, domain.DefaultStation),
			domain.NewObservation(2000, time.May, 0.4, nil, domain.DefaultStation),
		}
		_, err := e.Fit(context.Background(), obs)
		assert.ErrorIs(t, err, domain.ErrFitConvergence)
		assert.Contains(t, err.Error(), "singular")
	})

	t.Run("noise free series is degenerate", func(t *testing.T) {
		obs := generate(t, func(p *synth.Params) { p.NoiseMM = 0 })
		_, err := e.Fit(context.Background(), obs)
		assert.ErrorIs(t, err, domain.ErrFitConvergence)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := e.Fit(ctx, generate(t, nil))
		assert.ErrorIs(t, err, context.Canceled)

		_, err = e.FitOLS(ctx, generate(t, nil))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewEstimator_Defaults(t *testing.T) {
	e := NewEstimator(Options{MaxIterations: -1, PhiLimit: 2})
	assert.Equal(t, DefaultOptions(), e.opts)

	custom := NewEstimator(Options{MaxIterations: 50, PhiLimit: 0.9})
	assert.Equal(t, Options{MaxIterations: 50, PhiLimit: 0.9}, custom.opts)
}

func TestTrendLine(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		xs := []float64{0, 1, 2, 3, 4}
		ys := []float64{1, 3, 5, 7, 9}
		l, err := TrendLine(xs, ys)
		require.NoError(t, err)
		assert.InDelta(t, 1, l.Intercept, 1e-12)
		assert.InDelta(t, 2, l.Slope, 1e-12)
		assert.InDelta(t, 21, l.At(10), 1e-12)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := TrendLine([]float64{1, 2}, []float64{1})
		assert.Error(t, err)
		_, err = TrendLine([]float64{1}, []float64{1})
		assert.Error(t, err)
		_, err = TrendLine([]float64{2, 2, 2}, []float64{1, 2, 3})
		assert.Error(t, err)
	})
}
