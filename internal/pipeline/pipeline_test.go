package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/observability"
	"github.com/couchcryptid/sea-level-trend/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	obs []domain.Observation
	err error
}

func (m *mockLoader) Load(_ context.Context, _ string) ([]domain.Observation, error) {
	return m.obs, m.err
}

type mockEstimator struct {
	gls, ols domain.TrendEstimate
	err      error
	calls    int
}

func (m *mockEstimator) Fit(_ context.Context, _ []domain.Observation) (domain.TrendEstimate, error) {
	m.calls++
	return m.gls, m.err
}

func (m *mockEstimator) FitOLS(_ context.Context, _ []domain.Observation) (domain.TrendEstimate, error) {
	return m.ols, nil
}

type mockRenderer struct {
	failOn string
	specs  []domain.ChartSpec
	est    domain.TrendEstimate
}

func (m *mockRenderer) Render(_ context.Context, _ domain.Station, _ []domain.Observation, est domain.TrendEstimate, spec domain.ChartSpec) ([]string, error) {
	m.specs = append(m.specs, spec)
	m.est = est
	if spec.Name == m.failOn {
		return nil, &domain.RenderError{Path: "out/" + spec.Name + ".png", Err: errors.New("disk full")}
	}
	return []string{"out/" + spec.Name + ".png"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCharts = []domain.ChartSpec{
	{Name: "60-month", Window: 60, Units: domain.UnitsImperial},
	{Name: "24-month", Window: 24, Units: domain.UnitsImperial},
}

func testObservations() []domain.Observation {
	return []domain.Observation{
		domain.NewObservation(2000, time.January, 0.01, nil, domain.DefaultStation),
		domain.NewObservation(2000, time.February, 0.02, nil, domain.DefaultStation),
		domain.NewObservation(2000, time.May, 0.03, nil, domain.DefaultStation),
	}
}

var (
	testGLS = domain.TrendEstimate{Method: domain.MethodGLSAR1, SlopePerDay: 5e-6, StderrPerDay: 4e-7, Phi: 0.55, N: 3}
	testOLS = domain.TrendEstimate{Method: domain.MethodOLS, SlopePerDay: 5.1e-6, StderrPerDay: 1e-7, N: 3}
)

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fixed := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	defer domain.SetClock(nil)

	est := &mockEstimator{gls: testGLS, ols: testOLS}
	rdr := &mockRenderer{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockLoader{obs: testObservations()}, est, rdr, domain.DefaultStation, testCharts, discardLogger(), metrics)

	report, err := p.Run(context.Background(), "in.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "in.csv", report.Input)
	assert.Equal(t, domain.DefaultStation, report.Station)
	assert.Equal(t, 3, report.Observations)
	assert.Equal(t, 2, report.Gaps)
	assert.Equal(t, domain.MonthDate(2000, time.January), report.First)
	assert.Equal(t, domain.MonthDate(2000, time.May), report.Last)
	assert.Equal(t, testGLS, report.GLS)
	assert.Equal(t, testOLS, report.OLS)
	assert.Equal(t, []string{"out/60-month.png", "out/24-month.png"}, report.Charts)
	assert.Equal(t, fixed, report.GeneratedAt)

	assert.Equal(t, testCharts, rdr.specs)
	assert.Equal(t, testGLS, rdr.est, "charts must be annotated with the GLS estimate")

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ObservationsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ObservationGaps))
	assert.Equal(t, 0.55, testutil.ToFloat64(metrics.FitPhi))
	assert.InDelta(t, testGLS.AnnualRateMM(), testutil.ToFloat64(metrics.TrendRateMM.WithLabelValues(domain.MethodGLSAR1)), 1e-12)
	assert.InDelta(t, testOLS.AnnualCI95MM(), testutil.ToFloat64(metrics.TrendCI95MM.WithLabelValues(domain.MethodOLS)), 1e-12)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ChartsRendered))
	assert.Equal(t, float64(fixed.Unix()), testutil.ToFloat64(metrics.LastSuccessTime))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.StageDuration))
}

func TestPipeline_Run_LoadError(t *testing.T) {
	loadErr := &domain.DataFormatError{Column: "Year", Err: errors.New("required column missing")}
	est := &mockEstimator{}
	rdr := &mockRenderer{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockLoader{err: loadErr}, est, rdr, domain.DefaultStation, testCharts, discardLogger(), metrics)

	report, err := p.Run(context.Background(), "in.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataFormat)
	assert.Contains(t, err.Error(), "load in.csv")

	assert.Zero(t, est.calls, "estimator must not run after a load failure")
	assert.Empty(t, rdr.specs)
	assert.Zero(t, report.Observations)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues(domain.KindDataFormat)))
	assert.Zero(t, testutil.ToFloat64(metrics.LastSuccessTime))
}

func TestPipeline_Run_FitError(t *testing.T) {
	est := &mockEstimator{err: &domain.FitConvergenceError{Op: domain.MethodGLSAR1, N: 3, Err: errors.New("phi at limit")}}
	rdr := &mockRenderer{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockLoader{obs: testObservations()}, est, rdr, domain.DefaultStation, testCharts, discardLogger(), metrics)

	report, err := p.Run(context.Background(), "in.csv")
	assert.ErrorIs(t, err, domain.ErrFitConvergence)
	assert.Empty(t, rdr.specs, "nothing is rendered without an estimate")
	assert.Equal(t, 3, report.Observations)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues(domain.KindFitConvergence)))
}

func TestPipeline_Run_RenderErrorKeepsEstimate(t *testing.T) {
	est := &mockEstimator{gls: testGLS, ols: testOLS}
	rdr := &mockRenderer{failOn: "24-month"}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockLoader{obs: testObservations()}, est, rdr, domain.DefaultStation, testCharts, discardLogger(), metrics)

	report, err := p.Run(context.Background(), "in.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRender)
	assert.Contains(t, err.Error(), "render 24-month chart")

	assert.Equal(t, testGLS, report.GLS)
	assert.Equal(t, testOLS, report.OLS)
	assert.Equal(t, []string{"out/60-month.png"}, report.Charts)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues(domain.KindRender)))
	assert.Equal(t, testGLS.AnnualRateMM(), testutil.ToFloat64(metrics.TrendRateMM.WithLabelValues(domain.MethodGLSAR1)))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	est := &mockEstimator{gls: testGLS, ols: testOLS}
	rdr := &mockRenderer{}
	p := pipeline.New(&mockLoader{obs: testObservations()}, est, rdr, domain.DefaultStation, testCharts, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "in.csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, est.calls)
}

func TestPipeline_Run_UniqueRunIDs(t *testing.T) {
	p := pipeline.New(&mockLoader{obs: testObservations()}, &mockEstimator{gls: testGLS, ols: testOLS}, &mockRenderer{},
		domain.DefaultStation, testCharts, discardLogger(), observability.NewMetricsForTesting())

	a, err := p.Run(context.Background(), "in.csv")
	require.NoError(t, err)
	b, err := p.Run(context.Background(), "in.csv")
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}
