package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/observability"
)

// Stage labels for timing metrics and logs.
const (
	StageLoad   = "load"
	StageFit    = "fit"
	StageRender = "render"
)

// Loader reads the observation series from input.
type Loader interface {
	Load(ctx context.Context, input string) ([]domain.Observation, error)
}

// Estimator fits trends to an observation series.
type Estimator interface {
	Fit(ctx context.Context, obs []domain.Observation) (domain.TrendEstimate, error)
	FitOLS(ctx context.Context, obs []domain.Observation) (domain.TrendEstimate, error)
}

// Renderer draws one chart variant and returns the files it wrote.
type Renderer interface {
	Render(ctx context.Context, station domain.Station, obs []domain.Observation, est domain.TrendEstimate, spec domain.ChartSpec) ([]string, error)
}

// Pipeline runs load, fit, and render once per call to Run.
type Pipeline struct {
	loader    Loader
	estimator Estimator
	renderer  Renderer
	station   domain.Station
	charts    []domain.ChartSpec
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(l Loader, e Estimator, r Renderer, station domain.Station, charts []domain.ChartSpec, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:    l,
		estimator: e,
		renderer:  r,
		station:   station,
		charts:    charts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the report for input. The returned Report is filled as far as
// the run got: a render failure still carries both trend estimates.
func (p *Pipeline) Run(ctx context.Context, input string) (domain.Report, error) {
	report := domain.Report{
		RunID:   uuid.NewString(),
		Station: p.station,
		Input:   input,
	}
	logger := p.logger.With("run_id", report.RunID, "station", p.station.ID)
	logger.Info("report started", "input", input, "charts", len(p.charts))

	err := p.run(ctx, logger, &report)
	report.GeneratedAt = domain.Now()
	if err != nil {
		kind := domain.ErrorKind(err)
		p.metrics.Errors.WithLabelValues(kind).Inc()
		logger.Error("report failed", "error", err, "kind", kind)
		return report, err
	}

	p.metrics.LastSuccessTime.Set(float64(report.GeneratedAt.Unix()))
	logger.Info("report complete", "charts", report.Charts)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, report *domain.Report) error {
	obs, err := p.load(ctx, report.Input)
	if err != nil {
		return err
	}
	report.Summarize(obs)
	p.metrics.ObservationsLoaded.Set(float64(report.Observations))
	p.metrics.ObservationGaps.Set(float64(report.Gaps))
	logger.Info("observations loaded",
		"count", report.Observations,
		"first", report.First.Format(time.DateOnly),
		"last", report.Last.Format(time.DateOnly),
		"gaps", report.Gaps,
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.fit(ctx, obs, report); err != nil {
		return err
	}
	logger.Info("trend estimated",
		"phi", report.GLS.Phi,
		"rate_mm_yr", report.GLS.AnnualRateMM(),
		"ci95_mm_yr", report.GLS.AnnualCI95MM(),
		"rate_in_decade", report.GLS.DecadeRateIn(),
		"ci95_in_decade", report.GLS.DecadeCI95In(),
		"ols_rate_mm_yr", report.OLS.AnnualRateMM(),
		"ols_ci95_mm_yr", report.OLS.AnnualCI95MM(),
	)

	if err := ctx.Err(); err != nil {
		return err
	}
	return p.render(ctx, logger, obs, report)
}

func (p *Pipeline) load(ctx context.Context, input string) ([]domain.Observation, error) {
	defer p.observeStage(StageLoad, domain.Now())

	obs, err := p.loader.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", input, err)
	}
	return obs, nil
}

func (p *Pipeline) fit(ctx context.Context, obs []domain.Observation, report *domain.Report) error {
	defer p.observeStage(StageFit, domain.Now())

	gls, err := p.estimator.Fit(ctx, obs)
	if err != nil {
		return fmt.Errorf("fit trend: %w", err)
	}
	ols, err := p.estimator.FitOLS(ctx, obs)
	if err != nil {
		return fmt.Errorf("fit reference trend: %w", err)
	}
	report.GLS, report.OLS = gls, ols

	p.metrics.FitPhi.Set(gls.Phi)
	for _, e := range []domain.TrendEstimate{gls, ols} {
		p.metrics.TrendRateMM.WithLabelValues(e.Method).Set(e.AnnualRateMM())
		p.metrics.TrendCI95MM.WithLabelValues(e.Method).Set(e.AnnualCI95MM())
	}
	return nil
}

func (p *Pipeline) render(ctx context.Context, logger *slog.Logger, obs []domain.Observation, report *domain.Report) error {
	defer p.observeStage(StageRender, domain.Now())

	for _, spec := range p.charts {
		paths, err := p.renderer.Render(ctx, p.station, obs, report.GLS, spec)
		report.Charts = append(report.Charts, paths...)
		p.metrics.ChartsRendered.Add(float64(len(paths)))
		if err != nil {
			return fmt.Errorf("render %s chart: %w", spec.Name, err)
		}
		logger.Debug("chart rendered", "chart", spec.Name, "window", spec.Window, "units", spec.Units, "files", paths)
	}
	return nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(domain.Since(start).Seconds())
}
