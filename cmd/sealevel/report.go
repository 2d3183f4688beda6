package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/sea-level-trend/internal/adapter/chart"
	"github.com/couchcryptid/sea-level-trend/internal/adapter/csvfile"
	"github.com/couchcryptid/sea-level-trend/internal/config"
	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/observability"
	"github.com/couchcryptid/sea-level-trend/internal/pipeline"
	"github.com/couchcryptid/sea-level-trend/internal/trend"
)

func reportCmd() *cobra.Command {
	var o overrides
	var asJSON bool

	c := &cobra.Command{
		Use:   "report",
		Short: "Fit the trend and write the annotated charts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}

			logger := observability.NewLogger(cfg)
			reg := prometheus.NewRegistry()
			metrics := observability.NewMetricsWith(reg)

			p := pipeline.New(
				csvfile.NewLoader(cfg.Station, csvfile.Options{MSLColumn: cfg.Station.MSLColumn}, logger),
				trend.NewEstimator(trend.DefaultOptions()),
				chart.NewComposer(composerOptions(cfg), logger),
				cfg.Station,
				cfg.Charts(),
				logger,
				metrics,
			)

			report, runErr := p.Run(cmd.Context(), cfg.InputPath)

			if cfg.MetricsTextfile != "" {
				if err := observability.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
					logger.Error("metrics textfile write failed", "path", cfg.MetricsTextfile, "error", err)
				}
			}

			// A failed chart write leaves the fitted numbers intact; print them
			// before reporting the failure.
			if runErr != nil && !errors.Is(runErr, domain.ErrRender) {
				return runErr
			}
			if err := writeReport(cmd.OutOrStdout(), report, cfg.Units, asJSON); err != nil {
				return err
			}
			return runErr
		},
	}

	o.bindInput(c)
	o.bindOutput(c)
	c.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return c
}

func composerOptions(cfg *config.Config) chart.Options {
	opts := chart.DefaultOptions(cfg.OutputDir)
	opts.Formats = cfg.ImageFormats
	opts.Width = vg.Length(cfg.ChartWidthIn) * vg.Inch
	opts.Height = vg.Length(cfg.ChartHeightIn) * vg.Inch
	return opts
}

func writeReport(w io.Writer, r domain.Report, units domain.Units, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(w, r, units)
	return nil
}

func printReport(w io.Writer, r domain.Report, units domain.Units) {
	fmt.Fprintf(w, "Station:      %s %s\n", r.Station.ID, r.Station.Name)
	fmt.Fprintf(w, "Observations: %d (%s to %s, %d missing months)\n",
		r.Observations, r.First.Format("2006-01"), r.Last.Format("2006-01"), r.Gaps)
	fmt.Fprintf(w, "AR(1) phi:    %.3f\n", r.GLS.Phi)
	fmt.Fprintf(w, "GLS trend:    %.2f ± %.2f mm/yr (%.2f ± %.2f in/decade)\n",
		r.GLS.AnnualRateMM(), r.GLS.AnnualCI95MM(), r.GLS.DecadeRateIn(), r.GLS.DecadeCI95In())
	fmt.Fprintf(w, "OLS trend:    %.2f ± %.2f mm/yr\n", r.OLS.AnnualRateMM(), r.OLS.AnnualCI95MM())
	fmt.Fprintf(w, "Annotation:   %s\n", r.GLS.Annotation(units))
	for _, path := range r.Charts {
		fmt.Fprintf(w, "Wrote:        %s\n", path)
	}
	fmt.Fprintf(w, "Run:          %s at %s\n", r.RunID, r.GeneratedAt.Format(time.RFC3339))
}
