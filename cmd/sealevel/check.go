package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sea-level-trend/internal/adapter/csvfile"
	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/observability"
)

func checkCmd() *cobra.Command {
	var o overrides

	c := &cobra.Command{
		Use:   "check",
		Short: "Load and validate the input without fitting or drawing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg)

			loader := csvfile.NewLoader(cfg.Station, csvfile.Options{MSLColumn: cfg.Station.MSLColumn}, logger)
			obs, err := loader.Load(cmd.Context(), cfg.InputPath)
			if err != nil {
				return err
			}

			var r domain.Report
			r.Summarize(obs)
			unverified := 0
			for _, ob := range obs {
				if ob.Unverified != nil {
					unverified++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d observations, %s to %s, %d missing months, %d unverified\n",
				cfg.InputPath, r.Observations, r.First.Format("2006-01"), r.Last.Format("2006-01"), r.Gaps, unverified)
			fmt.Fprintln(out, "OK")
			return nil
		},
	}

	o.bindInput(c)
	return c
}
