package main

import (
	"github.com/spf13/cobra"

	"github.com/couchcryptid/sea-level-trend/internal/config"
	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// overrides holds the command-line flags that take precedence over the
// environment. Zero values leave the environment setting in place.
type overrides struct {
	input     string
	outputDir string
	station   string
	column    string
	window    int
	units     string
	formats   string
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sealevel",
		Short:        "Relative sea level trend reports from NOAA tide gauge data",
		SilenceUsage: true,
	}

	cmd.AddCommand(reportCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(stationsCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func (o *overrides) bindInput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "CSV extract to read (overrides INPUT_PATH)")
	cmd.Flags().StringVar(&o.station, "station", "", "station ID from the catalog (overrides STATION_ID)")
	cmd.Flags().StringVar(&o.column, "column", "", "MSL column name (overrides MSL_COLUMN)")
}

func (o *overrides) bindOutput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "o", "", "directory for chart files (overrides OUTPUT_DIR)")
	cmd.Flags().IntVarP(&o.window, "window", "w", 0, "rolling mean window in months (overrides ROLLING_WINDOW)")
	cmd.Flags().StringVar(&o.units, "units", "", "imperial or metric (overrides CHART_UNITS)")
	cmd.Flags().StringVar(&o.formats, "formats", "", "comma-separated image formats (overrides IMAGE_FORMATS)")
}

// loadConfig reads the environment and applies any flags that were set.
func (o *overrides) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if o.input != "" {
		cfg.InputPath = o.input
	}
	if o.outputDir != "" {
		cfg.OutputDir = o.outputDir
	}
	if o.station != "" {
		cfg.StationID = o.station
	}
	if o.column != "" {
		cfg.MSLColumn = o.column
	}
	if o.window != 0 {
		cfg.RollingWindow = o.window
	}
	if o.units != "" {
		cfg.Units = domain.Units(o.units)
	}
	if o.formats != "" {
		cfg.ImageFormats = config.ParseList(o.formats)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
