package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// DefaultRollingWindow is the 5-year smoothing of the reference graphic.
const DefaultRollingWindow = 60

// ShortRollingWindow is the 2-year variant drawn alongside the default one.
const ShortRollingWindow = 24

// SupportedFormats lists the image encodings the chart composer can write.
var SupportedFormats = []string{"png", "svg", "pdf"}

// Config holds all report settings, populated from environment variables.
type Config struct {
	InputPath string
	OutputDir string

	StationID   string
	StationFile string
	Station     domain.Station
	MSLColumn   string

	RollingWindow int
	Units         domain.Units
	ImageFormats  []string
	ChartWidthIn  float64
	ChartHeightIn float64

	LogLevel        string
	LogFormat       string
	MetricsTextfile string

	catalog Catalog
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	window, err := parsePositiveInt("ROLLING_WINDOW", DefaultRollingWindow)
	if err != nil {
		return nil, err
	}
	width, err := parsePositiveFloat("CHART_WIDTH", 10)
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("CHART_HEIGHT", 5)
	if err != nil {
		return nil, err
	}
	units, err := domain.ParseUnits(sharedcfg.EnvOrDefault("CHART_UNITS", string(domain.UnitsImperial)))
	if err != nil {
		return nil, fmt.Errorf("invalid CHART_UNITS: %w", err)
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "data/monthly_mean.csv"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		StationID:       sharedcfg.EnvOrDefault("STATION_ID", domain.DefaultStation.ID),
		StationFile:     os.Getenv("STATION_FILE"),
		MSLColumn:       os.Getenv("MSL_COLUMN"),
		RollingWindow:   window,
		Units:           units,
		ImageFormats:    ParseList(sharedcfg.EnvOrDefault("IMAGE_FORMATS", "png,svg")),
		ChartWidthIn:    width,
		ChartHeightIn:   height,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}

	if cfg.StationFile != "" {
		cfg.catalog, err = LoadCatalog(cfg.StationFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg.catalog = BuiltinCatalog()
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize resolves the station from the catalog and validates every field.
// Call it again after overriding fields, e.g. from command-line flags.
func (c *Config) Finalize() error {
	if c.InputPath == "" {
		return errors.New("INPUT_PATH is required")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	if c.RollingWindow < 1 {
		return errors.New("invalid ROLLING_WINDOW: must be at least 1")
	}
	units, err := domain.ParseUnits(string(c.Units))
	if err != nil {
		return fmt.Errorf("invalid CHART_UNITS: %w", err)
	}
	c.Units = units
	if len(c.ImageFormats) == 0 {
		return errors.New("IMAGE_FORMATS is required")
	}
	for _, f := range c.ImageFormats {
		if !slices.Contains(SupportedFormats, f) {
			return fmt.Errorf("invalid IMAGE_FORMATS: unsupported format %q", f)
		}
	}
	if c.ChartWidthIn <= 0 || c.ChartHeightIn <= 0 {
		return errors.New("CHART_WIDTH and CHART_HEIGHT must be positive")
	}

	if c.catalog.Stations == nil {
		c.catalog = BuiltinCatalog()
	}
	station, ok := c.catalog.Lookup(c.StationID)
	if !ok {
		return fmt.Errorf("invalid STATION_ID: station %q not in catalog", c.StationID)
	}
	if c.MSLColumn != "" {
		station.MSLColumn = c.MSLColumn
	}
	c.Station = station
	return nil
}

// Catalog returns the stations available to this configuration.
func (c *Config) Catalog() Catalog {
	if c.catalog.Stations == nil {
		return BuiltinCatalog()
	}
	return c.catalog
}

// Charts lists the chart variants to draw. The configured window is always
// drawn; the default 60-month window also gets a 24-month companion.
func (c *Config) Charts() []domain.ChartSpec {
	specs := []domain.ChartSpec{{
		Name:   fmt.Sprintf("%d-month", c.RollingWindow),
		Window: c.RollingWindow,
		Units:  c.Units,
	}}
	if c.RollingWindow == DefaultRollingWindow {
		specs = append(specs, domain.ChartSpec{
			Name:   fmt.Sprintf("%d-month", ShortRollingWindow),
			Window: ShortRollingWindow,
			Units:  c.Units,
		})
	}
	return specs
}

// ParseList splits a comma-separated value, trimming and lower-casing each
// item and dropping empties.
func ParseList(s string) []string {
	items := sharedcfg.ParseBrokers(s)
	for i, item := range items {
		items[i] = strings.ToLower(item)
	}
	return items
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return v, nil
}
