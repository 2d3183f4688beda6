// Package csvfile reads NOAA monthly mean sea level extracts into domain
// observations.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
)

// Column names in the NOAA extract.
const (
	ColumnYear       = "Year"
	ColumnMonth      = "Month"
	ColumnMSL        = "Monthly_MSL"
	ColumnUnverified = "Unverified"
)

var errMissingColumn = errors.New("required column missing")

// Options selects which columns hold the series. Empty fields fall back to
// the NOAA defaults.
type Options struct {
	MSLColumn        string
	UnverifiedColumn string
}

// Loader reads a station's CSV extract. It implements pipeline.Loader.
type Loader struct {
	station domain.Station
	opts    Options
	logger  *slog.Logger
}

// NewLoader creates a Loader for the given station. The station's MSLColumn
// is used when opts does not name one.
func NewLoader(station domain.Station, opts Options, logger *slog.Logger) *Loader {
	if opts.MSLColumn == "" {
		opts.MSLColumn = station.MSLColumn
	}
	if opts.MSLColumn == "" {
		opts.MSLColumn = ColumnMSL
	}
	if opts.UnverifiedColumn == "" {
		opts.UnverifiedColumn = ColumnUnverified
	}
	return &Loader{station: station, opts: opts, logger: logger}
}

// Load opens path and reads every observation from it.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return l.Read(ctx, f, path)
}

// Read parses observations from r. source is used only in error messages.
func (l *Loader) Read(ctx context.Context, r io.Reader, source string) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.DataFormatError{Path: source, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, &domain.DataFormatError{Path: source, Line: 1, Err: err}
	}

	cols, err := l.resolveColumns(header)
	if err != nil {
		var dfe *domain.DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = source
		}
		return nil, err
	}

	var obs []domain.Observation
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DataFormatError{Path: source, Line: parseErrorLine(err), Err: err}
		}
		line, _ := reader.FieldPos(0)

		o, err := l.parseRecord(record, cols)
		if err != nil {
			var dfe *domain.DataFormatError
			if errors.As(err, &dfe) {
				dfe.Path = source
				dfe.Line = line
			}
			return nil, err
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, &domain.DataFormatError{Path: source, Err: errors.New("no data rows")}
	}
	if err := domain.ValidateSeries(obs); err != nil {
		var dfe *domain.DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = source
		}
		return nil, err
	}

	l.logger.Debug("observations loaded",
		"source", source,
		"station", l.station.ID,
		"count", len(obs),
		"unverified_column", cols.unverified >= 0,
	)
	return obs, nil
}

type columns struct {
	year, month, msl, unverified int
}

// resolveColumns maps header names to indices. Names are trimmed of spaces
// and quotes and compared case-insensitively, since NOAA extracts pad them.
func (l *Loader) resolveColumns(header []string) (columns, error) {
	cols := columns{year: -1, month: -1, msl: -1, unverified: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(strings.TrimSpace(h), "\""))
		switch {
		case strings.EqualFold(h, ColumnYear):
			cols.year = i
		case strings.EqualFold(h, ColumnMonth):
			cols.month = i
		case strings.EqualFold(h, l.opts.MSLColumn):
			cols.msl = i
		case strings.EqualFold(h, l.opts.UnverifiedColumn):
			cols.unverified = i
		}
	}

	for _, req := range []struct {
		name string
		idx  int
	}{
		{ColumnYear, cols.year},
		{ColumnMonth, cols.month},
		{l.opts.MSLColumn, cols.msl},
	} {
		if req.idx < 0 {
			return cols, &domain.DataFormatError{Line: 1, Column: req.name, Err: errMissingColumn}
		}
	}
	return cols, nil
}

func (l *Loader) parseRecord(record []string, cols columns) (domain.Observation, error) {
	year, err := strconv.Atoi(strings.TrimSpace(record[cols.year]))
	if err != nil {
		return domain.Observation{}, &domain.DataFormatError{Column: ColumnYear, Err: err}
	}

	month, err := strconv.Atoi(strings.TrimSpace(record[cols.month]))
	if err != nil {
		return domain.Observation{}, &domain.DataFormatError{Column: ColumnMonth, Err: err}
	}
	if month < 1 || month > 12 {
		return domain.Observation{}, &domain.DataFormatError{Column: ColumnMonth, Err: fmt.Errorf("month %d out of range 1..12", month)}
	}

	msl, err := strconv.ParseFloat(strings.TrimSpace(record[cols.msl]), 64)
	if err != nil {
		return domain.Observation{}, &domain.DataFormatError{Column: l.opts.MSLColumn, Err: err}
	}
	if math.IsNaN(msl) || math.IsInf(msl, 0) {
		return domain.Observation{}, &domain.DataFormatError{Column: l.opts.MSLColumn, Err: fmt.Errorf("non-finite value %v", msl)}
	}

	var unverified *float64
	if cols.unverified >= 0 {
		unverified = parseOptionalFloat(record[cols.unverified])
	}

	return domain.NewObservation(year, time.Month(month), msl, unverified, l.station), nil
}

func parseErrorLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.StartLine
	}
	return 0
}

// parseOptionalFloat returns nil for empty or non-numeric cells.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
