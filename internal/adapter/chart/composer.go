// Package chart draws annotated sea level charts with gonum/plot.
package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/sea-level-trend/internal/domain"
	"github.com/couchcryptid/sea-level-trend/internal/trend"
)

var (
	rawColor     = color.RGBA{R: 120, G: 160, B: 200, A: 255}
	rollingColor = color.RGBA{R: 0, G: 60, B: 130, A: 255}
	trendColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// Options controls chart layout and output.
type Options struct {
	OutputDir string
	Formats   []string
	Width     vg.Length
	Height    vg.Length

	// AnnotationX and AnnotationY place the rate label as fractions of the
	// axis ranges, measured from the lower-left corner.
	AnnotationX float64
	AnnotationY float64
}

// DefaultOptions writes PNG and SVG at 10x5 inches with the label upper left.
func DefaultOptions(outputDir string) Options {
	return Options{
		OutputDir:   outputDir,
		Formats:     []string{"png", "svg"},
		Width:       10 * vg.Inch,
		Height:      5 * vg.Inch,
		AnnotationX: 0.03,
		AnnotationY: 0.92,
	}
}

// Composer renders charts to files. It implements pipeline.Renderer.
type Composer struct {
	opts   Options
	logger *slog.Logger
}

// NewComposer creates a Composer.
func NewComposer(opts Options, logger *slog.Logger) *Composer {
	return &Composer{opts: opts, logger: logger}
}

// Render draws spec for the station's observations and writes one file per
// configured format. It returns the paths written.
func (c *Composer) Render(ctx context.Context, station domain.Station, obs []domain.Observation, est domain.TrendEstimate, spec domain.ChartSpec) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := c.Plot(station, obs, est, spec)
	if err != nil {
		return nil, &domain.RenderError{Path: c.opts.OutputDir, Err: err}
	}

	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return nil, &domain.RenderError{Path: c.opts.OutputDir, Err: err}
	}

	base := FileBase(station, spec)
	paths := make([]string, 0, len(c.opts.Formats))
	for _, format := range c.opts.Formats {
		path := filepath.Join(c.opts.OutputDir, base+"."+format)
		if err := c.save(p, format, path); err != nil {
			return paths, &domain.RenderError{Path: path, Err: err}
		}
		c.logger.Debug("chart written", "path", path, "chart", spec.Name)
		paths = append(paths, path)
	}
	return paths, nil
}

func (c *Composer) save(p *plot.Plot, format, path string) error {
	wt, err := p.WriterTo(c.opts.Width, c.opts.Height, format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// FileBase is the output file name, without extension, for a chart.
func FileBase(station domain.Station, spec domain.ChartSpec) string {
	name := station.Name
	if name == "" {
		name = station.ID
	}
	return slug.Make(name + "-" + spec.Name)
}

// Plot builds the chart without writing it.
func (c *Composer) Plot(station domain.Station, obs []domain.Observation, est domain.TrendEstimate, spec domain.ChartSpec) (*plot.Plot, error) {
	if len(obs) < 2 {
		return nil, errors.New("at least 2 observations are required to draw a chart")
	}

	xs := make([]float64, len(obs))
	ys := make([]float64, len(obs))
	raw := make(plotter.XYs, len(obs))
	for i, o := range obs {
		xs[i] = float64(o.Date.Unix())
		ys[i] = spec.Units.Height(o)
		raw[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}

	rolling, err := domain.RollingMean(ys, spec.Window)
	if err != nil {
		return nil, err
	}
	line, err := trend.TrendLine(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("trend line: %w", err)
	}

	p := plot.New()
	p.Title.Text = title(station)
	p.X.Label.Text = "Year"
	p.Y.Label.Text = spec.Units.AxisLabel()
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	p.Legend.Top = false
	p.Legend.Left = false
	p.Add(plotter.NewGrid())

	rawLine, err := plotter.NewLine(raw)
	if err != nil {
		return nil, err
	}
	rawLine.LineStyle.Color = rawColor
	rawLine.LineStyle.Width = vg.Points(0.6)
	p.Add(rawLine)
	p.Legend.Add("Monthly mean", rawLine)

	segments := splitDefined(xs, rolling)
	for i, seg := range segments {
		l, err := plotter.NewLine(seg)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = rollingColor
		l.LineStyle.Width = vg.Points(1.8)
		p.Add(l)
		if i == 0 {
			p.Legend.Add(fmt.Sprintf("%d-month rolling mean", spec.Window), l)
		}
	}

	first, last := xs[0], xs[len(xs)-1]
	trendLine, err := plotter.NewLine(plotter.XYs{
		{X: first, Y: line.At(first)},
		{X: last, Y: line.At(last)},
	})
	if err != nil {
		return nil, err
	}
	trendLine.LineStyle.Color = trendColor
	trendLine.LineStyle.Width = vg.Points(1.5)
	trendLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(trendLine)
	p.Legend.Add("Linear trend", trendLine)

	ymin, ymax := bounds(ys)
	pad := (ymax - ymin) * 0.12
	p.X.Min, p.X.Max = first, last
	p.Y.Min, p.Y.Max = ymin-pad, ymax+pad

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs: []plotter.XY{{
			X: p.X.Min + c.opts.AnnotationX*(p.X.Max-p.X.Min),
			Y: p.Y.Min + c.opts.AnnotationY*(p.Y.Max-p.Y.Min),
		}},
		Labels: []string{est.Annotation(spec.Units)},
	})
	if err != nil {
		return nil, err
	}
	p.Add(labels)

	return p, nil
}

func title(station domain.Station) string {
	parts := make([]string, 0, 2)
	if station.Name != "" {
		parts = append(parts, station.Name)
	}
	if station.ID != "" {
		parts = append(parts, station.ID)
	}
	return "Relative sea level trend, " + strings.Join(parts, " ")
}

// splitDefined breaks (xs, ys) into runs of consecutive non-NaN points so the
// rolling mean is drawn without bridging missing positions.
func splitDefined(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i, y := range ys {
		if math.IsNaN(y) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: y})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func bounds(ys []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
