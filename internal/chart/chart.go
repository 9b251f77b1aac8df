// Package chart renders period-indexed series as PNG line charts.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Options controls chart rendering.
type Options struct {
	Title  string
	YLabel string
	Width  vg.Length
	Height vg.Length
	// Format is the image format understood by plot.WriterTo ("png", "svg").
	Format string
}

func (o Options) withDefaults(t *core.PeriodIndexedTable) Options {
	if o.Title == "" {
		o.Title = t.Group
	}
	if o.Width == 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 5 * vg.Inch
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return o
}

// Build creates the plot for t: one line per indicator on a nominal period
// axis. Missing values break the line instead of dropping to zero.
func Build(t *core.PeriodIndexedTable, opts Options) (*plot.Plot, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("nothing to plot: table for %q has no periods", t.Group)
	}
	opts = opts.withDefaults(t)

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = string(t.Frequency)
	p.Y.Label.Text = opts.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for j, ind := range t.Indicators {
		segments := segmentsOf(t, j)
		if len(segments) == 0 {
			continue
		}
		c := plotutil.Color(j)
		for k, seg := range segments {
			line, points, err := plotter.NewLinePoints(seg)
			if err != nil {
				return nil, fmt.Errorf("failed to plot %s: %w", ind, err)
			}
			line.Color = c
			line.Width = vg.Points(2)
			points.Color = c
			points.Shape = draw.CircleGlyph{}
			points.Radius = vg.Points(2)
			p.Add(line, points)
			if k == 0 {
				p.Legend.Add(ind, line)
			}
		}
	}

	p.NominalX(tickLabels(t)...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Color = color.Gray{Y: 60}
	return p, nil
}

// Render writes the chart for t to w.
func Render(w io.Writer, t *core.PeriodIndexedTable, opts Options) error {
	p, err := Build(t, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults(t)

	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", opts.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// Save writes the chart to a file; the format follows the extension.
func Save(path string, t *core.PeriodIndexedTable, opts Options) error {
	p, err := Build(t, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults(t)
	return p.Save(opts.Width, opts.Height, path)
}

// segmentsOf splits column j into runs of consecutive present values.
func segmentsOf(t *core.PeriodIndexedTable, j int) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range t.Periods {
		v := t.Values[i][j]
		if !v.Valid {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: v.Float})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// tickLabels thins labels so that long monthly series stay readable.
func tickLabels(t *core.PeriodIndexedTable) []string {
	labels := t.Labels()
	step := 1
	if n := len(labels); n > 24 {
		step = (n + 23) / 24
	}
	if step == 1 {
		return labels
	}
	for i := range labels {
		if i%step != 0 && i != len(labels)-1 {
			labels[i] = ""
		}
	}
	return labels
}
