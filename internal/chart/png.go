package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default PNG size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// SavePNG renders fig to path. The image format follows the extension
// (.png, .svg, .pdf). Zero sizes fall back to the defaults.
func SavePNG(fig Figure, path string, width, height vg.Length) error {
	p, err := build(fig)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func build(fig Figure) (*plot.Plot, error) {
	if err := fig.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel

	fallback := Palette(len(fig.Lines))
	for i, l := range fig.Lines {
		c := l.Color
		if c == nil {
			c = fallback[i]
		}

		if l.HasBand() {
			band, err := bandPolygon(l)
			if err != nil {
				return nil, fmt.Errorf("line %q band: %w", l.Label, err)
			}
			if band != nil {
				band.Color = translucent(c, 0x40)
				band.LineStyle.Width = 0
				p.Add(band)
			}
		}

		pts := points(l.X, l.Y)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", l.Label, err)
		}
		line.Color = c
		line.Width = vg.Points(1.5)
		p.Add(line)
		if l.Label != "" {
			p.Legend.Add(l.Label, line)
		}
	}

	p.Legend.Top = !fig.LegendBottom
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = 10
	if p.Legend.Top {
		p.Legend.YOffs = -10
	}

	if fig.XTickStep > 0 {
		if lo, hi, ok := fig.xRange(); ok {
			p.X.Tick.Marker = plot.ConstantTicks(stepTicks(lo, hi, fig.XTickStep))
		}
	}
	return p, nil
}

// points drops pairs with a non-finite coordinate.
func points(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

// bandPolygon outlines the upper bound left to right and the lower bound
// back, skipping points where either bound is not finite.
func bandPolygon(l Line) (*plotter.Polygon, error) {
	var upper, lower plotter.XYs
	for i, x := range l.X {
		if !finite(x) || !finite(l.Lower[i]) || !finite(l.Upper[i]) {
			continue
		}
		upper = append(upper, plotter.XY{X: x, Y: l.Upper[i]})
		lower = append(lower, plotter.XY{X: x, Y: l.Lower[i]})
	}
	if len(upper) < 2 {
		return nil, nil
	}
	ring := make(plotter.XYs, 0, 2*len(upper))
	ring = append(ring, upper...)
	for i := len(lower) - 1; i >= 0; i-- {
		ring = append(ring, lower[i])
	}
	return plotter.NewPolygon(ring)
}

func stepTicks(lo, hi, step float64) []plot.Tick {
	var ticks []plot.Tick
	start := math.Ceil(lo/step) * step
	for v := start; v <= hi+1e-9; v += step {
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return ticks
}

func translucent(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
