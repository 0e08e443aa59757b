// Package chart renders line figures for the synthetic panel and the case
// study, as PNG via gonum/plot and as interactive HTML via go-echarts.
package chart

import (
	"fmt"
	"image/color"
	"math"
)

// Line is one series. Lower and Upper, when both set, describe an interval
// band drawn behind the line.
type Line struct {
	Label string
	X     []float64
	Y     []float64
	Lower []float64
	Upper []float64
	Color color.Color
}

// HasBand reports whether the line carries a complete interval band.
func (l Line) HasBand() bool {
	return len(l.Lower) == len(l.X) && len(l.Upper) == len(l.X) && len(l.X) > 0
}

// Figure is a titled set of lines sharing axes.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	// XTickStep, when positive, places x ticks at multiples of the step.
	XTickStep    float64
	Lines        []Line
	LegendBottom bool
}

// Validate checks series lengths.
func (f Figure) Validate() error {
	if len(f.Lines) == 0 {
		return fmt.Errorf("figure %q has no lines", f.Title)
	}
	for _, l := range f.Lines {
		if len(l.X) != len(l.Y) {
			return fmt.Errorf("line %q: %d x values for %d y values", l.Label, len(l.X), len(l.Y))
		}
		if (l.Lower != nil || l.Upper != nil) && !l.HasBand() {
			return fmt.Errorf("line %q: interval band length mismatch", l.Label)
		}
	}
	return nil
}

// xRange returns the finite x extent over all lines.
func (f Figure) xRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, l := range f.Lines {
		for _, x := range l.X {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				continue
			}
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
	}
	return lo, hi, lo <= hi
}
