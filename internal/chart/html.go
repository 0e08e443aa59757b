package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes one HTML page holding an interactive line chart per
// figure. Interval bands are not drawn; only the lines are.
func RenderHTML(w io.Writer, figs ...Figure) error {
	if len(figs) == 0 {
		return fmt.Errorf("no figures to render")
	}

	page := components.NewPage()
	for _, fig := range figs {
		line, err := echartsLine(fig)
		if err != nil {
			return err
		}
		page.AddCharts(line)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func echartsLine(fig Figure) (*charts.Line, error) {
	if err := fig.Validate(); err != nil {
		return nil, err
	}

	legend := opts.Legend{Show: opts.Bool(true), Top: "30"}
	if fig.LegendBottom {
		legend = opts.Legend{Show: opts.Bool(true), Bottom: "0"}
	}

	xAxis := opts.XAxis{Type: "value", Name: fig.XLabel, NameLocation: "middle", NameGap: 25}
	if lo, hi, ok := fig.xRange(); ok {
		xAxis.Min, xAxis.Max = lo, hi
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title, Width: "960px", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(legend),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Name: fig.YLabel, Scale: opts.Bool(true)}),
	)

	fallback := Palette(len(fig.Lines))
	for i, l := range fig.Lines {
		c := l.Color
		if c == nil {
			c = fallback[i]
		}
		data := make([]opts.LineData, 0, len(l.X))
		for j := range l.X {
			if !finite(l.X[j]) || !finite(l.Y[j]) {
				continue
			}
			data = append(data, opts.LineData{Value: []interface{}{l.X[j], l.Y[j]}})
		}
		hex := Hex(c)
		line.AddSeries(l.Label, data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hex}),
		)
	}
	return line, nil
}
