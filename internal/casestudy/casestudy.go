// Package casestudy prepares the democracy and income case study: countries
// grouped by the GFE estimator, averaged per group and year.
package casestudy

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gfe-panel/internal/chart"
	"github.com/banshee-data/gfe-panel/internal/frame"
)

// Columns names the variables of the estimator's output file.
type Columns struct {
	Democracy  string
	LogGDP     string
	Year       string
	Assignment string
	Code       string
}

// DefaultColumns matches the 5-year panel replication files.
func DefaultColumns() Columns {
	return Columns{
		Democracy:  "fhpolrigaug",
		LogGDP:     "lrgdpch",
		Year:       "year",
		Assignment: "assignment",
		Code:       "code",
	}
}

// DefaultLabels names the four estimated groups.
var DefaultLabels = map[int]string{
	1: "early transition",
	2: "low democracy",
	3: "late transition",
	4: "high democracy",
}

// DefaultOrder is the legend order.
var DefaultOrder = []string{"high democracy", "early transition", "late transition", "low democracy"}

// DefaultPalette assigns matplotlib colour names to group labels.
var DefaultPalette = map[string]string{
	"high democracy":   "tab:blue",
	"early transition": "black",
	"late transition":  "yellowgreen",
	"low democracy":    "tab:brown",
}

// Observation is one country-year.
type Observation struct {
	Code       string
	Year       int
	Democracy  float64
	LogGDP     float64
	Assignment int
	Group      string
}

// Measure selects the plotted variable.
type Measure func(Observation) float64

// Democracy and LogGDP are the two plotted measures.
var (
	Democracy Measure = func(o Observation) float64 { return o.Democracy }
	LogGDP    Measure = func(o Observation) float64 { return o.LogGDP }
)

// Label returns the group name for an assignment code.
func Label(labels map[int]string, assignment int) string {
	if l, ok := labels[assignment]; ok {
		return l
	}
	return fmt.Sprintf("group %d", assignment)
}

// Load extracts observations. Country codes may be stored as strings or
// numbers; rows with a missing year or assignment are skipped.
func Load(f *frame.Frame, cols Columns, labels map[int]string) ([]Observation, error) {
	dem, err := f.FloatsOf(cols.Democracy)
	if err != nil {
		return nil, err
	}
	gdp, err := f.FloatsOf(cols.LogGDP)
	if err != nil {
		return nil, err
	}
	years, err := f.FloatsOf(cols.Year)
	if err != nil {
		return nil, err
	}
	assign, err := f.FloatsOf(cols.Assignment)
	if err != nil {
		return nil, err
	}
	codes, err := codeStrings(f, cols.Code)
	if err != nil {
		return nil, err
	}

	out := make([]Observation, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if math.IsNaN(years[i]) || math.IsNaN(assign[i]) {
			continue
		}
		a := int(assign[i])
		out = append(out, Observation{
			Code:       codes[i],
			Year:       int(years[i]),
			Democracy:  dem[i],
			LogGDP:     gdp[i],
			Assignment: a,
			Group:      Label(labels, a),
		})
	}
	return out, nil
}

func codeStrings(f *frame.Frame, name string) ([]string, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if c.Kind == frame.String {
		return c.Strings, nil
	}
	vals, err := f.FloatsOf(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%g", v)
	}
	return out, nil
}

// GroupMeans averages m per group and year with a 95% normal interval.
// Groups follow order; groups not in order are appended alphabetically.
// NaN values are ignored; a year with a single value has no interval
// (NaN bounds).
func GroupMeans(obs []Observation, m Measure, order []string, palette map[string]string) ([]chart.Line, error) {
	byGroup := make(map[string]map[int][]float64)
	for _, o := range obs {
		v := m(o)
		if math.IsNaN(v) {
			continue
		}
		if byGroup[o.Group] == nil {
			byGroup[o.Group] = make(map[int][]float64)
		}
		byGroup[o.Group][o.Year] = append(byGroup[o.Group][o.Year], v)
	}

	var lines []chart.Line
	for _, g := range groupOrder(byGroup, order) {
		years := make([]int, 0, len(byGroup[g]))
		for y := range byGroup[g] {
			years = append(years, y)
		}
		sort.Ints(years)

		l := chart.Line{Label: g}
		for _, y := range years {
			vals := byGroup[g][y]
			mean, sd := stat.MeanStdDev(vals, nil)
			half := math.NaN()
			if len(vals) > 1 {
				half = 1.96 * sd / math.Sqrt(float64(len(vals)))
			}
			l.X = append(l.X, float64(y))
			l.Y = append(l.Y, mean)
			l.Lower = append(l.Lower, mean-half)
			l.Upper = append(l.Upper, mean+half)
		}
		if name, ok := palette[g]; ok {
			c, err := chart.ParseColor(name)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", g, err)
			}
			l.Color = c
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func groupOrder(byGroup map[string]map[int][]float64, order []string) []string {
	out := make([]string, 0, len(byGroup))
	listed := make(map[string]bool)
	for _, g := range order {
		listed[g] = true
		if _, ok := byGroup[g]; ok {
			out = append(out, g)
		}
	}
	var rest []string
	for g := range byGroup {
		if !listed[g] {
			rest = append(rest, g)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Options configures Figures.
type Options struct {
	Order   []string
	Palette map[string]string
}

// DefaultOptions returns the published group order and colours.
func DefaultOptions() Options {
	return Options{Order: DefaultOrder, Palette: DefaultPalette}
}

// Figures returns the democracy and log GDP figures.
func Figures(obs []Observation, o Options) (democracy, gdp chart.Figure, err error) {
	demLines, err := GroupMeans(obs, Democracy, o.Order, o.Palette)
	if err != nil {
		return democracy, gdp, err
	}
	gdpLines, err := GroupMeans(obs, LogGDP, o.Order, o.Palette)
	if err != nil {
		return democracy, gdp, err
	}
	democracy = chart.Figure{Title: "Democracy by GFE group", YLabel: "Democracy", Lines: demLines, LegendBottom: true}
	gdp = chart.Figure{Title: "Income by GFE group", YLabel: "log GDP per capita", Lines: gdpLines, LegendBottom: true}
	return democracy, gdp, nil
}

// CountryRange summarises the assignments one country received.
type CountryRange struct {
	Code  string
	Mean  float64
	Min   float64
	Max   float64
	Range float64
}

// AssignmentRanges returns per-country assignment statistics sorted by
// code. A non-zero Range means the country changed group across years.
func AssignmentRanges(obs []Observation) []CountryRange {
	byCode := make(map[string][]float64)
	for _, o := range obs {
		byCode[o.Code] = append(byCode[o.Code], float64(o.Assignment))
	}
	codes := make([]string, 0, len(byCode))
	for c := range byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	out := make([]CountryRange, 0, len(codes))
	for _, c := range codes {
		vals := byCode[c]
		r := CountryRange{Code: c, Mean: stat.Mean(vals, nil), Min: floats.Min(vals), Max: floats.Max(vals)}
		r.Range = r.Max - r.Min
		out = append(out, r)
	}
	return out
}
