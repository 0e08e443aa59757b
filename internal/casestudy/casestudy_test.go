package casestudy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gfe-panel/internal/chart"
	"github.com/banshee-data/gfe-panel/internal/frame"
)

func sampleFrame(t *testing.T, codes *frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(
		codes,
		frame.FloatColumn("year", []float64{1970, 1970, 1970, 1975, 1975, math.NaN()}),
		frame.FloatColumn("assignment", []float64{4, 4, 2, 4, 2, 4}),
		frame.FloatColumn("fhpolrigaug", []float64{0.9, 0.7, 0.1, 1, math.NaN(), 0.5}),
		frame.FloatColumn("lrgdpch", []float64{9, 8, 6, 9.5, 6.2, 7}),
	)
	require.NoError(t, err)
	return f
}

func TestLoad(t *testing.T) {
	t.Run("string codes", func(t *testing.T) {
		f := sampleFrame(t, frame.StringColumn("code", []string{"FRA", "GBR", "TCD", "FRA", "TCD", "USA"}))
		obs, err := Load(f, DefaultColumns(), DefaultLabels)
		require.NoError(t, err)
		require.Len(t, obs, 5, "row with missing year is dropped")
		assert.Equal(t, Observation{Code: "FRA", Year: 1970, Democracy: 0.9, LogGDP: 9, Assignment: 4, Group: "high democracy"}, obs[0])
		assert.Equal(t, "low democracy", obs[2].Group)
		assert.True(t, math.IsNaN(obs[4].Democracy))
	})

	t.Run("numeric codes", func(t *testing.T) {
		f := sampleFrame(t, frame.IntColumn("code", []int64{250, 826, 148, 250, 148, 840}))
		obs, err := Load(f, DefaultColumns(), DefaultLabels)
		require.NoError(t, err)
		require.Len(t, obs, 5)
		assert.Equal(t, "250", obs[0].Code)
		assert.Equal(t, "148", obs[4].Code)
	})

	t.Run("missing column", func(t *testing.T) {
		f := sampleFrame(t, frame.StringColumn("country", []string{"a", "b", "c", "d", "e", "f"}))
		_, err := Load(f, DefaultColumns(), DefaultLabels)
		assert.Error(t, err)
	})
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "late transition", Label(DefaultLabels, 3))
	assert.Equal(t, "group 7", Label(DefaultLabels, 7))
	assert.Equal(t, "group 1", Label(nil, 1))
}

func TestGroupMeans(t *testing.T) {
	obs := []Observation{
		{Code: "a", Year: 1970, Democracy: 1, Group: "low democracy"},
		{Code: "b", Year: 1970, Democracy: 3, Group: "low democracy"},
		{Code: "a", Year: 1975, Democracy: 2, Group: "low democracy"},
		{Code: "c", Year: 1970, Democracy: 0.8, Group: "high democracy"},
		{Code: "d", Year: 1970, Democracy: math.NaN(), Group: "high democracy"},
		{Code: "e", Year: 1965, Democracy: 0.4, Group: "group 9"},
	}

	lines, err := GroupMeans(obs, Democracy, DefaultOrder, DefaultPalette)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "high democracy", lines[0].Label)
	assert.Equal(t, "low democracy", lines[1].Label)
	assert.Equal(t, "group 9", lines[2].Label, "unlisted groups go last")

	low := lines[1]
	assert.Equal(t, []float64{1970, 1975}, low.X)
	assert.Equal(t, []float64{2, 2}, low.Y)
	// sd of {1,3} is sqrt(2).
	half := 1.96 * math.Sqrt2 / math.Sqrt2
	assert.InDelta(t, 2-half, low.Lower[0], 1e-12)
	assert.InDelta(t, 2+half, low.Upper[0], 1e-12)
	assert.True(t, math.IsNaN(low.Lower[1]), "single value has no interval")

	assert.Equal(t, []float64{0.8}, lines[0].Y, "NaN values are ignored")
	assert.Equal(t, "#1f77b4", chart.Hex(lines[0].Color))
	assert.Nil(t, lines[2].Color)

	_, err = GroupMeans(obs, Democracy, nil, map[string]string{"low democracy": "not-a-colour"})
	assert.Error(t, err)
}

func TestFigures(t *testing.T) {
	f := sampleFrame(t, frame.StringColumn("code", []string{"FRA", "GBR", "TCD", "FRA", "TCD", "USA"}))
	obs, err := Load(f, DefaultColumns(), DefaultLabels)
	require.NoError(t, err)

	dem, gdp, err := Figures(obs, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, dem.Validate())
	require.NoError(t, gdp.Validate())

	assert.Equal(t, "Democracy", dem.YLabel)
	assert.Equal(t, "log GDP per capita", gdp.YLabel)
	assert.True(t, dem.LegendBottom)
	require.Len(t, dem.Lines, 2)
	assert.InDeltaSlice(t, []float64{0.8, 1}, dem.Lines[0].Y, 1e-12)
	// TCD's 1975 democracy value is missing, so only the 1970 year remains.
	assert.Equal(t, []float64{1970}, dem.Lines[1].X)
	assert.Equal(t, []float64{1970, 1975}, gdp.Lines[1].X)
}

func TestAssignmentRanges(t *testing.T) {
	obs := []Observation{
		{Code: "b", Assignment: 2},
		{Code: "a", Assignment: 1},
		{Code: "a", Assignment: 3},
		{Code: "b", Assignment: 2},
	}
	got := AssignmentRanges(obs)
	require.Len(t, got, 2)
	assert.Equal(t, CountryRange{Code: "a", Mean: 2, Min: 1, Max: 3, Range: 2}, got[0])
	assert.Equal(t, CountryRange{Code: "b", Mean: 2, Min: 2, Max: 2, Range: 0}, got[1])
	assert.Empty(t, AssignmentRanges(nil))
}
