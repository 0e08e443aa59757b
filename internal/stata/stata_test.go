package stata

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gfe-panel/internal/frame"
	"github.com/banshee-data/gfe-panel/internal/panel"
)

func mustFrame(t *testing.T, cols ...*frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	require.NoError(t, err)
	return f
}

func TestWrite_Header(t *testing.T) {
	f := mustFrame(t, frame.FloatColumn("x", []float64{1, 2, 3}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, WriteOptions{Label: "test"}))
	out := buf.Bytes()

	prefix := "<stata_dta><header><release>117</release><byteorder>LSF</byteorder><K>"
	require.True(t, bytes.HasPrefix(out, []byte(prefix)))
	k := binary.LittleEndian.Uint16(out[len(prefix):])
	assert.Equal(t, uint16(1), k)
	assert.True(t, bytes.HasSuffix(out, []byte("</stata_dta>")))

	// The map must point at the section tags.
	mapTag := bytes.Index(out, []byte("<map>"))
	require.Positive(t, mapTag)
	offsets := make([]uint64, 14)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(out[mapTag+5+8*i:])
	}
	assert.Equal(t, uint64(0), offsets[0])
	assert.Equal(t, uint64(mapTag), offsets[1])
	tags := map[int]string{2: "<variable_types>", 3: "<varnames>", 9: "<data>", 12: "</stata_dta>"}
	for i, tag := range tags {
		assert.Equal(t, tag, string(out[offsets[i]:int(offsets[i])+len(tag)]), "map entry %d", i)
	}
	assert.Equal(t, uint64(len(out)), offsets[13])
}

func TestWrite_DeterministicBytes(t *testing.T) {
	cfg := panel.DefaultConfig()
	a, err := panel.GenerateSeeded(cfg, 5)
	require.NoError(t, err)
	b, err := panel.GenerateSeeded(cfg, 5)
	require.NoError(t, err)

	var bufA, bufB bytes.Buffer
	require.NoError(t, Write(&bufA, a.Frame(), WriteOptions{}))
	require.NoError(t, Write(&bufB, b.Frame(), WriteOptions{}))
	assert.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()), "same seed must give identical dta bytes")
}

func TestWrite_Timestamp(t *testing.T) {
	f := mustFrame(t, frame.IntColumn("n", []int64{1}))
	var buf bytes.Buffer
	ts := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	require.NoError(t, Write(&buf, f, WriteOptions{Timestamp: ts}))
	assert.Contains(t, buf.String(), "15 Oct 2026 09:30")
}

func TestWrite_Rejects(t *testing.T) {
	var buf bytes.Buffer

	assert.Error(t, Write(&buf, mustFrame(t), WriteOptions{}), "no columns")
	assert.Error(t, Write(&buf, mustFrame(t, frame.FloatColumn("1bad", []float64{1})), WriteOptions{}))
	assert.Error(t, Write(&buf, mustFrame(t, frame.FloatColumn("has space", []float64{1})), WriteOptions{}))
	assert.Error(t, Write(&buf, mustFrame(t, frame.IntColumn("big", []int64{math.MaxInt32 + 1})), WriteOptions{}))

	long := make([]byte, 81)
	assert.Error(t, Write(&buf, mustFrame(t, frame.IntColumn("n", []int64{1})), WriteOptions{Label: string(long)}))

	huge := string(make([]byte, 2046))
	assert.Error(t, Write(&buf, mustFrame(t, frame.StringColumn("s", []string{huge})), WriteOptions{}))

	for _, x := range []float64{math.Inf(1), math.Inf(-1), 1e308, -1e308} {
		assert.Error(t, Write(&buf, mustFrame(t, frame.FloatColumn("x", []float64{0, x})), WriteOptions{}), "%v", x)
	}
}

func TestRoundTrip_DoubleRangeEdges(t *testing.T) {
	f := mustFrame(t, frame.FloatColumn("x", []float64{doubleLimit, -doubleLimit}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, WriteOptions{}))
	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	vals, err := got.FloatsOf("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{doubleLimit, -doubleLimit}, vals)
}

func TestRoundTrip_NoRowsKeepsVariables(t *testing.T) {
	f := mustFrame(t,
		frame.IntColumn("individual", []int64{}),
		frame.FloatColumn("assignment", []float64{}),
		frame.StringColumn("code", []string{}),
	)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, WriteOptions{}))
	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"individual", "assignment", "code"}, got.Names())
	ind, err := got.FloatsOf("individual")
	require.NoError(t, err)
	assert.Empty(t, ind)
	codes, err := got.StringsOf("code")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestRoundTrip_Panel(t *testing.T) {
	p, err := panel.GenerateSeeded(panel.DefaultConfig(), 5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "df.dta")
	require.NoError(t, WriteFile(path, p.Frame(), WriteOptions{Label: "synthetic GFE panel"}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Frame().Names(), got.Names())
	assert.Equal(t, len(p.Rows), got.Len())

	y, err := got.FloatsOf(panel.ColY)
	require.NoError(t, err)
	ind, err := got.IntsOf(panel.ColIndividual)
	require.NoError(t, err)
	grp, err := got.IntsOf(panel.ColGroup)
	require.NoError(t, err)
	for i, r := range p.Rows {
		assert.Equal(t, r.Y, y[i], "row %d Y", i)
		assert.Equal(t, int64(r.Individual), ind[i], "row %d individual", i)
		assert.Equal(t, int64(r.Group), grp[i], "row %d group", i)
	}
}

func TestRoundTrip_StringsAndMissing(t *testing.T) {
	f := mustFrame(t,
		frame.StringColumn("code", []string{"AFG", "ALB", "DZA"}),
		frame.FloatColumn("value", []float64{1.25, math.NaN(), -3}),
	)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, WriteOptions{}))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	codes, err := got.StringsOf("code")
	require.NoError(t, err)
	assert.Equal(t, []string{"AFG", "ALB", "DZA"}, codes)

	vals, err := got.FloatsOf("value")
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, 1.25, vals[0])
	assert.True(t, math.IsNaN(vals[1]), "missing value should read back as NaN")
	assert.Equal(t, -3.0, vals[2])
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.dta"))
	assert.Error(t, err)
}
