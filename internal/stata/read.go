package stata

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kshedden/datareader"

	"github.com/banshee-data/gfe-panel/internal/frame"
)

// ReadFile reads a .dta file from disk.
func ReadFile(path string) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Read(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

// Read decodes a .dta stream. Numeric variables of every storage width
// become Float columns with Stata missing values as NaN; string variables
// become String columns. Value labels are not applied, so categorical
// codes such as GFE assignments stay numeric.
func Read(r io.ReadSeeker) (*frame.Frame, error) {
	rdr, err := datareader.NewStataReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse dta header: %w", err)
	}
	rdr.InsertCategoryLabels = false

	n := rdr.RowCount()
	if n == 0 {
		return emptyFrame(rdr)
	}

	series, err := rdr.Read(n)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read dta rows: %w", err)
	}

	cols := make([]*frame.Column, 0, len(series))
	for _, s := range series {
		c, err := toColumn(s)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return frame.New(cols...)
}

// emptyFrame keeps the header's variables when there are no rows to read.
func emptyFrame(rdr *datareader.StataReader) (*frame.Frame, error) {
	names := rdr.ColumnNames()
	cols := make([]*frame.Column, 0, len(names))
	for i, t := range rdr.ColumnTypes() {
		switch {
		case t <= datareader.ColumnTypeT(typeStrMax):
			cols = append(cols, frame.StringColumn(names[i], []string{}))
		case t == datareader.StataStrlType:
			return nil, fmt.Errorf("variable %q has unsupported storage strL", names[i])
		default:
			cols = append(cols, frame.FloatColumn(names[i], []float64{}))
		}
	}
	return frame.New(cols...)
}

func toColumn(s *datareader.Series) (*frame.Column, error) {
	missing := s.Missing()
	isMissing := func(i int) bool { return i < len(missing) && missing[i] }

	var out []float64
	switch v := s.Data().(type) {
	case []float64:
		out = make([]float64, len(v))
		copy(out, v)
	case []float32:
		out = widen(v)
	case []int64:
		out = widen(v)
	case []int32:
		out = widen(v)
	case []int16:
		out = widen(v)
	case []int8:
		out = widen(v)
	case []string:
		strs := make([]string, len(v))
		copy(strs, v)
		return frame.StringColumn(s.Name, strs), nil
	default:
		return nil, fmt.Errorf("variable %q has unsupported storage %T", s.Name, v)
	}

	for i := range out {
		if isMissing(i) {
			out[i] = math.NaN()
		}
	}
	return frame.FloatColumn(s.Name, out), nil
}

func widen[T float32 | int64 | int32 | int16 | int8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
