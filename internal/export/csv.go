package export

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/gfe-panel/internal/frame"
)

// WriteCSV writes a header row followed by one record per row. Floats use
// the shortest representation that round-trips; NaN is written empty.
func WriteCSV(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return err
	}

	cols := f.Columns()
	record := make([]string, len(cols))
	for row := 0; row < f.Len(); row++ {
		for i, c := range cols {
			record[i] = cell(c, row)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(c *frame.Column, row int) string {
	switch c.Kind {
	case frame.Float:
		v := c.Floats[row]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case frame.Int:
		return strconv.FormatInt(c.Ints[row], 10)
	default:
		return c.Strings[row]
	}
}
