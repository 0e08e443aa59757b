package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/gfe-panel/internal/frame"
)

// WriteXLSX writes f to a single worksheet with a header row. NaN cells are
// left blank.
func WriteXLSX(w io.Writer, f *frame.Frame, sheet string) error {
	if sheet == "" {
		sheet = "data"
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(f.Columns()))
	for _, name := range f.Names() {
		header = append(header, name)
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cols := f.Columns()
	for row := 0; row < f.Len(); row++ {
		values := make([]interface{}, len(cols))
		for i, c := range cols {
			switch c.Kind {
			case frame.Float:
				if v := c.Floats[row]; !math.IsNaN(v) {
					values[i] = v
				}
			case frame.Int:
				values[i] = c.Ints[row]
			default:
				values[i] = c.Strings[row]
			}
		}
		addr, err := excelize.CoordinatesToCellName(1, row+2)
		if err != nil {
			return err
		}
		if err := book.SetSheetRow(sheet, addr, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return nil
}
