// Package stata exchanges frames with Stata .dta files, the format the
// external GFE tool reads and writes.
package stata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"time"

	"github.com/banshee-data/gfe-panel/internal/frame"
)

// Release is the dta format version produced by Write (Stata 13).
const Release = 117

// Type codes for format 117.
const (
	typeStrMax uint16 = 2045
	typeDouble uint16 = 65526
	typeLong   uint16 = 65528
)

const (
	longMin = -2147483647
	longMax = 2147483620

	nameWidth     = 33
	formatWidth   = 49
	varLabelWidth = 81
	maxLabelLen   = 80
)

// missingDouble is Stata's system missing value "." for doubles.
var missingDouble = math.Float64frombits(0x7fe0000000000000)

// doubleLimit is the largest magnitude readers keep; beyond it a double is
// read back as missing.
const doubleLimit = 8.988e307

var varNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,31}$`)

// WriteOptions controls header metadata. A zero Timestamp is written as an
// empty field, which keeps repeated exports byte-identical.
type WriteOptions struct {
	Label     string
	Timestamp time.Time
}

type variable struct {
	col    *frame.Column
	typ    uint16
	width  int
	format string
}

// WriteFile writes f to path, replacing any existing file.
func WriteFile(path string, f *frame.Frame, opts WriteOptions) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, opts); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Write encodes f as a little-endian format 117 file. Float columns become
// doubles (NaN as missing; infinities and magnitudes above doubleLimit
// are rejected), Int columns become longs and String columns
// fixed-width strings.
func Write(w io.Writer, f *frame.Frame, opts WriteOptions) error {
	vars, err := describe(f)
	if err != nil {
		return err
	}
	if len(opts.Label) > maxLabelLen {
		return fmt.Errorf("dataset label longer than %d bytes", maxLabelLen)
	}
	if uint64(f.Len()) > math.MaxUint32 {
		return fmt.Errorf("too many rows for dta %d: %d", Release, f.Len())
	}

	le := binary.LittleEndian
	var b bytes.Buffer
	var offsets [14]uint64
	mark := func(i int) { offsets[i] = uint64(b.Len()) }
	u16 := func(v uint16) { _ = binary.Write(&b, le, v) }

	b.WriteString("<stata_dta><header><release>")
	fmt.Fprintf(&b, "%d", Release)
	b.WriteString("</release><byteorder>LSF</byteorder><K>")
	u16(uint16(len(vars)))
	b.WriteString("</K><N>")
	_ = binary.Write(&b, le, uint32(f.Len()))
	b.WriteString("</N><label>")
	b.WriteByte(byte(len(opts.Label)))
	b.WriteString(opts.Label)
	b.WriteString("</label><timestamp>")
	if opts.Timestamp.IsZero() {
		b.WriteByte(0)
	} else {
		ts := opts.Timestamp.Format("02 Jan 2006 15:04")
		b.WriteByte(byte(len(ts)))
		b.WriteString(ts)
	}
	b.WriteString("</timestamp></header>")

	mark(1)
	b.WriteString("<map>")
	mapAt := b.Len()
	b.Write(make([]byte, 8*len(offsets)))
	b.WriteString("</map>")

	mark(2)
	b.WriteString("<variable_types>")
	for _, v := range vars {
		u16(v.typ)
	}
	b.WriteString("</variable_types>")

	mark(3)
	b.WriteString("<varnames>")
	for _, v := range vars {
		writeFixed(&b, v.col.Name, nameWidth)
	}
	b.WriteString("</varnames>")

	mark(4)
	b.WriteString("<sortlist>")
	for i := 0; i <= len(vars); i++ {
		u16(0)
	}
	b.WriteString("</sortlist>")

	mark(5)
	b.WriteString("<formats>")
	for _, v := range vars {
		writeFixed(&b, v.format, formatWidth)
	}
	b.WriteString("</formats>")

	mark(6)
	b.WriteString("<value_label_names>")
	for range vars {
		writeFixed(&b, "", nameWidth)
	}
	b.WriteString("</value_label_names>")

	mark(7)
	b.WriteString("<variable_labels>")
	for range vars {
		writeFixed(&b, "", varLabelWidth)
	}
	b.WriteString("</variable_labels>")

	mark(8)
	b.WriteString("<characteristics></characteristics>")

	mark(9)
	b.WriteString("<data>")
	for row := 0; row < f.Len(); row++ {
		for _, v := range vars {
			switch v.col.Kind {
			case frame.Float:
				x := v.col.Floats[row]
				if math.IsNaN(x) {
					x = missingDouble
				}
				_ = binary.Write(&b, le, x)
			case frame.Int:
				_ = binary.Write(&b, le, int32(v.col.Ints[row]))
			case frame.String:
				writeFixed(&b, v.col.Strings[row], v.width)
			}
		}
	}
	b.WriteString("</data>")

	mark(10)
	b.WriteString("<strls></strls>")
	mark(11)
	b.WriteString("<value_labels></value_labels>")
	mark(12)
	b.WriteString("</stata_dta>")
	mark(13)

	out := b.Bytes()
	for i, off := range offsets {
		le.PutUint64(out[mapAt+8*i:], off)
	}

	_, err = w.Write(out)
	return err
}

// describe maps frame columns to dta variables, checking names and ranges.
func describe(f *frame.Frame) ([]variable, error) {
	if len(f.Columns()) == 0 {
		return nil, fmt.Errorf("frame has no columns")
	}
	if len(f.Columns()) > math.MaxUint16 {
		return nil, fmt.Errorf("too many columns: %d", len(f.Columns()))
	}

	vars := make([]variable, 0, len(f.Columns()))
	for _, c := range f.Columns() {
		if !varNameRE.MatchString(c.Name) {
			return nil, fmt.Errorf("column %q is not a valid Stata variable name", c.Name)
		}
		v := variable{col: c}
		switch c.Kind {
		case frame.Float:
			for i, x := range c.Floats {
				if !math.IsNaN(x) && math.Abs(x) > doubleLimit {
					return nil, fmt.Errorf("column %q row %d = %v is outside the Stata double range", c.Name, i, x)
				}
			}
			v.typ, v.width, v.format = typeDouble, 8, "%10.0g"
		case frame.Int:
			for i, x := range c.Ints {
				if x < longMin || x > longMax {
					return nil, fmt.Errorf("column %q row %d = %d does not fit a Stata long", c.Name, i, x)
				}
			}
			v.typ, v.width, v.format = typeLong, 4, "%12.0g"
		case frame.String:
			width := 1
			for _, s := range c.Strings {
				if len(s) > width {
					width = len(s)
				}
			}
			if width > int(typeStrMax) {
				return nil, fmt.Errorf("column %q has strings longer than %d bytes", c.Name, typeStrMax)
			}
			v.typ, v.width, v.format = uint16(width), width, fmt.Sprintf("%%%ds", width)
		default:
			return nil, fmt.Errorf("column %q has unsupported kind %s", c.Name, c.Kind)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// writeFixed writes s NUL-padded (or truncated) to exactly width bytes.
func writeFixed(b *bytes.Buffer, s string, width int) {
	if len(s) > width {
		s = s[:width]
	}
	b.WriteString(s)
	for i := len(s); i < width; i++ {
		b.WriteByte(0)
	}
}
