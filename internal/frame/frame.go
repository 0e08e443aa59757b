// Package frame holds the small named-column table that moves panel data
// between the generator, the file codecs and the plotting code.
package frame

import (
	"fmt"
	"math"
)

// Kind is the storage type of a Column.
type Kind int

const (
	Float Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is one named vector. Exactly one of the value slices is used,
// selected by Kind.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
}

// FloatColumn returns a Float column.
func FloatColumn(name string, v []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: v}
}

// IntColumn returns an Int column.
func IntColumn(name string, v []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: v}
}

// StringColumn returns a String column.
func StringColumn(name string, v []string) *Column {
	return &Column{Name: name, Kind: String, Strings: v}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Float:
		return len(c.Floats)
	case Int:
		return len(c.Ints)
	default:
		return len(c.Strings)
	}
}

// Frame is an ordered set of equal-length columns with unique names.
type Frame struct {
	cols  []*Column
	index map[string]int
}

// New builds a Frame, rejecting duplicate names and ragged columns.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("nil column")
		}
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", len(f.cols))
		}
		if _, dup := f.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if len(f.cols) > 0 && c.Len() != f.cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d values, want %d", c.Name, c.Len(), f.cols[0].Len())
		}
		f.index[c.Name] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Len returns the row count.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Columns returns the columns in order. The slice must not be modified.
func (f *Frame) Columns() []*Column { return f.cols }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Has reports whether the frame carries a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// FloatsOf returns the named column as float64, widening Int columns.
func (f *Frame) FloatsOf(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	switch c.Kind {
	case Float:
		return c.Floats, nil
	case Int:
		out := make([]float64, len(c.Ints))
		for i, v := range c.Ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
}

// IntsOf returns the named column as int64. Float columns are accepted
// only when every value is integral; NaN (a missing value) is an error.
func (f *Frame) IntsOf(name string) ([]int64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	switch c.Kind {
	case Int:
		return c.Ints, nil
	case Float:
		out := make([]int64, len(c.Floats))
		for i, v := range c.Floats {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("column %q row %d is missing", name, i)
			}
			if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
				return nil, fmt.Errorf("column %q row %d = %v is not an integer", name, i, v)
			}
			out[i] = int64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is %s, not numeric", name, c.Kind)
	}
}

// StringsOf returns the named String column.
func (f *Frame) StringsOf(name string) ([]string, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if c.Kind != String {
		return nil, fmt.Errorf("column %q is %s, not string", name, c.Kind)
	}
	return c.Strings, nil
}
