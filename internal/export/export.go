// Package export writes frames in the formats handed to downstream tools.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/gfe-panel/internal/frame"
	"github.com/banshee-data/gfe-panel/internal/stata"
)

// Format is an output file format.
type Format string

const (
	DTA  Format = "dta"
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormats parses a comma-separated list such as "dta,csv".
// Duplicates are dropped; an empty list is an error.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		switch f {
		case DTA, CSV, XLSX:
		default:
			return nil, fmt.Errorf("unknown format %q (want dta, csv or xlsx)", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return out, nil
}

// Options carries format-specific settings.
type Options struct {
	Stata stata.WriteOptions
	// Sheet names the XLSX worksheet; defaults to "data".
	Sheet string
}

// WriteFile writes f to path in the given format.
func WriteFile(path string, format Format, f *frame.Frame, opts Options) error {
	if format == DTA {
		return stata.WriteFile(path, f, opts.Stata)
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	switch format {
	case CSV:
		err = WriteCSV(fh, f)
	case XLSX:
		err = WriteXLSX(fh, f, opts.Sheet)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteAll writes f as <dir>/<base>.<format> for each format and returns
// the paths written.
func WriteAll(dir, base string, formats []Format, f *frame.Frame, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := filepath.Join(dir, base+"."+string(format))
		if err := WriteFile(path, format, f, opts); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
