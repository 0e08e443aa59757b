// Package gfe reads group assignments produced by the external GFE
// estimator and scores them against the synthetic ground truth.
package gfe

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gfe-panel/internal/frame"
	"github.com/banshee-data/gfe-panel/internal/panel"
)

// Assignment is one estimator output row.
type Assignment struct {
	Individual int `json:"individual"`
	// Time is -1 when the result file has no time column.
	Time  int `json:"time"`
	Group int `json:"group"`
}

// Columns names the result-file variables.
type Columns struct {
	Individual string
	Time       string
	Assignment string
}

// DefaultColumns matches the estimator's output file.
func DefaultColumns() Columns {
	return Columns{Individual: "individual", Time: "time", Assignment: "assignment"}
}

// AssignmentsFromFrame extracts assignments. The time column is optional;
// a missing assignment value is an error.
func AssignmentsFromFrame(f *frame.Frame, cols Columns) ([]Assignment, error) {
	ind, err := f.IntsOf(cols.Individual)
	if err != nil {
		return nil, fmt.Errorf("individual column: %w", err)
	}
	grp, err := f.IntsOf(cols.Assignment)
	if err != nil {
		return nil, fmt.Errorf("assignment column: %w", err)
	}
	var tt []int64
	if cols.Time != "" && f.Has(cols.Time) {
		if tt, err = f.IntsOf(cols.Time); err != nil {
			return nil, fmt.Errorf("time column: %w", err)
		}
	}

	out := make([]Assignment, len(ind))
	for i := range ind {
		a := Assignment{Individual: int(ind[i]), Time: -1, Group: int(grp[i])}
		if tt != nil {
			a.Time = int(tt[i])
		}
		out[i] = a
	}
	return out, nil
}

// IndividualSummary aggregates one individual's assignments.
type IndividualSummary struct {
	Individual int     `json:"individual"`
	Count      int     `json:"count"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	// Stable is true when every period carries the same label.
	Stable bool `json:"stable"`
	// Modal is the most frequent label; ties go to the smaller label.
	Modal int `json:"modal"`
}

// Summarize groups assignments by individual, sorted by individual.
func Summarize(as []Assignment) []IndividualSummary {
	byInd := make(map[int][]float64)
	for _, a := range as {
		byInd[a.Individual] = append(byInd[a.Individual], float64(a.Group))
	}

	ids := make([]int, 0, len(byInd))
	for id := range byInd {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]IndividualSummary, 0, len(ids))
	for _, id := range ids {
		vals := byInd[id]
		s := IndividualSummary{
			Individual: id,
			Count:      len(vals),
			Mean:       stat.Mean(vals, nil),
			Min:        floats.Min(vals),
			Max:        floats.Max(vals),
		}
		s.Stable = s.Min == s.Max
		s.Modal = modal(vals)
		out = append(out, s)
	}
	return out
}

func modal(vals []float64) int {
	counts := make(map[int]int)
	for _, v := range vals {
		counts[int(v)]++
	}
	best, bestN := 0, -1
	for label, n := range counts {
		if n > bestN || (n == bestN && label < best) {
			best, bestN = label, n
		}
	}
	return best
}

// TruthFromPanel returns individual -> true group label.
func TruthFromPanel(p *panel.Panel) map[int]int {
	truth := make(map[int]int, len(p.Membership))
	for i, g := range p.Membership {
		truth[i] = g
	}
	return truth
}

// TruthFromFrame reads individual -> group from an exported panel file.
// An individual carrying two different groups is an error.
func TruthFromFrame(f *frame.Frame) (map[int]int, error) {
	ind, err := f.IntsOf(panel.ColIndividual)
	if err != nil {
		return nil, err
	}
	grp, err := f.IntsOf(panel.ColGroup)
	if err != nil {
		return nil, err
	}
	truth := make(map[int]int)
	for i := range ind {
		id, g := int(ind[i]), int(grp[i])
		if prev, ok := truth[id]; ok && prev != g {
			return nil, fmt.Errorf("individual %d switches from group %d to %d", id, prev, g)
		}
		truth[id] = g
	}
	return truth, nil
}
