package gfe

import (
	"fmt"
	"sort"
)

// Recovery compares estimated groups with the true ones. Estimated labels
// are arbitrary, so they are first relabelled by the one-to-one mapping
// that maximises agreement.
type Recovery struct {
	// EstimatedLabels and TrueLabels index the rows and columns of Confusion.
	EstimatedLabels []int   `json:"estimated_labels"`
	TrueLabels      []int   `json:"true_labels"`
	Confusion       [][]int `json:"confusion"`

	// Mapping sends an estimated label to its matched true label. Surplus
	// estimated groups are absent.
	Mapping map[int]int `json:"mapping"`

	Scored   int     `json:"scored"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`

	// Unstable lists individuals whose estimated label changes over time;
	// they are scored on their modal label.
	Unstable []int `json:"unstable,omitempty"`
	// Missing lists true individuals absent from the results.
	Missing []int `json:"missing,omitempty"`
	// Unknown lists result individuals absent from the truth.
	Unknown []int `json:"unknown,omitempty"`
}

// Recover scores summaries (one per individual) against truth.
func Recover(truth map[int]int, summaries []IndividualSummary) (*Recovery, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("empty ground truth")
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no assignments to score")
	}

	rec := &Recovery{Mapping: make(map[int]int)}

	estIdx := make(map[int]int)
	trueIdx := make(map[int]int)
	seen := make(map[int]bool)
	type pair struct{ est, tru int }
	var pairs []pair
	for _, s := range summaries {
		tru, ok := truth[s.Individual]
		if !ok {
			rec.Unknown = append(rec.Unknown, s.Individual)
			continue
		}
		seen[s.Individual] = true
		if !s.Stable {
			rec.Unstable = append(rec.Unstable, s.Individual)
		}
		estIdx[s.Modal] = 0
		trueIdx[tru] = 0
		pairs = append(pairs, pair{s.Modal, tru})
	}
	for id := range truth {
		if !seen[id] {
			rec.Missing = append(rec.Missing, id)
		}
	}
	sort.Ints(rec.Missing)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no result individual appears in the ground truth")
	}

	rec.EstimatedLabels = sortedKeys(estIdx)
	rec.TrueLabels = sortedKeys(trueIdx)
	for i, l := range rec.EstimatedLabels {
		estIdx[l] = i
	}
	for j, l := range rec.TrueLabels {
		trueIdx[l] = j
	}

	rec.Confusion = make([][]int, len(rec.EstimatedLabels))
	for i := range rec.Confusion {
		rec.Confusion[i] = make([]int, len(rec.TrueLabels))
	}
	for _, p := range pairs {
		rec.Confusion[estIdx[p.est]][trueIdx[p.tru]]++
	}

	for i, j := range matchLabels(rec.Confusion) {
		if j < 0 {
			continue
		}
		rec.Mapping[rec.EstimatedLabels[i]] = rec.TrueLabels[j]
		rec.Correct += rec.Confusion[i][j]
	}

	rec.Scored = len(pairs)
	rec.Accuracy = float64(rec.Correct) / float64(rec.Scored)
	return rec, nil
}

// Relabel maps an estimated label through the recovered mapping, returning
// 0 for an unmatched label.
func (r *Recovery) Relabel(est int) int {
	return r.Mapping[est]
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
