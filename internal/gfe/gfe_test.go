package gfe

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gfe-panel/internal/frame"
	"github.com/banshee-data/gfe-panel/internal/panel"
	"github.com/banshee-data/gfe-panel/internal/stata"
)

func TestMatchLabels_Empty(t *testing.T) {
	assert.Nil(t, matchLabels(nil))
	assert.Equal(t, []int{-1, -1}, matchLabels([][]int{{}, {}}))
}

func TestMatchLabels_SurplusEstimatedGroup(t *testing.T) {
	// Four estimated groups against three true ones: the best relabelling
	// keeps 4+4+4 and leaves row 1 out.
	confusion := [][]int{
		{2, 1, 4},
		{2, 0, 4},
		{4, 1, 0},
		{0, 4, 1},
	}
	assert.Equal(t, []int{2, -1, 0, 1}, matchLabels(confusion))
}

func TestMatchLabels_FewerEstimatedGroups(t *testing.T) {
	confusion := [][]int{
		{0, 5, 1},
		{3, 4, 0},
	}
	assert.Equal(t, []int{1, 0}, matchLabels(confusion))
}

// bestAgreement is the exhaustive optimum over one-to-one relabellings.
func bestAgreement(confusion [][]int, row int, used []bool) int {
	if row == len(confusion) {
		return 0
	}
	best := bestAgreement(confusion, row+1, used)
	for c, n := range confusion[row] {
		if used[c] {
			continue
		}
		used[c] = true
		if v := n + bestAgreement(confusion, row+1, used); v > best {
			best = v
		}
		used[c] = false
	}
	return best
}

func TestMatchLabels_MatchesExhaustiveSearch(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 13))
	for rows := 1; rows <= 5; rows++ {
		for cols := 1; cols <= 5; cols++ {
			for trial := 0; trial < 100; trial++ {
				confusion := make([][]int, rows)
				for i := range confusion {
					confusion[i] = make([]int, cols)
					for j := range confusion[i] {
						confusion[i][j] = rng.IntN(7)
					}
				}

				match := matchLabels(confusion)
				require.Len(t, match, rows)
				used := make(map[int]bool)
				got := 0
				for i, j := range match {
					if j < 0 {
						continue
					}
					require.Less(t, j, cols)
					require.False(t, used[j], "column %d matched twice in %v", j, confusion)
					used[j] = true
					got += confusion[i][j]
				}
				require.Len(t, used, min(rows, cols), "%v", confusion)
				want := bestAgreement(confusion, 0, make([]bool, cols))
				require.Equal(t, want, got, "%dx%d %v -> %v", rows, cols, confusion, match)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	as := []Assignment{
		{Individual: 2, Time: 0, Group: 1},
		{Individual: 0, Time: 0, Group: 3},
		{Individual: 0, Time: 1, Group: 3},
		{Individual: 2, Time: 1, Group: 2},
		{Individual: 2, Time: 2, Group: 2},
	}
	got := Summarize(as)
	want := []IndividualSummary{
		{Individual: 0, Count: 2, Mean: 3, Min: 3, Max: 3, Stable: true, Modal: 3},
		{Individual: 2, Count: 3, Mean: 5.0 / 3.0, Min: 1, Max: 2, Stable: false, Modal: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestModal_TieGoesLow(t *testing.T) {
	assert.Equal(t, 1, modal([]float64{2, 1, 2, 1}))
}

func TestRecover_PermutedLabels(t *testing.T) {
	p, err := panel.GenerateSeeded(panel.DefaultConfig(), 5)
	require.NoError(t, err)
	truth := TruthFromPanel(p)

	// The estimator may number groups differently.
	perm := map[int]int{1: 3, 2: 1, 3: 2}
	var as []Assignment
	for _, r := range p.Rows {
		as = append(as, Assignment{Individual: r.Individual, Time: r.Time, Group: perm[r.Group]})
	}

	rec, err := Recover(truth, Summarize(as))
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.Accuracy)
	assert.Equal(t, len(p.Membership), rec.Scored)
	assert.Empty(t, rec.Unstable)
	assert.Empty(t, rec.Missing)
	for tru, est := range perm {
		if counts := p.GroupCounts(); counts[tru-1] > 0 {
			assert.Equal(t, tru, rec.Relabel(est), "estimated %d", est)
		}
	}
}

func TestRecover_ExtraGroupAndErrors(t *testing.T) {
	truth := map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 5: 3}
	summaries := Summarize([]Assignment{
		{Individual: 0, Group: 4},
		{Individual: 1, Group: 4},
		{Individual: 2, Group: 1},
		{Individual: 3, Group: 1},
		{Individual: 3, Group: 2},
		{Individual: 3, Group: 1},
		{Individual: 4, Group: 2},
		{Individual: 5, Group: 3},
		{Individual: 9, Group: 1},
	})

	rec, err := Recover(truth, summaries)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, rec.EstimatedLabels)
	assert.Equal(t, []int{1, 2, 3}, rec.TrueLabels)
	assert.Equal(t, 1, rec.Relabel(4))
	assert.Equal(t, 2, rec.Relabel(1))
	assert.Equal(t, 6, rec.Scored)
	assert.Equal(t, 5, rec.Correct)
	assert.InDelta(t, 5.0/6.0, rec.Accuracy, 1e-12)
	assert.Equal(t, []int{3}, rec.Unstable)
	assert.Equal(t, []int{9}, rec.Unknown)
	assert.Empty(t, rec.Missing)
}

func TestRecover_SurplusGroupTakesItsBestMatch(t *testing.T) {
	truth := map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 5: 3}
	summaries := []IndividualSummary{
		{Individual: 0, Modal: 4, Stable: true},
		{Individual: 1, Modal: 4, Stable: true},
		{Individual: 2, Modal: 1, Stable: true},
		{Individual: 3, Modal: 2, Stable: true},
		{Individual: 4, Modal: 3, Stable: true},
		{Individual: 5, Modal: 3, Stable: true},
	}

	rec, err := Recover(truth, summaries)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Relabel(4))
	assert.Equal(t, 3, rec.Relabel(3))
	assert.Len(t, rec.Mapping, 3)
	assert.Equal(t, 5, rec.Correct)
	assert.InDelta(t, 5.0/6.0, rec.Accuracy, 1e-12)
}

func TestRecover_Missing(t *testing.T) {
	rec, err := Recover(map[int]int{0: 1, 1: 2}, []IndividualSummary{{Individual: 0, Modal: 1, Stable: true}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, rec.Missing)
	assert.Equal(t, 1.0, rec.Accuracy)
}

func TestRecover_Errors(t *testing.T) {
	_, err := Recover(nil, []IndividualSummary{{Individual: 0}})
	assert.Error(t, err)
	_, err = Recover(map[int]int{0: 1}, nil)
	assert.Error(t, err)
	_, err = Recover(map[int]int{0: 1}, []IndividualSummary{{Individual: 7}})
	assert.Error(t, err)
}

func TestTruthFromFrame(t *testing.T) {
	p, err := panel.GenerateSeeded(panel.DefaultConfig(), 5)
	require.NoError(t, err)

	truth, err := TruthFromFrame(p.Frame())
	require.NoError(t, err)
	assert.Equal(t, TruthFromPanel(p), truth)

	bad, err := frame.New(
		frame.IntColumn("individual", []int64{0, 0}),
		frame.IntColumn("group", []int64{1, 2}),
	)
	require.NoError(t, err)
	_, err = TruthFromFrame(bad)
	assert.Error(t, err)
}

func TestAssignmentsFromFrame_ThroughStata(t *testing.T) {
	// Mimic the estimator's output: the exported panel plus an assignment column.
	p, err := panel.GenerateSeeded(panel.DefaultConfig(), 5)
	require.NoError(t, err)

	assign := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		assign[i] = float64(4 - r.Group)
	}
	cols := append([]*frame.Column{}, p.Frame().Columns()...)
	cols = append(cols, frame.FloatColumn("assignment", assign))
	out, err := frame.New(cols...)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, stata.Write(&buf, out, stata.WriteOptions{}))
	back, err := stata.Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	as, err := AssignmentsFromFrame(back, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, as, len(p.Rows))
	assert.Equal(t, 0, as[0].Time)

	truth, err := TruthFromFrame(back)
	require.NoError(t, err)
	rec, err := Recover(truth, Summarize(as))
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.Accuracy)
}

func TestAssignmentsFromFrame_NoTime(t *testing.T) {
	f, err := frame.New(
		frame.IntColumn("individual", []int64{0, 1}),
		frame.IntColumn("assignment", []int64{2, 1}),
	)
	require.NoError(t, err)

	as, err := AssignmentsFromFrame(f, DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{Individual: 0, Time: -1, Group: 2}, {Individual: 1, Time: -1, Group: 1}}, as)

	_, err = AssignmentsFromFrame(f, Columns{Individual: "individual", Assignment: "nope"})
	assert.Error(t, err)
}
