// Package panel synthesises balanced panels with latent group trends, the
// ground truth fed to a group-fixed-effects estimator.
package panel

import (
	"github.com/banshee-data/gfe-panel/internal/frame"
)

// Column names used by Frame, in export order.
const (
	ColX1         = "X1"
	ColX2         = "X2"
	ColY0         = "Y0"
	ColNoise      = "noise"
	ColY          = "Y"
	ColTime       = "time"
	ColIndividual = "individual"
	ColGroup      = "group"
)

// Observation is one (individual, time) row.
type Observation struct {
	X1    float64 `json:"x1"`
	X2    float64 `json:"x2"`
	Y0    float64 `json:"y0"`
	Noise float64 `json:"noise"`
	Y     float64 `json:"y"`

	Time       int `json:"time"`
	Individual int `json:"individual"`
	// Group is the 1-based group label.
	Group int `json:"group"`
}

// Panel is a generated dataset together with the artefacts that produced it.
// Rows are ordered by individual, then time.
type Panel struct {
	Config Config
	Seed   uint64

	// Trends[g][t] is the latent level of group label g+1 at period t.
	Trends [][]float64
	// Membership[i] is the 1-based group label of individual i.
	Membership []int
	Rows       []Observation
}

// Trend returns the trajectory for a 1-based group label, or nil.
func (p *Panel) Trend(label int) []float64 {
	if label < 1 || label > len(p.Trends) {
		return nil
	}
	return p.Trends[label-1]
}

// GroupOf returns the group label of individual i, or 0 when i is out of range.
func (p *Panel) GroupOf(i int) int {
	if i < 0 || i >= len(p.Membership) {
		return 0
	}
	return p.Membership[i]
}

// GroupCounts returns the number of individuals per group, indexed by
// label-1.
func (p *Panel) GroupCounts() []int {
	counts := make([]int, p.Config.Groups)
	for _, g := range p.Membership {
		if g >= 1 && g <= len(counts) {
			counts[g-1]++
		}
	}
	return counts
}

// IndividualRows returns the rows of individual i. Rows are stored
// individual-major, so this is a sub-slice and must not be modified.
func (p *Panel) IndividualRows(i int) []Observation {
	T := p.Config.Periods
	if i < 0 || T <= 0 || (i+1)*T > len(p.Rows) {
		return nil
	}
	return p.Rows[i*T : (i+1)*T]
}

// Frame converts the rows to the exported column layout.
func (p *Panel) Frame() *frame.Frame {
	n := len(p.Rows)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y0 := make([]float64, n)
	u := make([]float64, n)
	y := make([]float64, n)
	tt := make([]int64, n)
	ind := make([]int64, n)
	grp := make([]int64, n)
	for i, r := range p.Rows {
		x1[i], x2[i], y0[i], u[i], y[i] = r.X1, r.X2, r.Y0, r.Noise, r.Y
		tt[i], ind[i], grp[i] = int64(r.Time), int64(r.Individual), int64(r.Group)
	}

	// Column names are unique and lengths equal, so New cannot fail.
	f, err := frame.New(
		frame.FloatColumn(ColX1, x1),
		frame.FloatColumn(ColX2, x2),
		frame.FloatColumn(ColY0, y0),
		frame.FloatColumn(ColNoise, u),
		frame.FloatColumn(ColY, y),
		frame.IntColumn(ColTime, tt),
		frame.IntColumn(ColIndividual, ind),
		frame.IntColumn(ColGroup, grp),
	)
	if err != nil {
		panic(err)
	}
	return f
}

// TrendFrame returns the latent trajectories in long form: group, time, level.
func (p *Panel) TrendFrame() *frame.Frame {
	var grp, tt []int64
	var lvl []float64
	for g, traj := range p.Trends {
		for t, v := range traj {
			grp = append(grp, int64(g+1))
			tt = append(tt, int64(t))
			lvl = append(lvl, v)
		}
	}
	f, err := frame.New(
		frame.IntColumn(ColGroup, grp),
		frame.IntColumn(ColTime, tt),
		frame.FloatColumn("level", lvl),
	)
	if err != nil {
		panic(err)
	}
	return f
}
