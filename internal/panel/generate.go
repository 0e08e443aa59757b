package panel

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NewSource returns a PCG source seeded from seed. Each call returns an
// independent stream, so concurrent generations never share state.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed)
}

// GenerateSeeded is Generate with a fresh source for seed.
func GenerateSeeded(cfg Config, seed uint64) (*Panel, error) {
	p, err := Generate(cfg, NewSource(seed))
	if err != nil {
		return nil, err
	}
	p.Seed = seed
	return p, nil
}

// Generate synthesises a balanced panel from cfg, consuming src in a fixed
// order: group trends, memberships, then the X1, X2 and noise columns.
// The configuration is validated before the first draw.
func Generate(cfg Config, src rand.Source) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("nil random source")
	}

	unit := distuv.Uniform{Min: 0, Max: 1, Src: src}
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	trends := buildTrends(cfg, unit)

	membership := make([]int, cfg.Individuals)
	for i := range membership {
		g := AssignGroup(unit.Rand(), cfg.Thresholds)
		if g < 0 {
			// Validate guarantees a last threshold of 1 and draws are < 1.
			return nil, fmt.Errorf("draw for individual %d fell outside the threshold partition", i)
		}
		membership[i] = g + 1
	}

	n := cfg.Individuals * cfg.Periods
	rows := make([]Observation, 0, n)
	for i, label := range membership {
		trend := trends[label-1]
		for t := 0; t < cfg.Periods; t++ {
			rows = append(rows, Observation{
				Time:       t,
				Individual: i,
				Group:      label,
				Y0:         trend[t],
			})
		}
	}

	for r := range rows {
		rows[r].X1 = unit.Rand()
	}
	for r := range rows {
		rows[r].X2 = unit.Rand()
	}
	for r := range rows {
		rows[r].Noise = cfg.NoiseSD * noise.Rand()
	}
	for r := range rows {
		rows[r].Y = cfg.Outcome(rows[r].Y0, rows[r].X1, rows[r].X2, rows[r].Noise)
	}

	return &Panel{
		Config:     cfg,
		Trends:     trends,
		Membership: membership,
		Rows:       rows,
	}, nil
}

// Outcome is the observed outcome for one row.
func (c Config) Outcome(y0, x1, x2, noise float64) float64 {
	return y0 + c.BetaX2*x2 + c.BetaX1*x1 + noise
}

// buildTrends draws every group trajectory. Each trajectory starts from an
// implicit zero and accumulates increment + TrendNoise*U[0,1) per period;
// the zero itself is not part of the result.
func buildTrends(cfg Config, unit distuv.Uniform) [][]float64 {
	trends := make([][]float64, cfg.Groups)
	for g := range trends {
		traj := make([]float64, cfg.Periods)
		level := 0.0
		for t := range traj {
			level = level + cfg.TrendIncrements[g] + unit.Rand()*cfg.TrendNoise
			traj[t] = level
		}
		trends[g] = traj
	}
	return trends
}
