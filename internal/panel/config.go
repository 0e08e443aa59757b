package panel

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid panel configuration")

// Default magnitudes for the stochastic parts of the panel.
const (
	DefaultTrendNoise = 25.0
	DefaultNoiseSD    = 10.0
	DefaultBetaX1     = 15.0
	DefaultBetaX2     = 5.0
)

// MaxRows bounds Individuals*Periods so a panel always fits in memory.
const MaxRows = 1 << 24

// Config describes one synthetic panel.
//
// Thresholds partition [0,1) into Groups consecutive intervals: an
// individual whose uniform draw falls below Thresholds[g] (and not below
// any earlier threshold) belongs to group g. TrendIncrements[g] is the
// deterministic per-period drift of group g's latent trajectory.
type Config struct {
	Individuals     int       `json:"individuals"`
	Periods         int       `json:"periods"`
	Groups          int       `json:"groups"`
	Thresholds      []float64 `json:"thresholds"`
	TrendIncrements []float64 `json:"trend_increments"`

	// TrendNoise scales the U[0,1) draw added to each trend step.
	TrendNoise float64 `json:"trend_noise"`
	// NoiseSD is the standard deviation of the row disturbance.
	NoiseSD float64 `json:"noise_sd"`
	BetaX1  float64 `json:"beta_x1"`
	BetaX2  float64 `json:"beta_x2"`
}

// DefaultConfig returns the three-group design used for the replication
// exercise: ten individuals over twenty periods.
func DefaultConfig() Config {
	return Config{
		Individuals:     10,
		Periods:         20,
		Groups:          3,
		Thresholds:      []float64{0.33, 0.66, 1},
		TrendIncrements: []float64{2, 1, 4},
		TrendNoise:      DefaultTrendNoise,
		NoiseSD:         DefaultNoiseSD,
		BetaX1:          DefaultBetaX1,
		BetaX2:          DefaultBetaX2,
	}
}

// Validate checks cardinalities and the threshold partition. It never
// touches a random source, so callers can reject a configuration before
// any draw happens.
func (c Config) Validate() error {
	if c.Individuals <= 0 {
		return invalidf("individuals must be positive, got %d", c.Individuals)
	}
	if c.Periods <= 0 {
		return invalidf("periods must be positive, got %d", c.Periods)
	}
	if c.Individuals > MaxRows/c.Periods {
		return invalidf("%d individuals over %d periods exceeds %d rows", c.Individuals, c.Periods, MaxRows)
	}
	if c.Groups <= 0 {
		return invalidf("groups must be positive, got %d", c.Groups)
	}
	if len(c.Thresholds) != c.Groups {
		return invalidf("got %d thresholds for %d groups", len(c.Thresholds), c.Groups)
	}
	if len(c.TrendIncrements) != c.Groups {
		return invalidf("got %d trend increments for %d groups", len(c.TrendIncrements), c.Groups)
	}

	prev := 0.0
	for i, th := range c.Thresholds {
		if math.IsNaN(th) || th <= 0 || th > 1 {
			return invalidf("threshold %d = %v outside (0,1]", i, th)
		}
		if i > 0 && th <= prev {
			return invalidf("thresholds not strictly ascending at %d (%v after %v)", i, th, prev)
		}
		prev = th
	}
	if last := c.Thresholds[len(c.Thresholds)-1]; last != 1 {
		return invalidf("last threshold must be 1, got %v", last)
	}

	for i, inc := range c.TrendIncrements {
		if math.IsNaN(inc) || math.IsInf(inc, 0) {
			return invalidf("trend increment %d is not finite", i)
		}
	}
	if !finiteNonNegative(c.TrendNoise) {
		return invalidf("trend_noise must be finite and non-negative, got %v", c.TrendNoise)
	}
	if !finiteNonNegative(c.NoiseSD) {
		return invalidf("noise_sd must be finite and non-negative, got %v", c.NoiseSD)
	}
	if math.IsNaN(c.BetaX1) || math.IsInf(c.BetaX1, 0) || math.IsNaN(c.BetaX2) || math.IsInf(c.BetaX2, 0) {
		return invalidf("covariate coefficients must be finite")
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
