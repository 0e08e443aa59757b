package panel

// AssignGroup maps a uniform draw to a group index by scanning the
// ascending thresholds and returning the first one the draw is strictly
// below. A draw equal to a threshold belongs to the next group. It
// returns -1 when the draw is not below any threshold.
func AssignGroup(draw float64, thresholds []float64) int {
	for g, th := range thresholds {
		if draw < th {
			return g
		}
	}
	return -1
}
