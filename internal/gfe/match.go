package gfe

import "math"

// matchLabels pairs estimated labels (rows of confusion) with true labels
// (columns) one-to-one so that the matched counts sum to the maximum.
// match[i] is the column paired with row i, or -1 for a surplus estimated
// group. Counts are integers, so the search is exact.
func matchLabels(confusion [][]int) []int {
	rows := len(confusion)
	if rows == 0 {
		return nil
	}
	cols := len(confusion[0])
	match := make([]int, rows)
	for i := range match {
		match[i] = -1
	}
	if cols == 0 {
		return match
	}

	// The solver wants the shorter side as its rows. Surplus estimated
	// groups are then simply the columns it leaves free.
	if rows <= cols {
		copy(match, maxAgreement(rows, cols, func(r, c int) int { return confusion[r][c] }))
		return match
	}
	for c, r := range maxAgreement(cols, rows, func(c, r int) int { return confusion[r][c] }) {
		match[r] = c
	}
	return match
}

// maxAgreement assigns each of n rows a distinct one of m >= n columns,
// maximising the summed agreement. It grows the matching one row at a time
// along shortest augmenting paths over reduced costs (-agreement minus
// both potentials), which stay non-negative on every edge.
func maxAgreement(n, m int, agreement func(r, c int) int) []int {
	const unreachable = math.MaxInt / 4

	rowPot := make([]int, n+1)
	colPot := make([]int, m+1)
	holder := make([]int, m+1) // 1-based row matched to column c, 0 when free
	via := make([]int, m+1)
	slack := make([]int, m+1)
	done := make([]bool, m+1)

	for r := 1; r <= n; r++ {
		holder[0] = r
		for c := range slack {
			slack[c] = unreachable
			done[c] = false
		}
		col := 0
		for holder[col] != 0 {
			done[col] = true
			row := holder[col]
			delta, next := unreachable, 0
			for c := 1; c <= m; c++ {
				if done[c] {
					continue
				}
				if reduced := -agreement(row-1, c-1) - rowPot[row] - colPot[c]; reduced < slack[c] {
					slack[c], via[c] = reduced, col
				}
				if slack[c] < delta {
					delta, next = slack[c], c
				}
			}
			for c := 0; c <= m; c++ {
				if done[c] {
					rowPot[holder[c]] += delta
					colPot[c] -= delta
				} else {
					slack[c] -= delta
				}
			}
			col = next
		}
		for col != 0 {
			prev := via[col]
			holder[col] = holder[prev]
			col = prev
		}
	}

	assigned := make([]int, n)
	for c := 1; c <= m; c++ {
		if holder[c] != 0 {
			assigned[holder[c]-1] = c - 1
		}
	}
	return assigned
}
