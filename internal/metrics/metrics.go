// Package metrics provides society-level inequality, diversity, and mobility
// measures. All functions are pure and operate on plain numeric inputs.
package metrics

import (
	"math"
	"sort"
)

// Gini computes the Gini coefficient over a wealth vector using the standard
// discrete formula on the ascending-sorted values. The result is clamped to
// [0, 1] to absorb floating-point drift and defined as 0 for n <= 1.
func Gini(wealths []float64) float64 {
	n := len(wealths)
	if n <= 1 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, wealths)
	sort.Float64s(sorted)

	var total, weighted float64
	for i, w := range sorted {
		total += w
		weighted += float64(i+1) * w
	}
	if total == 0 {
		return 0
	}

	g := 2*weighted/(float64(n)*total) - float64(n+1)/float64(n)
	return math.Max(0, math.Min(1, g))
}

// Entropy computes the Shannon entropy (natural log, in nats) of a discrete
// count distribution. Returns 0 for an empty distribution. The epsilon inside
// the log guards against singularities at zero-probability entries; it never
// changes the result for counts that can actually occur.
func Entropy(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p+1e-10)
	}
	// The epsilon leaves a vanishing negative residue for p = 1.
	return math.Max(0, h)
}

// TopNShare returns the fraction of total wealth held by the n wealthiest
// entries. Returns 0 when the vector is empty or total wealth is 0.
func TopNShare(wealths []float64, n int) float64 {
	if len(wealths) == 0 || n <= 0 {
		return 0
	}

	sorted := make([]float64, len(wealths))
	copy(sorted, wealths)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var total float64
	for _, w := range sorted {
		total += w
	}
	if total == 0 {
		return 0
	}

	if n > len(sorted) {
		n = len(sorted)
	}
	var top float64
	for _, w := range sorted[:n] {
		top += w
	}
	return top / total
}

// Mobility summarizes rank movement between two consecutive snapshots.
// Upward, Downward, and Stable are fractions of the continuing agents
// (moving by more than one rank position counts as movement, matching the
// original ±1 band). MeanAbsChange is the mean absolute rank-change
// magnitude. Agents absent from either snapshot are excluded entirely.
type Mobility struct {
	Upward        float64 `json:"upward"`
	Downward      float64 `json:"downward"`
	Stable        float64 `json:"stable"`
	MeanAbsChange float64 `json:"mean_abs_change"`
	Continuing    int     `json:"continuing"`
}

// RankChanges compares wealth-rank positions of agents present in both
// snapshots. Ranks are computed within the continuing set only, descending by
// wealth with id tie-breaks for determinism.
func RankChanges(prev, curr map[string]float64) Mobility {
	var ids []string
	for id := range curr {
		if _, ok := prev[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return Mobility{}
	}

	prevRanks := rankWithin(ids, prev)
	currRanks := rankWithin(ids, curr)

	var up, down, stable int
	var absSum float64
	for _, id := range ids {
		delta := currRanks[id] - prevRanks[id]
		absSum += math.Abs(float64(delta))
		switch {
		case delta < -1:
			up++
		case delta > 1:
			down++
		default:
			stable++
		}
	}

	n := float64(len(ids))
	return Mobility{
		Upward:        float64(up) / n,
		Downward:      float64(down) / n,
		Stable:        float64(stable) / n,
		MeanAbsChange: absSum / n,
		Continuing:    len(ids),
	}
}

// rankWithin assigns rank 0 to the wealthiest of the given ids.
func rankWithin(ids []string, wealth map[string]float64) map[string]int {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		if wealth[sorted[i]] != wealth[sorted[j]] {
			return wealth[sorted[i]] > wealth[sorted[j]]
		}
		return sorted[i] < sorted[j]
	})

	ranks := make(map[string]int, len(sorted))
	for i, id := range sorted {
		ranks[id] = i
	}
	return ranks
}
