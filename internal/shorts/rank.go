package shorts

import "slices"

// MaxSelectedShorts caps how many candidates a single run keeps.
const MaxSelectedShorts = 50

// Limit returns the effective selection size for a requested target.
func Limit(target int) int {
	if target <= 0 {
		return 0
	}
	return min(target, MaxSelectedShorts)
}

// RankAndTruncate orders candidates by view count, highest first, and keeps at
// most Limit(target) of them. Ties keep their discovery order. The input slice
// is not modified.
func RankAndTruncate(candidates []Candidate, target int) []Candidate {
	limit := Limit(target)
	if limit == 0 || len(candidates) == 0 {
		return []Candidate{}
	}
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		av, bv := a.ViewCount.Int(), b.ViewCount.Int()
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		default:
			return 0
		}
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
