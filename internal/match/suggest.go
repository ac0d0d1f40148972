package match

import (
	"slices"

	"github.com/samber/lo"
)

// DefaultThreshold is the similarity below which candidates are not proposed.
const DefaultThreshold = 0.6

type scored struct {
	name  string
	score float64
}

// Suggest returns up to n candidates whose similarity to name reaches
// threshold, best first. Ties keep the candidates' order.
func Suggest(name string, candidates []string, n int, threshold float64) []string {
	ranked := lo.FilterMap(candidates, func(c string, _ int) (scored, bool) {
		s := Similarity(name, c)
		return scored{name: c, score: s}, s >= threshold
	})

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	return lo.Map(ranked, func(s scored, _ int) string { return s.name })
}
