// internal/service/scoring/selector.go

package scoring

import (
	"sort"
	"strings"

	"civicpulse/internal/domain/relevance"
)

// Selector produces the final ranked slate for an organization from its
// scored trends. Three greedy passes enforce the diversity guarantees:
//
//  1. Coverage: for each declared domain, the single highest-scoring
//     unselected trend matching it, so every declared interest is
//     represented at least once when data allows.
//  2. Exploration: remaining new-opportunity trends, highest score first.
//  3. Raw score: highest-scoring remainder until the slate reaches N.
//
// The output is re-sorted by score descending regardless of which pass
// selected each item. Equal scores break by trend ID ascending so the
// slate is stable across runs.
type Selector struct{}

// NewSelector creates a new diversity selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns an ordered slate of at most n results. candidates are
// the organization's relevance results already filtered to the minimum
// threshold. With no declared domains the coverage pass is skipped and
// selection is score-only.
func (s *Selector) Select(candidates []relevance.Result, declaredDomains []string, n int) []relevance.Result {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	ordered := make([]relevance.Result, len(candidates))
	copy(ordered, candidates)
	sortByScore(ordered)

	selected := make(map[string]bool, n)
	slate := make([]relevance.Result, 0, n)

	// Pass 1: guarantee one trend per declared domain.
	for _, domain := range declaredDomains {
		if len(slate) >= n {
			break
		}
		for _, r := range ordered {
			if selected[r.TrendID] || !matchesDomain(r, domain) {
				continue
			}
			selected[r.TrendID] = true
			slate = append(slate, r)
			break
		}
	}

	// Pass 2: fill with exploration candidates.
	for _, r := range ordered {
		if len(slate) >= n {
			break
		}
		if selected[r.TrendID] || !r.HasFlag(relevance.FlagNewOpportunity) {
			continue
		}
		selected[r.TrendID] = true
		slate = append(slate, r)
	}

	// Pass 3: fill the remainder by raw score.
	for _, r := range ordered {
		if len(slate) >= n {
			break
		}
		if selected[r.TrendID] {
			continue
		}
		selected[r.TrendID] = true
		slate = append(slate, r)
	}

	sortByScore(slate)

	return slate
}

func matchesDomain(r relevance.Result, domain string) bool {
	for _, d := range r.MatchedDomains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// sortByScore orders results score descending, trend ID ascending on ties.
func sortByScore(results []relevance.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].TrendID < results[j].TrendID
	})
}
