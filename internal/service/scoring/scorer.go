// internal/service/scoring/scorer.go

package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
	"civicpulse/internal/domain/org"
	"civicpulse/internal/domain/relevance"
	"civicpulse/internal/domain/trend"
)

// Weights holds the per-term caps of the additive scoring model. Declared
// intent (domains, focus areas, watchlist) can contribute up to 70 points
// while learned behavior is capped at 20, so a profile always outweighs
// history.
type Weights struct {
	DomainPoints  float64
	DomainCap     float64
	FocusPoints   float64
	FocusCap      float64
	WatchPoints   float64
	WatchCap      float64
	AffinityCap   float64
	Exploration   float64
	Geography     float64
	Breaking      float64
	BreakingFloor float64

	// ProvenThreshold is the average affinity above which the result is
	// flagged as a proven topic.
	ProvenThreshold float64

	// ExplorationMinUses is the campaign use count at which a declared
	// domain stops earning the exploration bonus.
	ExplorationMinUses int
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		DomainPoints:       15,
		DomainCap:          35,
		FocusPoints:        10,
		FocusCap:           20,
		WatchPoints:        8,
		WatchCap:           15,
		AffinityCap:        20,
		Exploration:        10,
		Geography:          5,
		Breaking:           5,
		BreakingFloor:      relevance.MediumThreshold,
		ProvenThreshold:    0.7,
		ExplorationMinUses: 2,
	}
}

// Scorer computes a bounded, explainable relevance score for one trend
// against one organization. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	weights Weights
	logger  zerolog.Logger
}

// NewScorer creates a new scorer.
func NewScorer(weights Weights, logger zerolog.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		logger:  logger,
	}
}

// Score computes the relevance result for a tagged trend against an
// organization's profile, watchlist, and current affinity set. Missing
// profile fields contribute zero; a nil profile is a hard error.
func (s *Scorer) Score(
	t trend.Trend,
	profile *org.Profile,
	watchlist []org.WatchlistEntry,
	affinities []affinity.TopicAffinity,
) (relevance.Result, error) {
	if profile == nil {
		return relevance.Result{}, fmt.Errorf("scoring trend %s: %w", t.ID, org.ErrProfileNotFound)
	}

	result := relevance.Result{
		OrgID:      profile.OrgID,
		TrendID:    t.ID,
		ComputedAt: time.Now(),
	}

	score := 0.0
	score += s.scoreDomainOverlap(t, profile, &result)
	score += s.scoreFocusAreas(t, profile, &result)
	score += s.scoreWatchlist(t, watchlist, &result)
	score += s.scoreAffinity(t, affinities, &result)
	score += s.scoreExploration(t, profile, affinities, &result)
	score += s.scoreGeography(t, profile, &result)

	// Breaking news may only top up trends that already clear the
	// relevance floor; it cannot rescue an otherwise-irrelevant trend.
	if t.Breaking && score >= s.weights.BreakingFloor {
		score += s.weights.Breaking
		result.Flags = append(result.Flags, relevance.FlagBreaking)
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("breaking news (+%.0f)", s.weights.Breaking))
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	result.Score = score
	result.Priority = relevance.PriorityFor(score)

	return result, nil
}

// scoreDomainOverlap awards points per declared policy domain the trend is
// tagged with, hard-capped.
func (s *Scorer) scoreDomainOverlap(t trend.Trend, profile *org.Profile, result *relevance.Result) float64 {
	trendDomains := lowerSet(t.PolicyDomains)

	var matched []string
	for _, d := range profile.PolicyDomains {
		if trendDomains[strings.ToLower(d)] {
			matched = append(matched, d)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	points := s.weights.DomainPoints * float64(len(matched))
	if points > s.weights.DomainCap {
		points = s.weights.DomainCap
	}

	result.MatchedDomains = matched
	result.Reasons = append(result.Reasons,
		fmt.Sprintf("matches declared domains %s (+%.0f)", strings.Join(matched, ", "), points))

	return points
}

// scoreFocusAreas awards points per free-text focus phrase contained in
// the trend's text, hard-capped.
func (s *Scorer) scoreFocusAreas(t trend.Trend, profile *org.Profile, result *relevance.Result) float64 {
	text := strings.ToLower(t.Title + " " + t.Summary + " " + strings.Join(t.Keywords, " "))

	var matched []string
	for _, phrase := range profile.FocusAreas {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p != "" && strings.Contains(text, p) {
			matched = append(matched, phrase)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	points := s.weights.FocusPoints * float64(len(matched))
	if points > s.weights.FocusCap {
		points = s.weights.FocusCap
	}

	result.Reasons = append(result.Reasons,
		fmt.Sprintf("mentions focus areas %s (+%.0f)", strings.Join(matched, ", "), points))

	return points
}

// scoreWatchlist matches the trend's entity sets against watchlist names,
// substring-tolerant in both directions.
func (s *Scorer) scoreWatchlist(t trend.Trend, watchlist []org.WatchlistEntry, result *relevance.Result) float64 {
	entities := make([]string, 0, len(t.Politicians)+len(t.Organizations)+len(t.Legislation))
	entities = append(entities, t.Politicians...)
	entities = append(entities, t.Organizations...)
	entities = append(entities, t.Legislation...)

	var matched []string
	for _, w := range watchlist {
		name := strings.ToLower(strings.TrimSpace(w.Name))
		if name == "" {
			continue
		}
		for _, e := range entities {
			entity := strings.ToLower(e)
			if strings.Contains(entity, name) || strings.Contains(name, entity) {
				matched = append(matched, w.Name)
				break
			}
		}
	}
	if len(matched) == 0 {
		return 0
	}

	points := s.weights.WatchPoints * float64(len(matched))
	if points > s.weights.WatchCap {
		points = s.weights.WatchCap
	}

	result.MatchedWatchlist = matched
	result.Flags = append(result.Flags, relevance.FlagWatchlistMatch)
	result.Reasons = append(result.Reasons,
		fmt.Sprintf("watchlist match: %s (+%.0f)", strings.Join(matched, ", "), points))

	return points
}

// scoreAffinity contributes the average (never the maximum) of the
// affinity scores for every topic the trend shares with the affinity
// table, scaled into a hard cap. Averaging prevents one historically
// dominant topic from crowding out the score.
func (s *Scorer) scoreAffinity(t trend.Trend, affinities []affinity.TopicAffinity, result *relevance.Result) float64 {
	topics := lowerSet(t.PolicyDomains)
	for _, kw := range t.Keywords {
		topics[strings.ToLower(kw)] = true
	}

	sum := 0.0
	count := 0
	for _, a := range affinities {
		if topics[strings.ToLower(a.Topic)] {
			sum += a.Score
			count++
		}
	}
	if count == 0 {
		return 0
	}

	avg := sum / float64(count)
	points := avg * s.weights.AffinityCap
	if points > s.weights.AffinityCap {
		points = s.weights.AffinityCap
	}

	if avg >= s.weights.ProvenThreshold {
		result.Flags = append(result.Flags, relevance.FlagProvenTopic)
	}
	result.Reasons = append(result.Reasons,
		fmt.Sprintf("past campaign affinity across %d topic(s), avg %.2f (+%.1f)", count, avg, points))

	return points
}

// scoreExploration awards a bonus when the trend matches a domain the
// organization declared but has used in fewer than two real campaigns.
// Declared-but-untried interests get a deliberate boost precisely because
// they lack learned history.
func (s *Scorer) scoreExploration(t trend.Trend, profile *org.Profile, affinities []affinity.TopicAffinity, result *relevance.Result) float64 {
	trendDomains := lowerSet(t.PolicyDomains)

	uses := make(map[string]int, len(affinities))
	for _, a := range affinities {
		uses[strings.ToLower(a.Topic)] = a.UseCount
	}

	for _, d := range profile.PolicyDomains {
		key := strings.ToLower(d)
		if !trendDomains[key] {
			continue
		}
		if uses[key] >= s.weights.ExplorationMinUses {
			continue
		}

		result.Flags = append(result.Flags, relevance.FlagNewOpportunity)
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("new opportunity in declared domain %s (+%.0f)", d, s.weights.Exploration))
		return s.weights.Exploration
	}

	return 0
}

// scoreGeography awards a small bonus when the trend's geography overlaps
// the organization's declared scope.
func (s *Scorer) scoreGeography(t trend.Trend, profile *org.Profile, result *relevance.Result) float64 {
	scope := lowerSet(profile.GeographyScope)
	for _, g := range t.Geographies {
		if scope[strings.ToLower(g)] {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("geography match on %s (+%.0f)", g, s.weights.Geography))
			return s.weights.Geography
		}
	}
	return 0
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
