package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
	"civicpulse/internal/domain/org"
	"civicpulse/internal/domain/relevance"
	"civicpulse/internal/domain/trend"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultWeights(), zerolog.Nop())
}

func baseProfile() *org.Profile {
	return &org.Profile{
		OrgID:          "org-1",
		Name:           "Housing Forward",
		PolicyDomains:  []string{"Housing", "Healthcare"},
		FocusAreas:     []string{"rent control", "tenant protections"},
		GeographyScope: []string{"US-CA"},
		Active:         true,
	}
}

func TestScoreMissingProfileIsHardError(t *testing.T) {
	s := newTestScorer()

	_, err := s.Score(trend.Trend{ID: "t1"}, nil, nil, nil)
	if !errors.Is(err, org.ErrProfileNotFound) {
		t.Fatalf("Score() error = %v, want ErrProfileNotFound", err)
	}
}

func TestScoreBounds(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name       string
		t          trend.Trend
		watchlist  []org.WatchlistEntry
		affinities []affinity.TopicAffinity
	}{
		{
			name: "empty trend scores zero",
			t:    trend.Trend{ID: "t1"},
		},
		{
			name: "everything matches stays within 100",
			t: trend.Trend{
				ID:            "t2",
				Title:         "rent control and tenant protections expand",
				PolicyDomains: []string{"Housing", "Healthcare"},
				Geographies:   []string{"US-CA"},
				Politicians:   []string{"Gavin Newsom"},
				Breaking:      true,
			},
			watchlist: []org.WatchlistEntry{
				{OrgID: "org-1", Name: "Newsom"},
				{OrgID: "org-1", Name: "Gavin Newsom"},
			},
			affinities: []affinity.TopicAffinity{
				{OrgID: "org-1", Topic: "housing", Score: 0.95, UseCount: 10},
				{OrgID: "org-1", Topic: "healthcare", Score: 0.95},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Score(tt.t, baseProfile(), tt.watchlist, tt.affinities)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if result.Score < 0 || result.Score > 100 {
				t.Errorf("Score = %f, want within [0,100]", result.Score)
			}
		})
	}
}

func TestScoreAffinityUsesAverageNotMax(t *testing.T) {
	s := newTestScorer()

	// Profile with no declared domains so the affinity term is isolated.
	profile := &org.Profile{OrgID: "org-1"}
	tr := trend.Trend{
		ID:            "t1",
		PolicyDomains: []string{"Housing", "Economy"},
	}
	affinities := []affinity.TopicAffinity{
		{OrgID: "org-1", Topic: "housing", Score: 0.9},
		{OrgID: "org-1", Topic: "economy", Score: 0.3},
	}

	result, err := s.Score(tr, profile, nil, affinities)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// Average 0.6 scaled into the 20-point cap, never the 0.9 maximum.
	if math.Abs(result.Score-12.0) > 1e-9 {
		t.Errorf("affinity term = %f, want 12.0 (average-based)", result.Score)
	}
}

func TestScoreAffinityContributionNeverExceedsCap(t *testing.T) {
	s := newTestScorer()

	profile := &org.Profile{OrgID: "org-1"}
	tr := trend.Trend{
		ID:            "t1",
		PolicyDomains: []string{"Housing"},
		Keywords:      []string{"eviction moratorium"},
	}
	// Both entries pinned at the stored maximum.
	affinities := []affinity.TopicAffinity{
		{OrgID: "org-1", Topic: "housing", Score: affinity.MaxScore, UseCount: 50},
		{OrgID: "org-1", Topic: "eviction moratorium", Score: affinity.MaxScore, UseCount: 50},
	}

	result, err := s.Score(tr, profile, nil, affinities)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if result.Score > DefaultWeights().AffinityCap {
		t.Errorf("affinity contribution = %f, exceeds cap %f", result.Score, DefaultWeights().AffinityCap)
	}
	if !result.HasFlag(relevance.FlagProvenTopic) {
		t.Errorf("expected %s flag at avg affinity %.2f", relevance.FlagProvenTopic, affinity.MaxScore)
	}
}

func TestScoreDomainOverlapCapped(t *testing.T) {
	s := newTestScorer()

	profile := &org.Profile{
		OrgID:         "org-1",
		PolicyDomains: []string{"Housing", "Healthcare", "Economy", "Education"},
	}
	tr := trend.Trend{
		ID:            "t1",
		PolicyDomains: []string{"Housing", "Healthcare", "Economy", "Education"},
	}
	// Affinity entries keep the exploration bonus out of the way.
	affinities := []affinity.TopicAffinity{
		{Topic: "housing", UseCount: 5, Score: affinity.MinScore},
		{Topic: "healthcare", UseCount: 5, Score: affinity.MinScore},
		{Topic: "economy", UseCount: 5, Score: affinity.MinScore},
		{Topic: "education", UseCount: 5, Score: affinity.MinScore},
	}

	result, err := s.Score(tr, profile, nil, affinities)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// Four overlaps at 15 points each would be 60 uncapped; the domain
	// term must stop at 35. The affinity term adds avg 0.2 scaled = 4.
	want := 35.0 + 4.0
	if math.Abs(result.Score-want) > 1e-9 {
		t.Errorf("Score = %f, want %f (capped domain term)", result.Score, want)
	}
	if len(result.MatchedDomains) != 4 {
		t.Errorf("MatchedDomains = %v, want all four", result.MatchedDomains)
	}
}

func TestScoreWatchlistMatch(t *testing.T) {
	s := newTestScorer()

	profile := &org.Profile{OrgID: "org-1"}
	tr := trend.Trend{
		ID:          "t1",
		Politicians: []string{"Gavin Newsom"},
		Legislation: []string{"Affordable Care Act"},
	}
	watchlist := []org.WatchlistEntry{
		{OrgID: "org-1", Name: "Newsom", Kind: org.WatchlistPolitician},
		{OrgID: "org-1", Name: "Affordable Care Act", Kind: org.WatchlistLegislation},
		{OrgID: "org-1", Name: "Sierra Club", Kind: org.WatchlistOrganization},
	}

	result, err := s.Score(tr, profile, watchlist, nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if !result.HasFlag(relevance.FlagWatchlistMatch) {
		t.Error("expected watchlist-match flag")
	}
	if len(result.MatchedWatchlist) != 2 {
		t.Errorf("MatchedWatchlist = %v, want 2 matches", result.MatchedWatchlist)
	}
	// Two matches at 8 points each, below the 15-point cap only by clamping.
	if math.Abs(result.Score-15.0) > 1e-9 {
		t.Errorf("Score = %f, want 15.0 (capped watchlist term)", result.Score)
	}
}

func TestScoreExplorationBonus(t *testing.T) {
	s := newTestScorer()

	tr := trend.Trend{
		ID:            "t1",
		PolicyDomains: []string{"Healthcare"},
	}
	profile := &org.Profile{
		OrgID:         "org-1",
		PolicyDomains: []string{"Healthcare"},
	}

	t.Run("untried declared domain earns bonus", func(t *testing.T) {
		result, err := s.Score(tr, profile, nil, nil)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !result.HasFlag(relevance.FlagNewOpportunity) {
			t.Error("expected new-opportunity flag")
		}
		// 15 domain overlap + 10 exploration.
		if math.Abs(result.Score-25.0) > 1e-9 {
			t.Errorf("Score = %f, want 25.0", result.Score)
		}
	})

	t.Run("domain used in two campaigns loses bonus", func(t *testing.T) {
		affinities := []affinity.TopicAffinity{
			{OrgID: "org-1", Topic: "healthcare", Score: 0.5, UseCount: 2},
		}
		result, err := s.Score(tr, profile, nil, affinities)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if result.HasFlag(relevance.FlagNewOpportunity) {
			t.Error("unexpected new-opportunity flag")
		}
		// 15 domain overlap + 0.5*20 affinity.
		if math.Abs(result.Score-25.0) > 1e-9 {
			t.Errorf("Score = %f, want 25.0", result.Score)
		}
	})
}

func TestScoreBreakingRequiresFloor(t *testing.T) {
	s := newTestScorer()

	t.Run("below floor gets no bonus", func(t *testing.T) {
		profile := &org.Profile{OrgID: "org-1"}
		tr := trend.Trend{
			ID:          "t1",
			Breaking:    true,
			Politicians: []string{"Chuck Schumer"},
		}
		watchlist := []org.WatchlistEntry{{OrgID: "org-1", Name: "Schumer"}}

		result, err := s.Score(tr, profile, watchlist, nil)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		// Watchlist term alone is 8, under the floor of 30.
		if result.HasFlag(relevance.FlagBreaking) {
			t.Error("breaking bonus applied below relevance floor")
		}
		if math.Abs(result.Score-8.0) > 1e-9 {
			t.Errorf("Score = %f, want 8.0", result.Score)
		}
	})

	t.Run("above floor gets bonus", func(t *testing.T) {
		profile := &org.Profile{
			OrgID:         "org-1",
			PolicyDomains: []string{"Housing", "Economy"},
		}
		tr := trend.Trend{
			ID:            "t1",
			Breaking:      true,
			PolicyDomains: []string{"Housing", "Economy"},
		}
		affinities := []affinity.TopicAffinity{
			{Topic: "housing", UseCount: 3, Score: affinity.MinScore},
			{Topic: "economy", UseCount: 3, Score: affinity.MinScore},
		}

		result, err := s.Score(tr, profile, nil, affinities)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if !result.HasFlag(relevance.FlagBreaking) {
			t.Error("expected breaking flag above relevance floor")
		}
		// 30 domains + 4 affinity + 5 breaking.
		if math.Abs(result.Score-39.0) > 1e-9 {
			t.Errorf("Score = %f, want 39.0", result.Score)
		}
	})
}

func TestScoreGeographyMatch(t *testing.T) {
	s := newTestScorer()

	profile := &org.Profile{
		OrgID:          "org-1",
		GeographyScope: []string{"US-CA", "US"},
	}
	tr := trend.Trend{
		ID:          "t1",
		Geographies: []string{"US-CA"},
		Granularity: trend.GranularityState,
	}

	result, err := s.Score(tr, profile, nil, nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(result.Score-5.0) > 1e-9 {
		t.Errorf("Score = %f, want 5.0", result.Score)
	}
}

func TestScorePriorityBuckets(t *testing.T) {
	tests := []struct {
		score float64
		want  relevance.Priority
	}{
		{90, relevance.PriorityHigh},
		{55, relevance.PriorityHigh},
		{54.9, relevance.PriorityMedium},
		{30, relevance.PriorityMedium},
		{29.9, relevance.PriorityLow},
		{0, relevance.PriorityLow},
	}

	for _, tt := range tests {
		if got := relevance.PriorityFor(tt.score); got != tt.want {
			t.Errorf("PriorityFor(%f) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestScoreReasonsExplainEveryTerm(t *testing.T) {
	s := newTestScorer()

	tr := trend.Trend{
		ID:            "t1",
		Title:         "rent control ballot measure advances",
		PolicyDomains: []string{"Housing"},
		Geographies:   []string{"US-CA"},
	}

	result, err := s.Score(tr, baseProfile(), nil, nil)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// Domain overlap, focus area, exploration, geography: four terms.
	if len(result.Reasons) != 4 {
		t.Errorf("Reasons = %v, want 4 entries", result.Reasons)
	}
}
