package feedback

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
	"civicpulse/internal/domain/campaign"
	"civicpulse/internal/domain/trend"
)

type fakeCampaignStore struct {
	items     []campaign.Campaign
	processed map[string]bool
}

func (f *fakeCampaignStore) ListUnprocessed(ctx context.Context, limit int) ([]campaign.Campaign, error) {
	return f.items, nil
}

func (f *fakeCampaignStore) MarkProcessed(ctx context.Context, id string) error {
	if f.processed == nil {
		f.processed = make(map[string]bool)
	}
	f.processed[id] = true
	return nil
}

type fakeTrendStore struct {
	items []trend.Trend
	err   error
}

func (f *fakeTrendStore) FindTrends(ctx context.Context, filter trend.Filter) ([]trend.Trend, error) {
	return f.items, f.err
}

type fakeAffinityStore struct {
	entries    map[string]affinity.TopicAffinity
	failTopics map[string]bool
}

func key(orgID, topic string) string { return orgID + "|" + topic }

func (f *fakeAffinityStore) Get(ctx context.Context, orgID, topic string) (*affinity.TopicAffinity, error) {
	if a, ok := f.entries[key(orgID, topic)]; ok {
		copied := a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAffinityStore) Upsert(ctx context.Context, a affinity.TopicAffinity) error {
	if f.failTopics[a.Topic] {
		return errors.New("write refused")
	}
	if f.entries == nil {
		f.entries = make(map[string]affinity.TopicAffinity)
	}
	f.entries[key(a.OrgID, a.Topic)] = a
	return nil
}

func newTestLoop(campaigns *fakeCampaignStore, trends *fakeTrendStore, affinities *fakeAffinityStore) *Loop {
	return NewLoop(campaigns, trends, affinities, DefaultLoopConfig(), zerolog.Nop())
}

func rentControlScenario() (*fakeCampaignStore, *fakeTrendStore, *fakeAffinityStore) {
	completed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	campaigns := &fakeCampaignStore{items: []campaign.Campaign{{
		ID:               "c1",
		OrgID:            "org-1",
		Topics:           []string{"rent control"},
		Domains:          []string{"Housing"},
		PerformanceDelta: 40,
		CompletedAt:      completed,
	}}}

	trends := &fakeTrendStore{items: []trend.Trend{{
		ID:            "t1",
		Title:         "Rent control expansion clears committee",
		Keywords:      []string{"rent control"},
		PolicyDomains: []string{"Housing"},
		Active:        true,
	}}}

	affinities := &fakeAffinityStore{entries: map[string]affinity.TopicAffinity{
		key("org-1", "rent control"): {
			OrgID:      "org-1",
			Topic:      "rent control",
			Score:      0.5,
			UseCount:   3,
			Provenance: affinity.ProvenanceLearned,
		},
	}}

	return campaigns, trends, affinities
}

func TestRunAppliesEMAUpdate(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	loop := newTestLoop(campaigns, trends, affinities)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// +40% delta normalizes to 0.9; EMA from 0.5 at alpha 0.3 gives
	// 0.5*0.7 + 0.9*0.3 = 0.62.
	got := affinities.entries[key("org-1", "rent control")]
	if math.Abs(got.Score-0.62) > 1e-9 {
		t.Errorf("Score = %f, want 0.62", got.Score)
	}
	if got.UseCount != 4 {
		t.Errorf("UseCount = %d, want 4", got.UseCount)
	}
	if !got.LastUsed.Equal(campaigns.items[0].CompletedAt) {
		t.Errorf("LastUsed = %v, want campaign completion time", got.LastUsed)
	}
	if !campaigns.processed["c1"] {
		t.Error("campaign not marked processed")
	}
}

func TestRunCreatesAffinityOnFirstOutcome(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	loop := newTestLoop(campaigns, trends, affinities)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The campaign's Housing domain had no entry; it starts from neutral
	// 0.5 before the first EMA step.
	got, ok := affinities.entries[key("org-1", "housing")]
	if !ok {
		t.Fatal("housing affinity was not created")
	}
	if math.Abs(got.Score-0.62) > 1e-9 {
		t.Errorf("Score = %f, want 0.62", got.Score)
	}
	if got.Provenance != affinity.ProvenanceLearned {
		t.Errorf("Provenance = %v, want learned", got.Provenance)
	}
	if got.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1", got.UseCount)
	}
	if got.BestDelta != 40 {
		t.Errorf("BestDelta = %f, want 40", got.BestDelta)
	}
}

func TestCorrelateRequiresSharedDomainOrTopic(t *testing.T) {
	loop := newTestLoop(&fakeCampaignStore{}, &fakeTrendStore{}, &fakeAffinityStore{})

	c := campaign.Campaign{Domains: []string{"Housing"}, Topics: []string{"rent control"}}

	tests := []struct {
		name string
		t    trend.Trend
		want float64
	}{
		{
			name: "no overlap is zero",
			t:    trend.Trend{PolicyDomains: []string{"Energy"}, Keywords: []string{"pipeline"}},
			want: 0,
		},
		{
			name: "single domain overlap alone stays below minimum",
			t:    trend.Trend{PolicyDomains: []string{"Housing"}},
			want: 0.25,
		},
		{
			name: "domain and topic overlap",
			t:    trend.Trend{PolicyDomains: []string{"Housing"}, Keywords: []string{"rent control"}},
			want: 0.6,
		},
		{
			name: "breaking adds weight",
			t:    trend.Trend{PolicyDomains: []string{"Housing"}, Breaking: true},
			want: 0.35,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loop.Correlate(c, tt.t)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Correlate() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRunDiscardsWeakCorrelations(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	// Only a single domain overlap and negative performance: strength
	// 0.25 sits below the 0.3 minimum.
	campaigns.items[0].Topics = nil
	campaigns.items[0].PerformanceDelta = -10
	trends.items[0].Keywords = nil
	delete(affinities.entries, key("org-1", "rent control"))

	loop := newTestLoop(campaigns, trends, affinities)
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(affinities.entries) != 0 {
		t.Errorf("affinities updated despite weak correlation: %v", affinities.entries)
	}
}

func TestNormalizeDelta(t *testing.T) {
	tests := []struct {
		delta float64
		want  float64
	}{
		{0, 0.5},
		{40, 0.9},
		{50, 1.0},
		{100, 1.0},
		{-50, 0.0},
		{-100, 0.0},
		{-20, 0.3},
	}

	for _, tt := range tests {
		if got := NormalizeDelta(tt.delta); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeDelta(%f) = %f, want %f", tt.delta, got, tt.want)
		}
	}
}

func TestUpdateClampsIntoStoredRange(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	campaigns.items[0].PerformanceDelta = 100
	affinities.entries[key("org-1", "rent control")] = affinity.TopicAffinity{
		OrgID:      "org-1",
		Topic:      "rent control",
		Score:      0.94,
		Provenance: affinity.ProvenanceLearned,
	}

	loop := newTestLoop(campaigns, trends, affinities)
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// 0.94*0.7 + 1.0*0.3 = 0.958, clamped to the stored maximum.
	got := affinities.entries[key("org-1", "rent control")]
	if got.Score != affinity.MaxScore {
		t.Errorf("Score = %f, want clamped to %f", got.Score, affinity.MaxScore)
	}
}

func TestRunToleratesPartialFailure(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	affinities.failTopics = map[string]bool{"housing": true}

	loop := newTestLoop(campaigns, trends, affinities)
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The rent control update still applied and the campaign is done.
	got := affinities.entries[key("org-1", "rent control")]
	if math.Abs(got.Score-0.62) > 1e-9 {
		t.Errorf("Score = %f, want 0.62 despite sibling failure", got.Score)
	}
	if !campaigns.processed["c1"] {
		t.Error("campaign not marked processed after partial failure")
	}
}

func TestRunPreservesManualOverrides(t *testing.T) {
	campaigns, trends, affinities := rentControlScenario()
	affinities.entries[key("org-1", "rent control")] = affinity.TopicAffinity{
		OrgID:      "org-1",
		Topic:      "rent control",
		Score:      0.8,
		UseCount:   2,
		Provenance: affinity.ProvenanceManual,
	}

	loop := newTestLoop(campaigns, trends, affinities)
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := affinities.entries[key("org-1", "rent control")]
	if got.Score != 0.8 {
		t.Errorf("Score = %f, want manual override preserved at 0.8", got.Score)
	}
	if got.UseCount != 3 {
		t.Errorf("UseCount = %d, want usage still tracked", got.UseCount)
	}
}
