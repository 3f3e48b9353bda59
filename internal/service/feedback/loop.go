// internal/service/feedback/loop.go

package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
	"civicpulse/internal/domain/campaign"
	"civicpulse/internal/domain/trend"
)

// CampaignStore provides the campaigns awaiting feedback processing.
type CampaignStore interface {
	ListUnprocessed(ctx context.Context, limit int) ([]campaign.Campaign, error)
	MarkProcessed(ctx context.Context, id string) error
}

// TrendStore provides the trends active in a campaign's lookback window.
type TrendStore interface {
	FindTrends(ctx context.Context, filter trend.Filter) ([]trend.Trend, error)
}

// AffinityStore reads and writes per-(organization, topic) affinities.
// Upsert must be atomic per key so the loop can run concurrently with
// scoring and with the decay scheduler.
type AffinityStore interface {
	Get(ctx context.Context, orgID, topic string) (*affinity.TopicAffinity, error)
	Upsert(ctx context.Context, a affinity.TopicAffinity) error
}

// LoopConfig contains configuration for the feedback loop.
type LoopConfig struct {
	// Alpha is the exponential-moving-average weight given to the newest
	// outcome.
	Alpha float64

	// Lookback is how far before a campaign's completion a trend may have
	// been active and still be correlated with it.
	Lookback time.Duration

	// MinCorrelation discards weak campaign/trend links.
	MinCorrelation float64

	// Correlation strength weights.
	DomainOverlapWeight float64
	TopicOverlapWeight  float64
	BreakingWeight      float64
	PositiveWeight      float64

	// BatchLimit bounds how many campaigns one run processes.
	BatchLimit int
}

// DefaultLoopConfig returns the production feedback configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Alpha:               0.3,
		Lookback:            7 * 24 * time.Hour,
		MinCorrelation:      0.3,
		DomainOverlapWeight: 0.25,
		TopicOverlapWeight:  0.35,
		BreakingWeight:      0.1,
		PositiveWeight:      0.15,
		BatchLimit:          100,
	}
}

// Loop correlates completed campaigns with the trends that preceded them
// and folds each outcome into the per-topic affinity table. The loop is
// append-only with respect to history and tolerates partial failure: one
// topic failing to update never blocks the others.
type Loop struct {
	campaigns  CampaignStore
	trends     TrendStore
	affinities AffinityStore
	config     LoopConfig
	logger     zerolog.Logger
}

// NewLoop creates a new feedback loop.
func NewLoop(
	campaigns CampaignStore,
	trends TrendStore,
	affinities AffinityStore,
	config LoopConfig,
	logger zerolog.Logger,
) *Loop {
	if config.Alpha <= 0 || config.Alpha > 1 {
		config.Alpha = 0.3
	}
	if config.BatchLimit <= 0 {
		config.BatchLimit = 100
	}

	return &Loop{
		campaigns:  campaigns,
		trends:     trends,
		affinities: affinities,
		config:     config,
		logger:     logger,
	}
}

// Run processes campaigns not yet marked feedback-processed. Failures are
// isolated per campaign; the run never aborts wholesale.
func (l *Loop) Run(ctx context.Context) error {
	campaigns, err := l.campaigns.ListUnprocessed(ctx, l.config.BatchLimit)
	if err != nil {
		return fmt.Errorf("listing unprocessed campaigns: %w", err)
	}

	processed := 0
	for _, c := range campaigns {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := l.processCampaign(ctx, c); err != nil {
			l.logger.Error().
				Err(err).
				Str("campaign_id", c.ID).
				Str("org_id", c.OrgID).
				Msg("feedback processing failed for campaign")
			continue
		}

		if err := l.campaigns.MarkProcessed(ctx, c.ID); err != nil {
			l.logger.Error().
				Err(err).
				Str("campaign_id", c.ID).
				Msg("marking campaign processed failed")
			continue
		}
		processed++
	}

	l.logger.Info().
		Int("campaigns", len(campaigns)).
		Int("processed", processed).
		Msg("feedback run complete")

	return nil
}

func (l *Loop) processCampaign(ctx context.Context, c campaign.Campaign) error {
	window, err := l.trends.FindTrends(ctx, trend.Filter{
		After:  c.CompletedAt.Add(-l.config.Lookback),
		Before: c.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("listing lookback trends: %w", err)
	}

	for _, t := range window {
		strength := l.Correlate(c, t)
		if strength < l.config.MinCorrelation {
			continue
		}

		for _, topic := range sharedTopics(c, t) {
			if err := l.updateAffinity(ctx, c, topic); err != nil {
				// Partial failure: the remaining topics still apply.
				l.logger.Warn().
					Err(err).
					Str("campaign_id", c.ID).
					Str("trend_id", t.ID).
					Str("topic", topic).
					Msg("affinity update failed")
			}
		}
	}

	return nil
}

// Correlate returns the link strength between a campaign and a trend. A
// link requires at least one shared policy domain or topic term; strength
// combines overlap counts with breaking-news status and a bonus for
// positive performance.
func (l *Loop) Correlate(c campaign.Campaign, t trend.Trend) float64 {
	domainOverlap := overlapCount(c.Domains, t.PolicyDomains)
	topicOverlap := overlapCount(c.Topics, t.Keywords)

	if domainOverlap == 0 && topicOverlap == 0 {
		return 0
	}

	strength := float64(domainOverlap)*l.config.DomainOverlapWeight +
		float64(topicOverlap)*l.config.TopicOverlapWeight
	if t.Breaking {
		strength += l.config.BreakingWeight
	}
	if c.PerformanceDelta > 0 {
		strength += l.config.PositiveWeight
	}

	if strength > 1 {
		strength = 1
	}
	return strength
}

// updateAffinity folds the campaign's performance into one topic affinity
// via exponential moving average, clamped into the stored range. New
// topics start from a neutral 0.5 before the first update applies.
func (l *Loop) updateAffinity(ctx context.Context, c campaign.Campaign, topic string) error {
	topic = strings.ToLower(topic)
	signal := NormalizeDelta(c.PerformanceDelta)

	existing, err := l.affinities.Get(ctx, c.OrgID, topic)
	if err != nil {
		return fmt.Errorf("reading affinity: %w", err)
	}

	now := time.Now()
	updated := affinity.TopicAffinity{
		OrgID:      c.OrgID,
		Topic:      topic,
		Provenance: affinity.ProvenanceLearned,
	}

	old := 0.5
	if existing != nil {
		updated = *existing
		old = existing.Score
	}

	// Manual overrides keep their value; the outcome still refreshes
	// usage statistics so decay and exploration see the activity.
	if updated.Provenance != affinity.ProvenanceManual {
		updated.Score = affinity.Clamp(old*(1-l.config.Alpha) + signal*l.config.Alpha)
	}

	updated.AvgDelta = (updated.AvgDelta*float64(updated.UseCount) + c.PerformanceDelta) / float64(updated.UseCount+1)
	if c.PerformanceDelta > updated.BestDelta || updated.UseCount == 0 {
		updated.BestDelta = c.PerformanceDelta
	}
	updated.UseCount++
	updated.LastUsed = c.CompletedAt
	updated.UpdatedAt = now

	if err := l.affinities.Upsert(ctx, updated); err != nil {
		return fmt.Errorf("upserting affinity: %w", err)
	}

	return nil
}

// NormalizeDelta maps a percentage performance delta into the [0,1]
// signal space where 0.5 is neutral: +40% becomes 0.9, -50% becomes 0.
func NormalizeDelta(delta float64) float64 {
	signal := 0.5 + delta/100
	if signal < 0 {
		return 0
	}
	if signal > 1 {
		return 1
	}
	return signal
}

// sharedTopics returns the campaign domains and topic terms the trend is
// also tagged with, lowercased and deduplicated.
func sharedTopics(c campaign.Campaign, t trend.Trend) []string {
	trendTerms := make(map[string]bool, len(t.PolicyDomains)+len(t.Keywords))
	for _, d := range t.PolicyDomains {
		trendTerms[strings.ToLower(d)] = true
	}
	for _, k := range t.Keywords {
		trendTerms[strings.ToLower(k)] = true
	}

	seen := make(map[string]bool)
	var shared []string
	for _, v := range append(append([]string{}, c.Domains...), c.Topics...) {
		key := strings.ToLower(v)
		if trendTerms[key] && !seen[key] {
			seen[key] = true
			shared = append(shared, key)
		}
	}

	return shared
}

func overlapCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = true
	}

	count := 0
	for _, v := range b {
		if set[strings.ToLower(v)] {
			count++
		}
	}
	return count
}
