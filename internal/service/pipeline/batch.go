// internal/service/pipeline/batch.go

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
	"civicpulse/internal/domain/org"
	"civicpulse/internal/domain/relevance"
	"civicpulse/internal/domain/trend"
	"civicpulse/internal/metrics"
	"civicpulse/internal/service/scoring"
)

// TrendStore defines trend storage for the batch pipeline.
type TrendStore interface {
	FindTrends(ctx context.Context, filter trend.Filter) ([]trend.Trend, error)
	SaveTrend(ctx context.Context, t trend.Trend) error
}

// OrgStore defines the read-only organization surface for the pipeline.
type OrgStore interface {
	ListActiveProfiles(ctx context.Context) ([]org.Profile, error)
	ListWatchlist(ctx context.Context, orgID string) ([]org.WatchlistEntry, error)
}

// AffinityStore reads the affinity snapshot consumed by scoring.
type AffinityStore interface {
	ListForOrg(ctx context.Context, orgID string) ([]affinity.TopicAffinity, error)
}

// RelevanceStore persists computed results, superseding the previous set
// for an organization.
type RelevanceStore interface {
	ReplaceForOrg(ctx context.Context, orgID string, results []relevance.Result) error
	PurgeStale(ctx context.Context, computedBefore time.Time) error
}

// FilterLogStore appends exclusion records for offline audits.
type FilterLogStore interface {
	Append(ctx context.Context, entries []relevance.FilterLogEntry) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher publishes slate-refresh events. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// BatchConfig contains configuration for the batch pipeline.
type BatchConfig struct {
	// Workers is the size of the per-organization scoring pool.
	Workers int

	// MinScore is the relevance threshold below which a trend is filtered
	// from an organization's slate.
	MinScore float64

	// SlateSize is the target slate length written per organization.
	SlateSize int

	// EventsTopic is the NATS subject prefix for refresh events.
	EventsTopic string

	// CacheRetention bounds how long superseded results for organizations
	// that stopped refreshing (deactivated, or persistently failing) stay
	// in the cache.
	CacheRetention time.Duration

	// FilterRetention bounds how long filter log entries are kept.
	FilterRetention time.Duration
}

// Batch recomputes relevance for all active organizations against the
// currently-active trends. Scoring is organization-scoped and
// embarrassingly parallel: each worker sees only its organization's
// profile, watchlist, and affinities plus a shared read-only trend
// snapshot.
type Batch struct {
	trendStore     TrendStore
	orgStore       OrgStore
	affinityStore  AffinityStore
	relevanceStore RelevanceStore
	filterLog      FilterLogStore
	classifier     trend.Classifier
	scorer         *scoring.Scorer
	selector       *scoring.Selector
	publisher      Publisher
	config         BatchConfig
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewBatch creates a new batch pipeline. publisher and m may be nil.
func NewBatch(
	trendStore TrendStore,
	orgStore OrgStore,
	affinityStore AffinityStore,
	relevanceStore RelevanceStore,
	filterLog FilterLogStore,
	classifier trend.Classifier,
	scorer *scoring.Scorer,
	selector *scoring.Selector,
	publisher Publisher,
	config BatchConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Batch {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.SlateSize <= 0 {
		config.SlateSize = 10
	}
	if config.EventsTopic == "" {
		config.EventsTopic = "relevance"
	}
	if config.CacheRetention <= 0 {
		config.CacheRetention = 7 * 24 * time.Hour
	}
	if config.FilterRetention <= 0 {
		config.FilterRetention = 30 * 24 * time.Hour
	}

	return &Batch{
		trendStore:     trendStore,
		orgStore:       orgStore,
		affinityStore:  affinityStore,
		relevanceStore: relevanceStore,
		filterLog:      filterLog,
		classifier:     classifier,
		scorer:         scorer,
		selector:       selector,
		publisher:      publisher,
		config:         config,
		metrics:        m,
		logger:         logger,
	}
}

// Run executes one full refresh: the shared tagging pass, then the
// per-organization scoring pool. Individual organization failures are
// isolated and recorded; the run itself only fails when it cannot load
// its inputs.
func (b *Batch) Run(ctx context.Context) error {
	start := time.Now()

	trends, err := b.trendStore.FindTrends(ctx, trend.Filter{ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("listing active trends: %w", err)
	}

	b.tagPass(ctx, trends)

	orgs, err := b.orgStore.ListActiveProfiles(ctx)
	if err != nil {
		return fmt.Errorf("listing active organizations: %w", err)
	}

	var failures atomic.Int64
	jobs := make(chan org.Profile)

	var wg sync.WaitGroup
	for i := 0; i < b.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for profile := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := b.refreshOrg(ctx, profile, trends); err != nil {
					failures.Add(1)
					if b.metrics != nil {
						b.metrics.OrgFailures.Inc()
					}
					b.logger.Error().
						Err(err).
						Str("org_id", profile.OrgID).
						Msg("organization refresh failed")
					continue
				}
				if b.metrics != nil {
					b.metrics.OrgsScored.Inc()
				}
			}
		}()
	}

	for _, profile := range orgs {
		jobs <- profile
	}
	close(jobs)
	wg.Wait()

	b.maintain(ctx, start)

	if b.metrics != nil {
		b.metrics.BatchRuns.Inc()
		b.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}

	b.logger.Info().
		Int("trends", len(trends)).
		Int("organizations", len(orgs)).
		Int64("failures", failures.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("relevance refresh complete")

	return nil
}

// maintain enforces the retention windows after a refresh. The cache
// window is long enough that an organization whose refresh failed keeps
// its last good results across many runs.
func (b *Batch) maintain(ctx context.Context, now time.Time) {
	if err := b.relevanceStore.PurgeStale(ctx, now.Add(-b.config.CacheRetention)); err != nil {
		b.logger.Warn().Err(err).Msg("purging stale relevance results failed")
	}

	if _, err := b.filterLog.PurgeOlderThan(ctx, now.Add(-b.config.FilterRetention)); err != nil {
		b.logger.Warn().Err(err).Msg("purging filter log failed")
	}
}

// tagPass classifies any trend not yet tagged since its last update. The
// pass is shared by all organizations and runs before scoring; a trend
// whose classification fails proceeds untagged rather than failing the
// batch.
func (b *Batch) tagPass(ctx context.Context, trends []trend.Trend) {
	for i := range trends {
		if trends[i].Tagged() {
			continue
		}

		if err := b.classifier.Classify(ctx, &trends[i]); err != nil {
			b.logger.Warn().
				Err(err).
				Str("trend_id", trends[i].ID).
				Msg("trend classification failed")
			continue
		}

		if err := b.trendStore.SaveTrend(ctx, trends[i]); err != nil {
			b.logger.Warn().
				Err(err).
				Str("trend_id", trends[i].ID).
				Msg("saving tagged trend failed")
		}

		if b.metrics != nil {
			b.metrics.TrendsTagged.Inc()
		}
	}
}

// refreshOrg scores every snapshot trend for one organization, supersedes
// its relevance cache, logs what was filtered out, and announces the
// refreshed slate.
func (b *Batch) refreshOrg(ctx context.Context, profile org.Profile, snapshot []trend.Trend) error {
	watchlist, err := b.orgStore.ListWatchlist(ctx, profile.OrgID)
	if err != nil {
		return fmt.Errorf("loading watchlist: %w", err)
	}

	affinities, err := b.affinityStore.ListForOrg(ctx, profile.OrgID)
	if err != nil {
		return fmt.Errorf("loading affinities: %w", err)
	}

	results := make([]relevance.Result, 0, len(snapshot))
	candidates := make([]relevance.Result, 0, len(snapshot))
	var filtered []relevance.FilterLogEntry

	for _, t := range snapshot {
		result, err := b.scorer.Score(t, &profile, watchlist, affinities)
		if err != nil {
			return fmt.Errorf("scoring trend %s: %w", t.ID, err)
		}

		results = append(results, result)
		if result.Score >= b.config.MinScore {
			candidates = append(candidates, result)
		} else {
			filtered = append(filtered, b.filterEntry(result, relevance.FilterBelowThreshold))
		}
	}

	slate := b.selector.Select(candidates, profile.PolicyDomains, b.config.SlateSize)

	selected := make(map[string]bool, len(slate))
	for _, r := range slate {
		selected[r.TrendID] = true
	}
	for _, r := range candidates {
		if !selected[r.TrendID] {
			filtered = append(filtered, b.filterEntry(r, relevance.FilterSlateOverflow))
		}
	}

	if err := b.relevanceStore.ReplaceForOrg(ctx, profile.OrgID, results); err != nil {
		return fmt.Errorf("writing relevance cache: %w", err)
	}

	if len(filtered) > 0 {
		if err := b.filterLog.Append(ctx, filtered); err != nil {
			// The filter log is never required for correctness.
			b.logger.Warn().
				Err(err).
				Str("org_id", profile.OrgID).
				Msg("filter log append failed")
		}
		if b.metrics != nil {
			b.metrics.TrendsFiltered.Add(float64(len(filtered)))
		}
	}

	b.publishRefresh(profile.OrgID, len(slate))

	return nil
}

func (b *Batch) filterEntry(r relevance.Result, reason string) relevance.FilterLogEntry {
	return relevance.FilterLogEntry{
		ID:        uuid.New().String(),
		OrgID:     r.OrgID,
		TrendID:   r.TrendID,
		Score:     r.Score,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

func (b *Batch) publishRefresh(orgID string, slateSize int) {
	if b.publisher == nil {
		return
	}

	data, err := json.Marshal(map[string]interface{}{
		"org_id":       orgID,
		"slate_size":   slateSize,
		"refreshed_at": time.Now().UTC(),
	})
	if err != nil {
		return
	}

	subject := fmt.Sprintf("%s.refreshed.%s", b.config.EventsTopic, orgID)
	if err := b.publisher.Publish(subject, data); err != nil {
		b.logger.Warn().
			Err(err).
			Str("org_id", orgID).
			Msg("publishing refresh event failed")
	}
}
