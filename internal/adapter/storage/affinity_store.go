// internal/adapter/storage/affinity_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/affinity"
)

// AffinityStore implements storage for per-(organization, topic) learned
// affinities. Upsert is a single-statement atomic write per key, so the
// feedback loop and decay scheduler can run concurrently with scoring.
type AffinityStore struct {
	db *pgxpool.Pool
}

// NewAffinityStore creates a new affinity store.
func NewAffinityStore(db *pgxpool.Pool) *AffinityStore {
	return &AffinityStore{
		db: db,
	}
}

// Get retrieves one affinity entry, or nil when none exists yet.
func (s *AffinityStore) Get(ctx context.Context, orgID, topic string) (*affinity.TopicAffinity, error) {
	query := `
		SELECT
			org_id, topic, score, use_count, avg_delta, best_delta,
			last_used, provenance, updated_at
		FROM topic_affinities
		WHERE org_id = $1 AND topic = $2
	`

	var a affinity.TopicAffinity
	var provenance string
	err := s.db.QueryRow(ctx, query, orgID, topic).Scan(
		&a.OrgID,
		&a.Topic,
		&a.Score,
		&a.UseCount,
		&a.AvgDelta,
		&a.BestDelta,
		&a.LastUsed,
		&provenance,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying affinity: %w", err)
	}

	a.Provenance = affinity.Provenance(provenance)
	return &a, nil
}

// Upsert writes one affinity entry, last writer wins.
func (s *AffinityStore) Upsert(ctx context.Context, a affinity.TopicAffinity) error {
	query := `
		INSERT INTO topic_affinities (
			org_id, topic, score, use_count, avg_delta, best_delta,
			last_used, provenance, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (org_id, topic) DO UPDATE
		SET
			score = $3,
			use_count = $4,
			avg_delta = $5,
			best_delta = $6,
			last_used = $7,
			provenance = $8,
			updated_at = $9
	`

	_, err := s.db.Exec(
		ctx,
		query,
		a.OrgID,
		a.Topic,
		a.Score,
		a.UseCount,
		a.AvgDelta,
		a.BestDelta,
		a.LastUsed,
		string(a.Provenance),
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// ListForOrg returns an organization's full affinity set for scoring.
func (s *AffinityStore) ListForOrg(ctx context.Context, orgID string) ([]affinity.TopicAffinity, error) {
	query := `
		SELECT
			org_id, topic, score, use_count, avg_delta, best_delta,
			last_used, provenance, updated_at
		FROM topic_affinities
		WHERE org_id = $1
		ORDER BY topic
	`

	rows, err := s.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanAffinities(rows)
}

// ListLearnedStale returns learned-provenance affinities whose last use
// predates the cutoff. Declared and manually-overridden entries are
// excluded and therefore exempt from decay.
func (s *AffinityStore) ListLearnedStale(ctx context.Context, lastUsedBefore time.Time) ([]affinity.TopicAffinity, error) {
	query := `
		SELECT
			org_id, topic, score, use_count, avg_delta, best_delta,
			last_used, provenance, updated_at
		FROM topic_affinities
		WHERE provenance = $1 AND last_used < $2
		ORDER BY org_id, topic
	`

	rows, err := s.db.Query(ctx, query, string(affinity.ProvenanceLearned), lastUsedBefore)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	return scanAffinities(rows)
}

func scanAffinities(rows pgx.Rows) ([]affinity.TopicAffinity, error) {
	var affinities []affinity.TopicAffinity
	for rows.Next() {
		var a affinity.TopicAffinity
		var provenance string
		err := rows.Scan(
			&a.OrgID,
			&a.Topic,
			&a.Score,
			&a.UseCount,
			&a.AvgDelta,
			&a.BestDelta,
			&a.LastUsed,
			&provenance,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning affinity: %w", err)
		}
		a.Provenance = affinity.Provenance(provenance)
		affinities = append(affinities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating affinities: %w", err)
	}

	return affinities, nil
}
