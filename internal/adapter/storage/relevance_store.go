// internal/adapter/storage/relevance_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/relevance"
)

// RelevanceStore implements the relevance result cache. Recomputation
// supersedes an organization's previous results wholesale; results are
// never merged.
type RelevanceStore struct {
	db *pgxpool.Pool
}

// NewRelevanceStore creates a new relevance store.
func NewRelevanceStore(db *pgxpool.Pool) *RelevanceStore {
	return &RelevanceStore{
		db: db,
	}
}

// ReplaceForOrg atomically swaps an organization's cached results.
func (s *RelevanceStore) ReplaceForOrg(ctx context.Context, orgID string, results []relevance.Result) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM relevance_results WHERE org_id = $1`, orgID); err != nil {
		return fmt.Errorf("error clearing previous results: %w", err)
	}

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(`
			INSERT INTO relevance_results (
				org_id, trend_id, score, reasons, flags,
				matched_domains, matched_watchlist, priority, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.OrgID,
			r.TrendID,
			r.Score,
			r.Reasons,
			r.Flags,
			r.MatchedDomains,
			r.MatchedWatchlist,
			string(r.Priority),
			r.ComputedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("error inserting results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// ListForOrg returns an organization's cached results at or above the
// minimum score, best first with ties broken by trend ID.
func (s *RelevanceStore) ListForOrg(ctx context.Context, orgID string, minScore float64) ([]relevance.Result, error) {
	query := `
		SELECT
			org_id, trend_id, score, reasons, flags,
			matched_domains, matched_watchlist, priority, computed_at
		FROM relevance_results
		WHERE org_id = $1 AND score >= $2
		ORDER BY score DESC, trend_id ASC
	`

	rows, err := s.db.Query(ctx, query, orgID, minScore)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var results []relevance.Result
	for rows.Next() {
		var r relevance.Result
		var priority string
		err := rows.Scan(
			&r.OrgID,
			&r.TrendID,
			&r.Score,
			&r.Reasons,
			&r.Flags,
			&r.MatchedDomains,
			&r.MatchedWatchlist,
			&priority,
			&r.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning result: %w", err)
		}
		r.Priority = relevance.Priority(priority)
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return results, nil
}

// PurgeStale deletes cached results older than the cutoff, covering
// organizations deactivated between refreshes.
func (s *RelevanceStore) PurgeStale(ctx context.Context, computedBefore time.Time) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM relevance_results WHERE computed_at < $1`, computedBefore,
	); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
