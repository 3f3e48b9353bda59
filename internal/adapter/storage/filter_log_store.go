// internal/adapter/storage/filter_log_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/relevance"
)

// FilterLogStore implements the append-only exclusion log. Entries are
// audit material only and carry a bounded retention; nothing reads them
// for correctness.
type FilterLogStore struct {
	db *pgxpool.Pool
}

// NewFilterLogStore creates a new filter log store.
func NewFilterLogStore(db *pgxpool.Pool) *FilterLogStore {
	return &FilterLogStore{
		db: db,
	}
}

// Append writes a batch of filter log entries.
func (s *FilterLogStore) Append(ctx context.Context, entries []relevance.FilterLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO filter_log (id, org_id, trend_id, score, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID,
			e.OrgID,
			e.TrendID,
			e.Score,
			e.Reason,
			e.CreatedAt,
		)
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("error inserting filter log entries: %w", err)
	}

	return nil
}

// PurgeOlderThan enforces the retention window.
func (s *FilterLogStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM filter_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error executing query: %w", err)
	}
	return tag.RowsAffected(), nil
}
