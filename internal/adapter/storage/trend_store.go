// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/trend"
)

// TrendStore implements storage for trends.
type TrendStore struct {
	db *pgxpool.Pool
}

// NewTrendStore creates a new trend store.
func NewTrendStore(db *pgxpool.Pool) *TrendStore {
	return &TrendStore{
		db: db,
	}
}

// SaveTrend upserts a trend, overwriting its tag fields.
func (s *TrendStore) SaveTrend(ctx context.Context, t trend.Trend) error {
	query := `
		INSERT INTO trends (
			id, title, summary, keywords,
			policy_domains, geographies, granularity,
			politicians, organizations, legislation,
			breaking, velocity, sources, active,
			tagged_at, first_detected, last_updated
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17
		)
		ON CONFLICT (id) DO UPDATE
		SET
			title = $2,
			summary = $3,
			keywords = $4,
			policy_domains = $5,
			geographies = $6,
			granularity = $7,
			politicians = $8,
			organizations = $9,
			legislation = $10,
			breaking = $11,
			velocity = $12,
			sources = $13,
			active = $14,
			tagged_at = $15,
			last_updated = $17
	`

	if t.FirstDetected.IsZero() {
		t.FirstDetected = time.Now()
	}
	if t.LastUpdated.IsZero() {
		t.LastUpdated = time.Now()
	}

	sourcesJSON, err := json.Marshal(t.Sources)
	if err != nil {
		return fmt.Errorf("error marshaling sources: %w", err)
	}

	var taggedAt *time.Time
	if !t.TaggedAt.IsZero() {
		taggedAt = &t.TaggedAt
	}

	_, err = s.db.Exec(
		ctx,
		query,
		t.ID,
		t.Title,
		t.Summary,
		t.Keywords,
		t.PolicyDomains,
		t.Geographies,
		string(t.Granularity),
		t.Politicians,
		t.Organizations,
		t.Legislation,
		t.Breaking,
		t.Velocity,
		sourcesJSON,
		t.Active,
		taggedAt,
		t.FirstDetected,
		t.LastUpdated,
	)

	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// GetTrend retrieves a trend by ID.
func (s *TrendStore) GetTrend(ctx context.Context, id string) (*trend.Trend, error) {
	query := `
		SELECT
			id, title, summary, keywords,
			policy_domains, geographies, granularity,
			politicians, organizations, legislation,
			breaking, velocity, sources, active,
			tagged_at, first_detected, last_updated
		FROM trends
		WHERE id = $1
	`

	t, err := scanTrend(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trend.ErrNotFound
		}
		return nil, fmt.Errorf("error querying trend: %w", err)
	}

	return t, nil
}

// FindTrends finds trends matching the filter.
func (s *TrendStore) FindTrends(ctx context.Context, filter trend.Filter) ([]trend.Trend, error) {
	query := `
		SELECT
			id, title, summary, keywords,
			policy_domains, geographies, granularity,
			politicians, organizations, legislation,
			breaking, velocity, sources, active,
			tagged_at, first_detected, last_updated
		FROM trends
		WHERE 1=1
	`

	var args []interface{}
	argIndex := 1

	if filter.ActiveOnly {
		query += " AND active = true"
	}

	if len(filter.Domains) > 0 {
		query += fmt.Sprintf(" AND policy_domains && $%d", argIndex)
		args = append(args, filter.Domains)
		argIndex++
	}

	if filter.Breaking != nil {
		query += fmt.Sprintf(" AND breaking = $%d", argIndex)
		args = append(args, *filter.Breaking)
		argIndex++
	}

	if filter.MinVelocity > 0 {
		query += fmt.Sprintf(" AND velocity >= $%d", argIndex)
		args = append(args, filter.MinVelocity)
		argIndex++
	}

	if !filter.After.IsZero() {
		query += fmt.Sprintf(" AND last_updated >= $%d", argIndex)
		args = append(args, filter.After)
		argIndex++
	}

	if !filter.Before.IsZero() {
		query += fmt.Sprintf(" AND last_updated <= $%d", argIndex)
		args = append(args, filter.Before)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" ORDER BY velocity DESC, id ASC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var trends []trend.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning trend: %w", err)
		}
		trends = append(trends, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trends: %w", err)
	}

	return trends, nil
}

// MarkResolved marks a trend inactive. Resolved trends are immutable and
// never deleted.
func (s *TrendStore) MarkResolved(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE trends SET active = false, last_updated = $2 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return trend.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrend(row rowScanner) (*trend.Trend, error) {
	var t trend.Trend
	var granularity string
	var sourcesJSON []byte
	var taggedAt *time.Time

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Summary,
		&t.Keywords,
		&t.PolicyDomains,
		&t.Geographies,
		&granularity,
		&t.Politicians,
		&t.Organizations,
		&t.Legislation,
		&t.Breaking,
		&t.Velocity,
		&sourcesJSON,
		&t.Active,
		&taggedAt,
		&t.FirstDetected,
		&t.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	t.Granularity = trend.Granularity(granularity)
	if taggedAt != nil {
		t.TaggedAt = *taggedAt
	}

	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &t.Sources); err != nil {
			return nil, fmt.Errorf("error unmarshaling sources: %w", err)
		}
	}

	return &t, nil
}
