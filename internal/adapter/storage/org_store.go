// internal/adapter/storage/org_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/org"
)

// OrgStore implements read-only storage access to organization profiles
// and watchlists. Both are owned by the onboarding/settings workflows;
// this engine never writes them.
type OrgStore struct {
	db *pgxpool.Pool
}

// NewOrgStore creates a new organization store.
func NewOrgStore(db *pgxpool.Pool) *OrgStore {
	return &OrgStore{
		db: db,
	}
}

// GetProfile retrieves one organization profile. A missing profile is a
// hard error for callers, never a zero-valued profile.
func (s *OrgStore) GetProfile(ctx context.Context, orgID string) (*org.Profile, error) {
	query := `
		SELECT
			org_id, name, policy_domains, focus_areas,
			geography_scope, granularity, sensitive, active, updated_at
		FROM organization_profiles
		WHERE org_id = $1
	`

	var p org.Profile
	err := s.db.QueryRow(ctx, query, orgID).Scan(
		&p.OrgID,
		&p.Name,
		&p.PolicyDomains,
		&p.FocusAreas,
		&p.GeographyScope,
		&p.Granularity,
		&p.Sensitive,
		&p.Active,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, org.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error querying profile: %w", err)
	}

	return &p, nil
}

// ListActiveProfiles returns every organization the batch pipeline should
// score.
func (s *OrgStore) ListActiveProfiles(ctx context.Context) ([]org.Profile, error) {
	query := `
		SELECT
			org_id, name, policy_domains, focus_areas,
			geography_scope, granularity, sensitive, active, updated_at
		FROM organization_profiles
		WHERE active = true
		ORDER BY org_id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var profiles []org.Profile
	for rows.Next() {
		var p org.Profile
		err := rows.Scan(
			&p.OrgID,
			&p.Name,
			&p.PolicyDomains,
			&p.FocusAreas,
			&p.GeographyScope,
			&p.Granularity,
			&p.Sensitive,
			&p.Active,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}

// ListWatchlist returns the entities an organization explicitly tracks.
func (s *OrgStore) ListWatchlist(ctx context.Context, orgID string) ([]org.WatchlistEntry, error) {
	query := `
		SELECT id, org_id, name, kind, created_at
		FROM watchlist_entries
		WHERE org_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var entries []org.WatchlistEntry
	for rows.Next() {
		var w org.WatchlistEntry
		if err := rows.Scan(&w.ID, &w.OrgID, &w.Name, &w.Kind, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning watchlist entry: %w", err)
		}
		entries = append(entries, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist: %w", err)
	}

	return entries, nil
}
