// internal/adapter/storage/campaign_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"civicpulse/internal/domain/campaign"
)

// CampaignStore implements storage for completed campaign outcomes
// consumed by the feedback loop.
type CampaignStore struct {
	db *pgxpool.Pool
}

// NewCampaignStore creates a new campaign store.
func NewCampaignStore(db *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{
		db: db,
	}
}

// ListUnprocessed returns completed campaigns not yet folded into the
// affinity table, oldest first.
func (s *CampaignStore) ListUnprocessed(ctx context.Context, limit int) ([]campaign.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			id, org_id, subject, topics, domains,
			performance_delta, completed_at, feedback_processed
		FROM campaigns
		WHERE feedback_processed = false AND completed_at IS NOT NULL
		ORDER BY completed_at ASC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var campaigns []campaign.Campaign
	for rows.Next() {
		var c campaign.Campaign
		err := rows.Scan(
			&c.ID,
			&c.OrgID,
			&c.Subject,
			&c.Topics,
			&c.Domains,
			&c.PerformanceDelta,
			&c.CompletedAt,
			&c.FeedbackProcessed,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}

	return campaigns, nil
}

// MarkProcessed flags a campaign as folded into the affinity table.
func (s *CampaignStore) MarkProcessed(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE campaigns SET feedback_processed = true, processed_at = $2 WHERE id = $1`,
		id, time.Now(),
	); err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}
	return nil
}
