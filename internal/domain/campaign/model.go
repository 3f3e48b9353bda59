// internal/domain/campaign/model.go

package campaign

import (
	"time"
)

// Campaign is a completed outbound campaign as seen by the feedback loop:
// its extracted topics and domains plus measured performance relative to
// the organization's baseline. PerformanceDelta is a percentage, so +40
// means the campaign performed 40% above baseline.
type Campaign struct {
	ID                string
	OrgID             string
	Subject           string
	Topics            []string
	Domains           []string
	PerformanceDelta  float64
	CompletedAt       time.Time
	FeedbackProcessed bool
}
