// internal/domain/trend/model.go

package trend

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a trend does not exist in storage.
var ErrNotFound = errors.New("trend not found")

// Granularity describes the narrowest geographic scope a trend was tagged with.
type Granularity string

const (
	GranularityLocal         Granularity = "local"
	GranularityState         Granularity = "state"
	GranularityInternational Granularity = "international"
	GranularityNational      Granularity = "national"
)

// Source identifies a piece of content that contributed evidence to a trend.
// Sources may carry pre-assigned policy domain tags from the ingestion side.
type Source struct {
	Platform   string
	ExternalID string
	URL        string
	Domains    []string
}

// Trend represents a detected news/social topic under consideration for
// recommendation. Tag fields (policy domains, geographies, entities) are
// owned by the classifier and overwritten on each classification pass.
type Trend struct {
	ID            string
	Title         string
	Summary       string
	Keywords      []string
	PolicyDomains []string
	Geographies   []string
	Granularity   Granularity
	Politicians   []string
	Organizations []string
	Legislation   []string
	Breaking      bool
	Velocity      float64
	Sources       []Source
	Active        bool
	TaggedAt      time.Time
	FirstDetected time.Time
	LastUpdated   time.Time
}

// Tagged reports whether the classifier has processed this trend since its
// last update. Untagged trends must pass through the classifier before any
// organization is scored against them.
func (t *Trend) Tagged() bool {
	return !t.TaggedAt.IsZero() && !t.TaggedAt.Before(t.LastUpdated)
}

// Filter defines criteria for querying trends from storage.
type Filter struct {
	ActiveOnly  bool
	Domains     []string
	Breaking    *bool
	MinVelocity float64
	After       time.Time
	Before      time.Time
	Limit       int
}
