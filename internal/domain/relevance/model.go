// internal/domain/relevance/model.go

package relevance

import (
	"time"
)

// Priority buckets for a relevance result.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Bucket thresholds.
const (
	HighThreshold   = 55.0
	MediumThreshold = 30.0
)

// Flags attached to a relevance result.
const (
	FlagWatchlistMatch = "watchlist-match"
	FlagNewOpportunity = "new-opportunity"
	FlagProvenTopic    = "proven-topic"
	FlagBreaking       = "breaking"
)

// Result is one computed (organization, trend) relevance score together
// with everything needed to explain it. Results are superseded, not merged,
// whenever the underlying trend or profile changes.
type Result struct {
	OrgID            string
	TrendID          string
	Score            float64
	Reasons          []string
	Flags            []string
	MatchedDomains   []string
	MatchedWatchlist []string
	Priority         Priority
	ComputedAt       time.Time
}

// HasFlag reports whether the result carries the given flag.
func (r *Result) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// PriorityFor maps a final score to its priority bucket.
func PriorityFor(score float64) Priority {
	switch {
	case score >= HighThreshold:
		return PriorityHigh
	case score >= MediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Filter log reason buckets.
const (
	FilterBelowThreshold = "below-threshold"
	FilterSlateOverflow  = "slate-overflow"
)

// FilterLogEntry records a trend excluded from an organization's slate.
// Append-only, time-bounded retention, used for offline audits.
type FilterLogEntry struct {
	ID        string
	OrgID     string
	TrendID   string
	Score     float64
	Reason    string
	CreatedAt time.Time
}
