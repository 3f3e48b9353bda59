// internal/domain/affinity/model.go

package affinity

import (
	"time"
)

// Provenance records how an affinity entry came to exist. Only learned
// entries are subject to scheduled decay.
type Provenance string

const (
	ProvenanceLearned  Provenance = "learned"
	ProvenanceDeclared Provenance = "declared"
	ProvenanceManual   Provenance = "manual"
)

// Bounds for stored affinity values. The clamp keeps every entry partially
// responsive: never fully saturated, never fully dead.
const (
	MinScore = 0.2
	MaxScore = 0.95
)

// TopicAffinity is a per-(organization, topic) learned propensity score.
// Created on the first correlated campaign outcome, updated by exponential
// moving average, attenuated by the decay scheduler, never hard-deleted.
type TopicAffinity struct {
	OrgID      string
	Topic      string
	Score      float64
	UseCount   int
	AvgDelta   float64
	BestDelta  float64
	LastUsed   time.Time
	Provenance Provenance
	UpdatedAt  time.Time
}

// Clamp bounds a score into the stored affinity range.
func Clamp(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
