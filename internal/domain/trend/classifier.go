// internal/domain/trend/classifier.go

package trend

import (
	"context"
)

// Classifier tags a trend with policy domains, geographies, and named
// entities. Implementations must be idempotent: classifying an unchanged
// trend twice yields identical tag sets.
type Classifier interface {
	// Classify overwrites the trend's tag fields in place.
	Classify(ctx context.Context, t *Trend) error
}

// SemanticClassifier is the external fallback used when neither source tags
// nor keyword tables produce a policy domain. Implementations are expected
// to be slow and unreliable; callers bound them with a timeout and treat
// failure as an empty result.
type SemanticClassifier interface {
	// ClassifyDomains returns policy domains inferred from free text.
	ClassifyDomains(ctx context.Context, title, summary string) ([]string, error)
}
