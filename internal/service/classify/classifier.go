// internal/service/classify/classifier.go

package classify

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/trend"
)

// Config contains configuration for the classifier.
type Config struct {
	// FallbackTimeout bounds a single semantic-classifier call. On timeout
	// the trend proceeds with an empty domain set.
	FallbackTimeout time.Duration

	// DefaultGeography is the single code assigned when no gazetteer entry
	// matches.
	DefaultGeography string
}

// Classifier tags trends from a reference snapshot. It is stateless given
// its tables: the only side effect of Classify is overwriting the trend's
// tag fields, so re-running it over the same trend is safe.
type Classifier struct {
	ref      *Reference
	semantic trend.SemanticClassifier
	config   Config
	logger   zerolog.Logger
}

// NewClassifier creates a new classifier. semantic may be nil, in which
// case trends with no detectable domain keep an empty domain set.
func NewClassifier(ref *Reference, semantic trend.SemanticClassifier, config Config, logger zerolog.Logger) *Classifier {
	if config.FallbackTimeout <= 0 {
		config.FallbackTimeout = 5 * time.Second
	}
	if config.DefaultGeography == "" {
		config.DefaultGeography = "US"
	}

	return &Classifier{
		ref:      ref,
		semantic: semantic,
		config:   config,
		logger:   logger,
	}
}

// Classify overwrites the trend's tag fields from the reference tables.
func (c *Classifier) Classify(ctx context.Context, t *trend.Trend) error {
	text := normalize(t.Title + " " + t.Summary + " " + strings.Join(t.Keywords, " "))

	t.PolicyDomains = c.classifyDomains(ctx, t, text)
	t.Geographies, t.Granularity = c.classifyGeography(text)
	t.Politicians = matchEntities(text, c.ref.Politicians)
	t.Organizations = matchEntities(text, c.ref.Organizations)
	t.Legislation = matchEntities(text, c.ref.Legislation)
	t.TaggedAt = time.Now()

	if len(t.PolicyDomains) == 0 {
		// Data-quality warning: the trend proceeds with an empty domain
		// set rather than failing the batch.
		c.logger.Warn().
			Str("trend_id", t.ID).
			Str("title", t.Title).
			Msg("no classifiable policy domain")
	}

	return nil
}

// classifyDomains unions domains inherited from contributing sources with
// domains whose keyword list matches at least two distinct keywords. A
// single keyword match is insufficient evidence and is discarded.
func (c *Classifier) classifyDomains(ctx context.Context, t *trend.Trend, text string) []string {
	domains := make(map[string]bool)

	for _, s := range t.Sources {
		for _, d := range s.Domains {
			if canonical, ok := c.canonicalDomain(d); ok {
				domains[canonical] = true
			}
		}
	}

	for domain, keywords := range c.ref.DomainKeywords {
		matched := 0
		for _, kw := range keywords {
			if containsTerm(text, kw) {
				matched++
			}
		}
		if matched >= 2 {
			domains[domain] = true
		}
	}

	if len(domains) == 0 && c.semantic != nil {
		return c.semanticFallback(ctx, t)
	}

	return sortedKeys(domains)
}

// semanticFallback defers to the external semantic classifier and accepts
// its output verbatim. Errors and timeouts are treated as an empty result
// so one slow trend cannot stall the batch.
func (c *Classifier) semanticFallback(ctx context.Context, t *trend.Trend) []string {
	ctx, cancel := context.WithTimeout(ctx, c.config.FallbackTimeout)
	defer cancel()

	domains, err := c.semantic.ClassifyDomains(ctx, t.Title, t.Summary)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("trend_id", t.ID).
			Msg("semantic classifier fallback failed")
		return nil
	}

	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		if d != "" {
			set[d] = true
		}
	}

	return sortedKeys(set)
}

// classifyGeography scans the gazetteers and assigns the narrowest
// granularity detected: local > state > international > national. With no
// match at all, the trend defaults to national scope with the single
// default code.
func (c *Classifier) classifyGeography(text string) ([]string, trend.Granularity) {
	codes := make(map[string]bool)
	granularity := trend.GranularityNational

	for name, code := range c.ref.Countries {
		if containsTerm(text, name) {
			codes[code] = true
			granularity = trend.GranularityInternational
		}
	}

	for name, code := range c.ref.States {
		if containsTerm(text, name) {
			codes[code] = true
			granularity = trend.GranularityState
		}
	}

	for name, code := range c.ref.Cities {
		if containsTerm(text, name) {
			codes[code] = true
			granularity = trend.GranularityLocal
		}
	}

	if len(codes) == 0 {
		return []string{c.config.DefaultGeography}, trend.GranularityNational
	}

	return sortedKeys(codes), granularity
}

// canonicalDomain maps a source-provided domain tag onto the reference
// table's canonical name, case-insensitively. Unknown tags are kept as-is
// so upstream taxonomies that extend ours still flow through.
func (c *Classifier) canonicalDomain(d string) (string, bool) {
	if d == "" {
		return "", false
	}
	for canonical := range c.ref.DomainKeywords {
		if strings.EqualFold(canonical, d) {
			return canonical, true
		}
	}
	return d, true
}

// matchEntities returns the canonical names of entities whose canonical
// name or any alias appears in the text.
func matchEntities(text string, entities []Entity) []string {
	matched := make(map[string]bool)

	for _, e := range entities {
		if containsTerm(text, e.Canonical) {
			matched[e.Canonical] = true
			continue
		}
		for _, alias := range e.Aliases {
			if containsTerm(text, alias) {
				matched[e.Canonical] = true
				break
			}
		}
	}

	return sortedKeys(matched)
}

// normalize lowercases text and collapses punctuation so term matching
// works on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// containsTerm reports whether the normalized term occurs in the
// normalized text as a whole-word sequence.
func containsTerm(text, term string) bool {
	term = normalize(term)
	if term == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+term+" ")
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
