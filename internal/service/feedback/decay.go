// internal/service/feedback/decay.go

package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/affinity"
)

// StaleAffinityStore lists and rewrites learned affinities that have not
// been reinforced recently. Declared and manually-overridden entries are
// never returned by ListLearnedStale and are therefore exempt from decay.
type StaleAffinityStore interface {
	ListLearnedStale(ctx context.Context, lastUsedBefore time.Time) ([]affinity.TopicAffinity, error)
	Upsert(ctx context.Context, a affinity.TopicAffinity) error
}

// DecayConfig contains configuration for the decay scheduler.
type DecayConfig struct {
	// Staleness is how long an affinity may go unreinforced before it
	// starts decaying.
	Staleness time.Duration

	// Factor multiplies a stale affinity's value each cycle.
	Factor float64

	// Floor is the value decay never goes below. Entries at the floor
	// stay constant.
	Floor float64
}

// DefaultDecayConfig returns the production decay configuration.
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{
		Staleness: 30 * 24 * time.Hour,
		Factor:    0.95,
		Floor:     0.3,
	}
}

// Decayer attenuates stale learned affinities so an old success cannot
// keep dominating recommendations. Together with the scorer's additive
// affinity cap these are the two independent filter-bubble guards.
type Decayer struct {
	affinities StaleAffinityStore
	config     DecayConfig
	logger     zerolog.Logger
}

// NewDecayer creates a new decay scheduler.
func NewDecayer(affinities StaleAffinityStore, config DecayConfig, logger zerolog.Logger) *Decayer {
	if config.Factor <= 0 || config.Factor >= 1 {
		config.Factor = 0.95
	}

	return &Decayer{
		affinities: affinities,
		config:     config,
		logger:     logger,
	}
}

// Run decays every stale learned affinity once. Failures are isolated per
// entry; a partially-completed run is retried at the next interval.
func (d *Decayer) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-d.config.Staleness)

	stale, err := d.affinities.ListLearnedStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing stale affinities: %w", err)
	}

	decayed := 0
	for _, a := range stale {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		next := DecayValue(a.Score, d.config.Factor, d.config.Floor)
		if next == a.Score {
			continue
		}

		a.Score = next
		a.UpdatedAt = time.Now()
		if err := d.affinities.Upsert(ctx, a); err != nil {
			d.logger.Warn().
				Err(err).
				Str("org_id", a.OrgID).
				Str("topic", a.Topic).
				Msg("affinity decay write failed")
			continue
		}
		decayed++
	}

	d.logger.Info().
		Int("stale", len(stale)).
		Int("decayed", decayed).
		Msg("decay run complete")

	return nil
}

// DecayValue applies one decay cycle to a value: multiply by factor, never
// below floor. Values already at or below the floor are unchanged.
func DecayValue(v, factor, floor float64) float64 {
	if v <= floor {
		return v
	}
	next := v * factor
	if next < floor {
		return floor
	}
	return next
}
