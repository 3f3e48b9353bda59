// internal/service/pipeline/scheduler.go

package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Runner is a periodic engine job: the batch refresh, the feedback loop,
// or the decay scheduler.
type Runner interface {
	Run(ctx context.Context) error
}

// SchedulerConfig contains the periodic job intervals.
type SchedulerConfig struct {
	RefreshInterval  time.Duration
	FeedbackInterval time.Duration
	DecayInterval    time.Duration
}

// Scheduler drives the engine's periodic jobs. The jobs are independent:
// feedback and decay may run concurrently with scoring because affinity
// writes are per-(organization, topic) upserts and the scoring pass reads
// a snapshot. A cancelled tick is simply skipped and retried at the next
// interval.
type Scheduler struct {
	refresh  Runner
	feedback Runner
	decay    Runner
	config   SchedulerConfig
	logger   zerolog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler(refresh, feedback, decay Runner, config SchedulerConfig, logger zerolog.Logger) *Scheduler {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = time.Hour
	}
	if config.FeedbackInterval <= 0 {
		config.FeedbackInterval = 24 * time.Hour
	}
	if config.DecayInterval <= 0 {
		config.DecayInterval = 7 * 24 * time.Hour
	}

	return &Scheduler{
		refresh:  refresh,
		feedback: feedback,
		decay:    decay,
		config:   config,
		logger:   logger,
	}
}

// Start launches the periodic loops. The refresh job runs once
// immediately so a fresh deployment serves recommendations without
// waiting out the first interval.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(ctx, "refresh", s.refresh)
		s.loop(ctx, "refresh", s.refresh, s.config.RefreshInterval)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, "feedback", s.feedback, s.config.FeedbackInterval)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, "decay", s.decay, s.config.DecayInterval)
	}()

	return nil
}

func (s *Scheduler) loop(ctx context.Context, name string, job Runner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runJob(ctx, name, job)
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, job Runner) {
	if err := job.Run(ctx); err != nil {
		s.logger.Error().
			Err(err).
			Str("job", name).
			Msg("scheduled job failed")
	}
}

// Stop cancels the loops and waits for in-flight jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
