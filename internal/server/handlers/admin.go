// internal/server/handlers/admin.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Runner is a manually triggerable background job.
type Runner interface {
	Run(ctx context.Context) error
}

// AdminHandler exposes manual triggers for the batch jobs. Triggers are
// asynchronous; the scheduled runs remain the source of truth and a
// manual run that overlaps one is harmless because refreshes supersede.
type AdminHandler struct {
	refresh  Runner
	feedback Runner
	decay    Runner
	timeout  time.Duration
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(refresh, feedback, decay Runner, timeout time.Duration) *AdminHandler {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &AdminHandler{
		refresh:  refresh,
		feedback: feedback,
		decay:    decay,
		timeout:  timeout,
	}
}

// TriggerRefresh starts a relevance refresh run
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	h.start(w, "refresh", h.refresh)
}

// TriggerFeedback starts a feedback loop run
func (h *AdminHandler) TriggerFeedback(w http.ResponseWriter, r *http.Request) {
	h.start(w, "feedback", h.feedback)
}

// TriggerDecay starts an affinity decay run
func (h *AdminHandler) TriggerDecay(w http.ResponseWriter, r *http.Request) {
	h.start(w, "decay", h.decay)
}

func (h *AdminHandler) start(w http.ResponseWriter, name string, job Runner) {
	if job == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Job not configured", nil)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
			return
		}
		log.Info().Str("job", name).Msg("Manually triggered job completed")
	}()

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    name,
	})
}
