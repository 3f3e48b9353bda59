// internal/server/handlers/recommendation.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"civicpulse/internal/domain/org"
	"civicpulse/internal/domain/relevance"
	"civicpulse/internal/service/scoring"
)

// ProfileReader provides read access to organization profiles.
type ProfileReader interface {
	GetProfile(ctx context.Context, orgID string) (*org.Profile, error)
}

// ResultReader provides read access to cached relevance results.
type ResultReader interface {
	ListForOrg(ctx context.Context, orgID string, minScore float64) ([]relevance.Result, error)
}

// RecommendationHandler serves slates from the relevance cache. The
// diversity selection re-runs over cached results so a per-request limit
// keeps the domain coverage guarantee.
type RecommendationHandler struct {
	profiles  ProfileReader
	results   ResultReader
	selector  *scoring.Selector
	minScore  float64
	slateSize int
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(
	profiles ProfileReader,
	results ResultReader,
	selector *scoring.Selector,
	minScore float64,
	slateSize int,
) *RecommendationHandler {
	return &RecommendationHandler{
		profiles:  profiles,
		results:   results,
		selector:  selector,
		minScore:  minScore,
		slateSize: slateSize,
	}
}

type recommendationResponse struct {
	OrgID       string             `json:"org_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Results     []relevance.Result `json:"results"`
}

// GetRecommendations returns the current slate for an organization
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "id")
	if orgID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing organization ID", nil)
		return
	}

	limit := h.slateSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	profile, err := h.profiles.GetProfile(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, org.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Organization not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get organization", err)
		}
		return
	}

	cached, err := h.results.ListForOrg(r.Context(), orgID, h.minScore)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get recommendations", err)
		return
	}

	slate := h.selector.Select(cached, profile.PolicyDomains, limit)
	if slate == nil {
		slate = []relevance.Result{}
	}

	respondWithJSON(w, http.StatusOK, recommendationResponse{
		OrgID:       orgID,
		GeneratedAt: time.Now(),
		Results:     slate,
	})
}
