// internal/server/handlers/trend.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"civicpulse/internal/domain/trend"
)

// TrendStore provides access to tagged trends.
type TrendStore interface {
	GetTrend(ctx context.Context, id string) (*trend.Trend, error)
	FindTrends(ctx context.Context, filter trend.Filter) ([]trend.Trend, error)
	MarkResolved(ctx context.Context, id string) error
}

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	trends TrendStore
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(trends TrendStore) *TrendHandler {
	return &TrendHandler{
		trends: trends,
	}
}

// GetTrends returns a list of trends
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	filter := trend.Filter{
		ActiveOnly: true,
	}

	q := r.URL.Query()

	if domains := q.Get("domains"); domains != "" {
		filter.Domains = strings.Split(domains, ",")
	}

	if breakingStr := q.Get("breaking"); breakingStr != "" {
		breaking, err := strconv.ParseBool(breakingStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid breaking parameter", err)
			return
		}
		filter.Breaking = &breaking
	}

	if velStr := q.Get("min_velocity"); velStr != "" {
		vel, err := strconv.ParseFloat(velStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid min_velocity parameter", err)
			return
		}
		filter.MinVelocity = vel
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		filter.Limit = limit
	}

	trends, err := h.trends.FindTrends(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get trends", err)
		return
	}

	respondWithJSON(w, http.StatusOK, trends)
}

// GetTrend returns a specific trend by ID
func (h *TrendHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing trend ID", nil)
		return
	}

	t, err := h.trends.GetTrend(r.Context(), id)
	if err != nil {
		if errors.Is(err, trend.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Trend not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get trend", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, t)
}

// ResolveTrend deactivates a trend so the next refresh drops it from
// every organization's candidate set
func (h *TrendHandler) ResolveTrend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing trend ID", nil)
		return
	}

	if err := h.trends.MarkResolved(r.Context(), id); err != nil {
		if errors.Is(err, trend.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Trend not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to resolve trend", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "resolved", "id": id})
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		log.Error().Err(err).Int("code", code).Msg(message)
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
