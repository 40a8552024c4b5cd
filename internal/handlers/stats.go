package handlers

import (
	"context"
	"net/http"
	"strconv"

	"psychicline-backend/internal/models"
)

type analyticsService interface {
	Track(ctx context.Context, req models.TrackVisitRequest) error
	VisitorStats(ctx context.Context, days int) (*models.VisitorStats, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

type StatsHandler struct {
	analytics analyticsService
}

func NewStatsHandler(analytics analyticsService) *StatsHandler {
	return &StatsHandler{analytics: analytics}
}

func (h *StatsHandler) Platform(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.PlatformStats(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// VisitorStats takes ?days=N; missing or malformed values use the default range.
func (h *StatsHandler) VisitorStats(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	stats, err := h.analytics.VisitorStats(r.Context(), days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req models.TrackVisitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.analytics.Track(r.Context(), req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
