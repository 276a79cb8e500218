package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

type EventRecorder interface {
	Execute(ctx context.Context, input usecase.TrackEventInput) (*entity.AttributionEvent, error)
}

type EventHandler struct {
	track       EventRecorder
	rateLimiter *RateLimiter
}

func NewEventHandler(track EventRecorder, limiter *RateLimiter) *EventHandler {
	return &EventHandler{track: track, rateLimiter: limiter}
}

type trackEventResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id"`
}

// Track handles POST /api/events.
func (h *EventHandler) Track(w http.ResponseWriter, r *http.Request) {
	if h.rateLimiter != nil && !h.rateLimiter.Allow(getClientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var req usecase.TrackEventInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Referrer == "" {
		req.Referrer = r.Referer()
	}

	ev, err := h.track.Execute(r.Context(), req)
	if err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		zap.L().Error("event tracking failed", zap.String("event", req.EventType), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to record event")
		return
	}

	writeJSON(w, http.StatusOK, trackEventResponse{Success: true, EventID: ev.ID})
}
