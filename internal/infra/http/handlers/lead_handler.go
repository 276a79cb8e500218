package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

const maxBodyBytes = 1 << 20

type LeadCapturer interface {
	Execute(ctx context.Context, input usecase.CaptureLeadInput) (*usecase.CaptureLeadOutput, error)
}

type LeadGetter interface {
	Execute(ctx context.Context, id string) (*usecase.LeadStatusOutput, error)
}

type LeadHandler struct {
	capture     LeadCapturer
	get         LeadGetter
	rateLimiter *RateLimiter
}

func NewLeadHandler(capture LeadCapturer, get LeadGetter, limiter *RateLimiter) *LeadHandler {
	return &LeadHandler{
		capture:     capture,
		get:         get,
		rateLimiter: limiter,
	}
}

// CaptureLead handles POST /api/leads.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	if h.rateLimiter != nil && !h.rateLimiter.Allow(getClientIP(r)) {
		middleware.RecordLeadRejected("rate_limited")
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var req usecase.CaptureLeadInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.RecordLeadRejected("invalid_json")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	out, err := h.capture.Execute(r.Context(), req)
	if err != nil {
		var verr *usecase.ValidationError
		if errors.As(err, &verr) {
			middleware.RecordLeadRejected("validation")
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		zap.L().Error("lead capture failed", zap.Error(err))
		middleware.RecordLeadRejected("internal")
		writeError(w, http.StatusInternalServerError, "Failed to capture lead")
		return
	}

	middleware.RecordLeadCaptured(req.FunnelType)
	writeJSON(w, http.StatusOK, out)
}

// GetLead handles GET /api/leads/{id}.
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	out, err := h.get.Execute(r.Context(), id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}
	if err != nil {
		zap.L().Error("lead lookup failed", zap.String("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load lead")
		return
	}

	writeJSON(w, http.StatusOK, out)
}
