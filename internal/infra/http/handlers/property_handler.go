package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/infra/integration/propertydata"
)

type PropertyLookup interface {
	Lookup(ctx context.Context, address string) (*propertydata.Property, error)
}

type PropertyHandler struct {
	lookup PropertyLookup
}

func NewPropertyHandler(lookup PropertyLookup) *PropertyHandler {
	return &PropertyHandler{lookup: lookup}
}

// Lookup handles GET /api/property-lookup?address=.
func (h *PropertyHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	p, err := h.lookup.Lookup(r.Context(), address)
	switch {
	case errors.Is(err, propertydata.ErrNotFound):
		writeError(w, http.StatusNotFound, "Property not found")
	case errors.Is(err, propertydata.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Property lookup unavailable")
	case err != nil:
		zap.L().Warn("property lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Property lookup failed")
	default:
		writeJSON(w, http.StatusOK, p)
	}
}
