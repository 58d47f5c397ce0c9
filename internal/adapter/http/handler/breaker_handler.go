package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/paymaster/internal/adapter/http/dto"
	"github.com/iho/paymaster/internal/breaker"
)

// BreakerHandler serves circuit breaker inspection and reset requests.
type BreakerHandler struct {
	manager *breaker.Manager
}

// NewBreakerHandler creates a new BreakerHandler.
func NewBreakerHandler(manager *breaker.Manager) *BreakerHandler {
	return &BreakerHandler{manager: manager}
}

// List returns snapshots for all known breakers.
func (h *BreakerHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.BreakerStatsFromDomain(h.manager.Stats()))
}

// Reset forces the breaker of a service closed.
func (h *BreakerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if service == "" {
		writeError(w, http.StatusBadRequest, "missing service id", "")
		return
	}

	if !h.manager.Reset(service) {
		writeError(w, http.StatusNotFound, "no breaker for service", service)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": service,
		"state":   string(breaker.StateClosed),
	})
}
