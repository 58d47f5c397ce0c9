package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/paymaster/internal/adapter/http/dto"
	"github.com/iho/paymaster/internal/gateway"
)

// ServiceHandler serves the registered-service roster and health toggles.
type ServiceHandler struct {
	registry *gateway.StaticRegistry
}

// NewServiceHandler creates a new ServiceHandler.
func NewServiceHandler(registry *gateway.StaticRegistry) *ServiceHandler {
	return &ServiceHandler{registry: registry}
}

// List returns all registered services.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ServicesFromGateway(h.registry.List()))
}

// SetHealth marks a service healthy or unhealthy for fallback routing.
func (h *ServiceHandler) SetHealth(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if service == "" {
		writeError(w, http.StatusBadRequest, "missing service id", "")
		return
	}

	var req dto.ServiceHealthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Healthy == nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "missing required field: healthy")
		return
	}

	if err := h.registry.SetHealthy(service, *req.Healthy); err != nil {
		writeError(w, mapDomainError(err), "service not found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": service,
		"healthy": *req.Healthy,
	})
}
