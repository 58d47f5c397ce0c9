package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/iho/paymaster/internal/adapter/http/dto"
	"github.com/iho/paymaster/internal/gateway"
)

// ToolHandler dispatches tool calls through the gateway.
type ToolHandler struct {
	gateway *gateway.Gateway
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(gw *gateway.Gateway) *ToolHandler {
	return &ToolHandler{gateway: gw}
}

// Call dispatches one tool call, trying fallbacks if given. An open
// circuit maps to 503 with a Retry-After header; other remote failures
// map to 502.
func (h *ToolHandler) Call(w http.ResponseWriter, r *http.Request) {
	var req dto.ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	var (
		result gateway.Result
		err    error
	)
	if len(req.Fallbacks) > 0 {
		result, err = h.gateway.CallToolWithFallback(r.Context(), req.Service, req.Tool, req.Args, req.Fallbacks)
	} else {
		result, err = h.gateway.CallTool(r.Context(), req.Service, req.Tool, req.Args)
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to dispatch tool call", err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
		if result.RetryAfter > 0 {
			status = http.StatusServiceUnavailable
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	}
	writeJSON(w, status, dto.ToolCallFromResult(result))
}
