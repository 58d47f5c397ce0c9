package handler

import (
	"net/http"

	"github.com/iho/paymaster/internal/adapter/http/dto"
	"github.com/iho/paymaster/internal/budget"
)

// BudgetHandler serves budget status requests.
type BudgetHandler struct {
	engine *budget.Engine
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(engine *budget.Engine) *BudgetHandler {
	return &BudgetHandler{engine: engine}
}

// Status returns the current budget snapshot.
func (h *BudgetHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.BudgetStatusFromDomain(h.engine.Status()))
}
