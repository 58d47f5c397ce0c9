package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/breaker"
	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/gateway"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AgentSpendResponse represents one agent's accepted spend.
type AgentSpendResponse struct {
	AgentID    string          `json:"agent_id"`
	Spent      decimal.Decimal `json:"spent"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BudgetStatusResponse represents the budget snapshot in API responses.
type BudgetStatusResponse struct {
	TotalBudget    decimal.Decimal      `json:"total_budget"`
	TotalSpent     decimal.Decimal      `json:"total_spent"`
	Remaining      decimal.Decimal      `json:"remaining"`
	DailySpent     decimal.Decimal      `json:"daily_spent"`
	DailyRemaining decimal.Decimal      `json:"daily_remaining"`
	PerAgent       []AgentSpendResponse `json:"per_agent"`
	AsOf           time.Time            `json:"as_of"`
}

// BudgetStatusFromDomain converts a budget snapshot to a response.
func BudgetStatusFromDomain(s domain.BudgetStatus) *BudgetStatusResponse {
	perAgent := make([]AgentSpendResponse, len(s.PerAgent))
	for i, a := range s.PerAgent {
		perAgent[i] = AgentSpendResponse{
			AgentID:    a.AgentID,
			Spent:      a.Spent,
			Percentage: a.Percentage,
		}
	}
	return &BudgetStatusResponse{
		TotalBudget:    s.TotalBudget,
		TotalSpent:     s.TotalSpent,
		Remaining:      s.Remaining,
		DailySpent:     s.DailySpent,
		DailyRemaining: s.DailyRemaining,
		PerAgent:       perAgent,
		AsOf:           s.AsOf,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID           string          `json:"id"`
	AgentID      string          `json:"agent_id"`
	ToolName     string          `json:"tool_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	PayTo        string          `json:"pay_to,omitempty"`
	Network      string          `json:"network,omitempty"`
	Asset        string          `json:"asset,omitempty"`
	InstrumentID string          `json:"instrument_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	SettledAt    *time.Time      `json:"settled_at,omitempty"`
}

// EntryFromDomain converts a ledger entry to a response.
func EntryFromDomain(e domain.LedgerEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:           e.ID,
		AgentID:      e.AgentID,
		ToolName:     e.ToolName,
		Amount:       e.Amount,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		InstrumentID: e.InstrumentID,
		CreatedAt:    e.CreatedAt,
		SettledAt:    e.SettledAt,
	}
	if e.Requirement != nil {
		resp.PayTo = e.Requirement.PayTo
		resp.Network = e.Requirement.Network
		resp.Asset = e.Requirement.Asset
	}
	return resp
}

// EntriesFromDomain converts ledger entries to responses.
func EntriesFromDomain(entries []domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// BreakerStatsResponse represents one circuit breaker in API responses.
type BreakerStatsResponse struct {
	Service              string     `json:"service"`
	State                string     `json:"state"`
	ConsecutiveFailures  int        `json:"consecutive_failures"`
	ConsecutiveSuccesses int        `json:"consecutive_successes"`
	LastFailure          *time.Time `json:"last_failure,omitempty"`
	RetryAfterSeconds    float64    `json:"retry_after_seconds,omitempty"`
}

// BreakerStatsFromDomain converts breaker snapshots to responses.
func BreakerStatsFromDomain(stats []breaker.Stats) []*BreakerStatsResponse {
	result := make([]*BreakerStatsResponse, len(stats))
	for i, s := range stats {
		resp := &BreakerStatsResponse{
			Service:              s.Service,
			State:                string(s.State),
			ConsecutiveFailures:  s.ConsecutiveFailures,
			ConsecutiveSuccesses: s.ConsecutiveSuccesses,
			RetryAfterSeconds:    s.RetryAfter.Seconds(),
		}
		if !s.LastFailure.IsZero() {
			lf := s.LastFailure
			resp.LastFailure = &lf
		}
		result[i] = resp
	}
	return result
}

// ServiceResponse represents one registered service in API responses.
type ServiceResponse struct {
	Service string   `json:"service"`
	Healthy bool     `json:"healthy"`
	Tools   []string `json:"tools,omitempty"`
}

// ServicesFromGateway converts registry snapshots to responses.
func ServicesFromGateway(services []gateway.Service) []*ServiceResponse {
	result := make([]*ServiceResponse, len(services))
	for i, s := range services {
		result[i] = &ServiceResponse{
			Service: s.ID,
			Healthy: s.Healthy,
			Tools:   s.Tools,
		}
	}
	return result
}

// ToolCallResponse represents a dispatched tool call outcome.
type ToolCallResponse struct {
	Success           bool    `json:"success"`
	Service           string  `json:"service,omitempty"`
	Data              any     `json:"data,omitempty"`
	Error             string  `json:"error,omitempty"`
	RetryAfterSeconds float64 `json:"retry_after_seconds,omitempty"`
}

// ToolCallFromResult converts a gateway result to a response.
func ToolCallFromResult(r gateway.Result) *ToolCallResponse {
	return &ToolCallResponse{
		Success:           r.Success,
		Service:           r.Service,
		Data:              r.Data,
		Error:             r.Error,
		RetryAfterSeconds: r.RetryAfter.Seconds(),
	}
}
