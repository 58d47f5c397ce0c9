package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetLimits is an immutable snapshot of the configured spend limits.
// All values are integer base units.
type BudgetLimits struct {
	TotalBudget          decimal.Decimal
	DailyLimit           decimal.Decimal
	PerRequestLimit      decimal.Decimal
	AutoApproveThreshold decimal.Decimal
}

// AgentSpend is the accepted spend attributed to one agent.
type AgentSpend struct {
	AgentID    string
	Spent      decimal.Decimal
	Percentage decimal.Decimal
}

// BudgetStatus is a read-only snapshot for operator-facing reporting.
type BudgetStatus struct {
	TotalBudget    decimal.Decimal
	TotalSpent     decimal.Decimal
	Remaining      decimal.Decimal
	DailySpent     decimal.Decimal
	DailyRemaining decimal.Decimal
	PerAgent       []AgentSpend
	AsOf           time.Time
}
