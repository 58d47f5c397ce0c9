package budget

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// Denial reasons, surfaced to operators verbatim.
const (
	ReasonPerRequestLimit = "exceeds per-request limit"
	ReasonDailyLimit      = "would exceed daily limit"
	ReasonTotalBudget     = "would exceed total budget"
	ReasonAgentAllocation = "would exceed agent allocation"
)

// SpendReader is the ledger view the engine evaluates limits against.
type SpendReader interface {
	TotalSpent() decimal.Decimal
	SpentByAgent(agentID string) decimal.Decimal
	AgentTotals() map[string]decimal.Decimal
	TodaySpending() decimal.Decimal
}

// Decision is the outcome of a policy check. Denials are values, never
// faults; Reason is human-readable.
type Decision struct {
	Allowed bool
	Reason  string
}

func denied(reason string) Decision {
	return Decision{Reason: reason}
}

// Reservation is a provisional hold against an agent allocation, taken
// before the payment instrument is created and released on any
// non-accepted terminal outcome.
type Reservation struct {
	AgentID string
	Amount  decimal.Decimal
	TakenAt time.Time
}

type allocation struct {
	allocated decimal.Decimal
	reserved  decimal.Decimal
}

// Engine enforces the multi-tier spend limits and owns the
// reserve/release lifecycle. The allocation table is engine-private:
// counters are never handed out by reference.
type Engine struct {
	mu          sync.Mutex
	limits      domain.BudgetLimits
	ledger      SpendReader
	allocations map[string]*allocation
	outstanding int
	audit       *audit.Emitter
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEngine creates a policy engine. allocations maps agent ids to their
// immutable budget ceilings; audit and m may be nil.
func NewEngine(
	limits domain.BudgetLimits,
	ledger SpendReader,
	allocations map[string]decimal.Decimal,
	aud *audit.Emitter,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Engine {
	table := make(map[string]*allocation, len(allocations))
	for agentID, allocated := range allocations {
		table[agentID] = &allocation{allocated: allocated}
	}

	return &Engine{
		limits:      limits,
		ledger:      ledger,
		allocations: table,
		audit:       aud,
		metrics:     m,
		logger:      logger.With().Str("component", "budget").Logger(),
		now:         time.Now,
	}
}

// CanApprove evaluates the spend-limit tiers in fixed order,
// short-circuiting on the first failure.
func (e *Engine) CanApprove(agentID string, amount decimal.Decimal) Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canApproveLocked(agentID, amount)
}

func (e *Engine) canApproveLocked(agentID string, amount decimal.Decimal) Decision {
	if amount.GreaterThan(e.limits.PerRequestLimit) {
		return denied(ReasonPerRequestLimit)
	}
	if e.ledger.TodaySpending().Add(amount).GreaterThan(e.limits.DailyLimit) {
		return denied(ReasonDailyLimit)
	}
	if e.ledger.TotalSpent().Add(amount).GreaterThan(e.limits.TotalBudget) {
		return denied(ReasonTotalBudget)
	}
	if alloc, ok := e.allocations[agentID]; ok {
		available := alloc.allocated.Sub(e.ledger.SpentByAgent(agentID)).Sub(alloc.reserved)
		if available.LessThan(amount) {
			return denied(ReasonAgentAllocation)
		}
	}
	return Decision{Allowed: true}
}

// IsAutoApprovable reports whether the amount is below the threshold
// that permits approval without out-of-band confirmation.
func (e *Engine) IsAutoApprovable(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(e.limits.AutoApproveThreshold)
}

// Reserve re-evaluates the full policy and commits the reserved
// increment in one critical section, so two concurrent reservations
// cannot both pass the check before either is visible.
func (e *Engine) Reserve(agentID string, amount decimal.Decimal) (*Reservation, Decision) {
	e.mu.Lock()
	decision := e.canApproveLocked(agentID, amount)
	if !decision.Allowed {
		e.mu.Unlock()
		e.audit.Emit(domain.EventAuthorizationDenied, map[string]any{
			"agent_id": agentID,
			"amount":   amount.String(),
			"reason":   decision.Reason,
		})
		if e.metrics != nil {
			e.metrics.AuthorizationsDenied.WithLabelValues(decision.Reason).Inc()
		}
		return nil, decision
	}

	if alloc, ok := e.allocations[agentID]; ok {
		alloc.reserved = alloc.reserved.Add(amount)
	}
	e.outstanding++
	e.mu.Unlock()

	e.audit.Emit(domain.EventReservationTaken, map[string]any{
		"agent_id": agentID,
		"amount":   amount.String(),
	})
	if e.metrics != nil {
		e.metrics.ReservationsTaken.Inc()
		e.metrics.ReservationsActive.Inc()
	}

	return &Reservation{AgentID: agentID, Amount: amount, TakenAt: e.now().UTC()}, decision
}

// Release returns a reservation to the allocation. The reserved counter
// is floored at zero, so releasing an amount that was never reserved is
// safe and double releases cannot drive it negative.
func (e *Engine) Release(agentID string, amount decimal.Decimal) {
	e.mu.Lock()
	if alloc, ok := e.allocations[agentID]; ok {
		alloc.reserved = alloc.reserved.Sub(amount)
		if alloc.reserved.IsNegative() {
			alloc.reserved = decimal.Zero
		}
	}
	retired := e.retireLocked()
	e.mu.Unlock()

	e.audit.Emit(domain.EventReservationReleased, map[string]any{
		"agent_id": agentID,
		"amount":   amount.String(),
	})
	if retired && e.metrics != nil {
		e.metrics.ReservationsActive.Dec()
	}
}

// Commit retires a reservation whose payment settled as accepted. The
// spend is now visible through the ledger, so the reserved counter must
// drop or the amount would count against the allocation twice.
func (e *Engine) Commit(agentID string, amount decimal.Decimal) {
	e.mu.Lock()
	if alloc, ok := e.allocations[agentID]; ok {
		alloc.reserved = alloc.reserved.Sub(amount)
		if alloc.reserved.IsNegative() {
			alloc.reserved = decimal.Zero
		}
	}
	retired := e.retireLocked()
	e.mu.Unlock()

	e.audit.Emit(domain.EventReservationCommitted, map[string]any{
		"agent_id": agentID,
		"amount":   amount.String(),
	})
	if retired && e.metrics != nil {
		e.metrics.ReservationsActive.Dec()
	}
}

// retireLocked consumes one outstanding reservation. Releases without a
// matching reserve, like the reconciler expiring entries restored from a
// snapshot, must not move the active gauge below zero.
func (e *Engine) retireLocked() bool {
	if e.outstanding == 0 {
		return false
	}
	e.outstanding--
	return true
}

// Reserved returns the in-flight reserved amount for an agent.
func (e *Engine) Reserved(agentID string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	if alloc, ok := e.allocations[agentID]; ok {
		return alloc.reserved
	}
	return decimal.Zero
}

// Status produces a read-only snapshot for reporting.
func (e *Engine) Status() domain.BudgetStatus {
	totalSpent := e.ledger.TotalSpent()
	dailySpent := e.ledger.TodaySpending()
	agentTotals := e.ledger.AgentTotals()

	perAgent := make([]domain.AgentSpend, 0, len(agentTotals))
	for agentID, spent := range agentTotals {
		percentage := decimal.Zero
		if totalSpent.IsPositive() {
			percentage = spent.Div(totalSpent).Mul(decimal.NewFromInt(100)).Round(2)
		}
		perAgent = append(perAgent, domain.AgentSpend{
			AgentID:    agentID,
			Spent:      spent,
			Percentage: percentage,
		})
	}
	sort.Slice(perAgent, func(i, j int) bool {
		return perAgent[i].AgentID < perAgent[j].AgentID
	})

	return domain.BudgetStatus{
		TotalBudget:    e.limits.TotalBudget,
		TotalSpent:     totalSpent,
		Remaining:      e.limits.TotalBudget.Sub(totalSpent),
		DailySpent:     dailySpent,
		DailyRemaining: e.limits.DailyLimit.Sub(dailySpent),
		PerAgent:       perAgent,
		AsOf:           e.now().UTC(),
	}
}
