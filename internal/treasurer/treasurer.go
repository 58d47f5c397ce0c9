package treasurer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/paymaster/internal/budget"
	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
	"github.com/iho/paymaster/internal/ledger"
)

// pendingAuth correlates an authorization id with the allocation it
// reserved, kept only until a terminal status arrives.
type pendingAuth struct {
	agentID  string
	toolName string
	amount   decimal.Decimal
}

// Treasurer authorizes payment-required events end to end: policy
// check, reservation, instrument creation, ledger recording and later
// status reconciliation. All failures surface as a nil authorization;
// none escape to the caller.
type Treasurer struct {
	engine    *budget.Engine
	ledger    *ledger.Ledger
	wallet    Wallet
	confirmer Confirmer
	idGen     IDGenerator
	audit     *audit.Emitter
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu      sync.Mutex
	pending map[string]pendingAuth
}

// New creates a Treasurer. confirmer, audit and m may be nil; without a
// confirmer, payments above the auto-approve threshold are denied.
func New(
	engine *budget.Engine,
	l *ledger.Ledger,
	wallet Wallet,
	confirmer Confirmer,
	idGen IDGenerator,
	aud *audit.Emitter,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Treasurer {
	return &Treasurer{
		engine:    engine,
		ledger:    l,
		wallet:    wallet,
		confirmer: confirmer,
		idGen:     idGen,
		audit:     aud,
		metrics:   m,
		logger:    logger.With().Str("component", "treasurer").Logger(),
		pending:   make(map[string]pendingAuth),
	}
}

// OnPaymentRequired handles a payment-required event from the
// remote-payment client. Only the first requirement is considered. A
// nil result means the payment was declined or could not be prepared;
// the reason is logged and audited, never raised.
func (t *Treasurer) OnPaymentRequired(ctx context.Context, reqs []domain.PaymentRequirement, cc domain.CallContext) *domain.Authorization {
	if len(reqs) == 0 {
		return nil
	}
	req := reqs[0]
	cc = domain.NewCallContext(cc.AgentID, cc.ToolName)

	log := t.logger.With().
		Str("agent_id", cc.AgentID).
		Str("tool_name", cc.ToolName).
		Str("amount", req.Amount.String()).
		Logger()

	if err := req.Validate(); err != nil {
		log.Warn().Err(err).Msg("malformed payment requirement")
		return nil
	}

	if !t.engine.IsAutoApprovable(req.Amount) && !t.confirm(ctx, cc.AgentID, req, log) {
		return nil
	}

	// Reserve commits the hold before the slow wallet call starts, so a
	// concurrent authorization for the same agent sees it.
	reservation, decision := t.engine.Reserve(cc.AgentID, req.Amount)
	if !decision.Allowed {
		log.Warn().Str("reason", decision.Reason).Msg("payment denied")
		return nil
	}

	instrument, err := t.wallet.CreatePaymentInstrument(ctx, req)
	if err != nil {
		// no partial state survives a wallet failure
		t.engine.Release(reservation.AgentID, reservation.Amount)
		log.Error().Err(err).Msg("payment instrument creation failed, reservation rolled back")
		if t.metrics != nil {
			t.metrics.WalletFailures.Inc()
		}
		return nil
	}

	authID := t.idGen.Generate()
	if err := t.ledger.RecordAuthorization(authID, cc.AgentID, cc.ToolName, req, instrument); err != nil {
		t.engine.Release(reservation.AgentID, reservation.Amount)
		log.Error().Err(err).Str("authorization_id", authID).Msg("failed to record authorization")
		return nil
	}

	t.mu.Lock()
	t.pending[authID] = pendingAuth{agentID: cc.AgentID, toolName: cc.ToolName, amount: req.Amount}
	t.mu.Unlock()

	t.audit.Emit(domain.EventAuthorizationGranted, map[string]any{
		"authorization_id": authID,
		"agent_id":         cc.AgentID,
		"tool_name":        cc.ToolName,
		"amount":           req.Amount.String(),
	})
	if t.metrics != nil {
		t.metrics.AuthorizationsGranted.Inc()
	}
	log.Info().Str("authorization_id", authID).Msg("payment authorized")

	return &domain.Authorization{ID: authID, Instrument: instrument}
}

func (t *Treasurer) confirm(ctx context.Context, agentID string, req domain.PaymentRequirement, log zerolog.Logger) bool {
	if t.confirmer == nil {
		log.Warn().Msg("payment above auto-approve threshold denied: no confirmer configured")
		t.audit.Emit(domain.EventAuthorizationDenied, map[string]any{
			"agent_id": agentID,
			"amount":   req.Amount.String(),
			"reason":   "requires out-of-band confirmation",
		})
		return false
	}

	ok, err := t.confirmer.Confirm(ctx, agentID, req)
	if err != nil {
		log.Error().Err(err).Msg("confirmation failed")
		return false
	}
	if !ok {
		log.Warn().Msg("payment above auto-approve threshold rejected by confirmer")
		t.audit.Emit(domain.EventAuthorizationDenied, map[string]any{
			"agent_id": agentID,
			"amount":   req.Amount.String(),
			"reason":   "confirmation declined",
		})
	}
	return ok
}

// OnStatus applies a settlement status reported by the remote-payment
// client. Non-accepted terminal outcomes release the reservation;
// "sending" and unknown values are non-terminal and change nothing.
func (t *Treasurer) OnStatus(ctx context.Context, status domain.StatusValue, auth *domain.Authorization, cc domain.CallContext) {
	if auth == nil || auth.ID == "" {
		return
	}

	entryStatus := status.EntryStatus()
	errText := ""
	if entryStatus == domain.EntryStatusError {
		errText = "remote settlement error"
	}

	if err := t.ledger.UpdateStatus(auth.ID, entryStatus, errText); err != nil {
		t.logger.Warn().Err(err).
			Str("authorization_id", auth.ID).
			Str("status", string(status)).
			Msg("ledger status update skipped")
	} else if entryStatus == domain.EntryStatusAccepted && t.metrics != nil {
		if entry, err := t.ledger.Entry(auth.ID); err == nil {
			t.metrics.SpentBaseUnits.Add(entry.Amount.InexactFloat64())
		}
	}

	if !status.Terminal() {
		return
	}

	t.mu.Lock()
	corr, ok := t.pending[auth.ID]
	delete(t.pending, auth.ID)
	t.mu.Unlock()

	if ok {
		if entryStatus == domain.EntryStatusAccepted {
			t.engine.Commit(corr.agentID, corr.amount)
		} else {
			t.engine.Release(corr.agentID, corr.amount)
		}
	}

	t.audit.Emit(domain.EventStatusUpdated, map[string]any{
		"authorization_id": auth.ID,
		"status":           string(status),
	})
	if t.metrics != nil {
		t.metrics.PaymentsSettled.WithLabelValues(string(entryStatus)).Inc()
	}
}

// PendingCount returns the number of authorizations awaiting a
// terminal status.
func (t *Treasurer) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
