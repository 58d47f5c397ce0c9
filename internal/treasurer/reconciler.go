package treasurer

import (
	"context"
	"time"

	"github.com/iho/paymaster/internal/domain"
)

// ReconcileStale closes out pending entries older than maxAge: the
// entry is marked as an error and its reservation is released. This
// clears reservations stuck by a crash or a settlement callback that
// never arrived. Returns the number of entries reconciled.
func (t *Treasurer) ReconcileStale(ctx context.Context, maxAge time.Duration) int {
	stale := t.ledger.PendingOlderThan(maxAge)
	reconciled := 0

	for _, entry := range stale {
		if err := t.ledger.UpdateStatus(entry.ID, domain.EntryStatusError, "reconciled: no terminal status received"); err != nil {
			continue
		}

		t.mu.Lock()
		_, hadCorrelation := t.pending[entry.ID]
		delete(t.pending, entry.ID)
		t.mu.Unlock()

		// Release by ledger attribution: after a restart the in-memory
		// correlation is gone but the entry still names agent and amount.
		// Release floors at zero, so this is safe either way.
		t.engine.Release(entry.AgentID, entry.Amount)

		t.audit.Emit(domain.EventPendingReconciled, map[string]any{
			"authorization_id": entry.ID,
			"agent_id":         entry.AgentID,
			"amount":           entry.Amount.String(),
			"had_correlation":  hadCorrelation,
		})
		reconciled++
	}

	if reconciled > 0 {
		t.logger.Info().Int("count", reconciled).Msg("reconciled stale pending payments")
	}
	return reconciled
}

// RunReconciler sweeps stale pending entries on an interval until the
// context is cancelled.
func (t *Treasurer) RunReconciler(ctx context.Context, interval, maxAge time.Duration) {
	t.logger.Info().
		Dur("interval", interval).
		Dur("max_age", maxAge).
		Msg("reconciler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("reconciler shutting down")
			return
		case <-ticker.C:
			t.ReconcileStale(ctx, maxAge)
		}
	}
}
