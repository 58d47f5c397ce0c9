package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
	"github.com/iho/paymaster/internal/ledger"
)

// Persister snapshots the ledger on an interval and restores it at
// startup. Saves are retried with exponential backoff; a save that
// still fails is logged and the next tick tries again with fresh state.
type Persister struct {
	ledger  *ledger.Ledger
	store   Store
	audit   *audit.Emitter
	metrics *metrics.Metrics
	logger  zerolog.Logger

	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
}

// NewPersister creates a Persister. audit and m may be nil.
func NewPersister(l *ledger.Ledger, store Store, aud *audit.Emitter, m *metrics.Metrics, logger zerolog.Logger) *Persister {
	return &Persister{
		ledger:          l,
		store:           store,
		audit:           aud,
		metrics:         m,
		logger:          logger.With().Str("component", "snapshot").Logger(),
		maxRetries:      3,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     2 * time.Second,
		maxElapsedTime:  10 * time.Second,
	}
}

// Restore loads the last snapshot into the ledger. A missing snapshot
// is not an error; the ledger simply starts empty.
func (p *Persister) Restore(ctx context.Context) error {
	doc, err := p.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			p.logger.Info().Msg("no ledger snapshot found, starting empty")
			return nil
		}
		return err
	}

	if err := p.ledger.Import(doc); err != nil {
		return err
	}

	p.audit.Emit(domain.EventLedgerImported, map[string]any{
		"entries": len(doc.Entries),
		"source":  "snapshot",
	})
	p.logger.Info().Int("entries", len(doc.Entries)).Msg("ledger restored from snapshot")
	return nil
}

// Save exports the ledger and writes it to the store, retrying
// transient failures.
func (p *Persister) Save(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialInterval
	b.MaxInterval = p.maxInterval
	b.MaxElapsedTime = p.maxElapsedTime

	retryCount := 0
	err := backoff.Retry(func() error {
		// re-export inside the retry so a late attempt persists current state
		saveErr := p.store.Save(ctx, p.ledger.Export())
		if saveErr == nil {
			return nil
		}

		retryCount++
		if retryCount > p.maxRetries {
			return backoff.Permanent(saveErr)
		}

		p.logger.Warn().Err(saveErr).Int("retry", retryCount).Msg("snapshot save failed, retrying")
		return saveErr
	}, backoff.WithContext(b, ctx))

	if p.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		p.metrics.SnapshotSaves.WithLabelValues(outcome).Inc()
	}
	return err
}

// Run saves the ledger on an interval until the context is cancelled.
// The caller takes the final shutdown snapshot, so it cannot be cut
// short by process exit.
func (p *Persister) Run(ctx context.Context, interval time.Duration) {
	p.logger.Info().Dur("interval", interval).Msg("snapshot persister started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("snapshot persister shutting down")
			return
		case <-ticker.C:
			if err := p.Save(ctx); err != nil {
				p.logger.Error().Err(err).Msg("snapshot save failed")
			}
		}
	}
}
