package audit

import (
	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// Emitter writes structured audit events for authorizations, rejections,
// reservations and breaker transitions. Emission is separated from policy
// logic: components call Emit at defined transition points and the stream
// stays informational only.
type Emitter struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewEmitter creates an Emitter. metrics may be nil.
func NewEmitter(logger zerolog.Logger, m *metrics.Metrics) *Emitter {
	return &Emitter{
		logger:  logger.With().Str("stream", "audit").Logger(),
		metrics: m,
	}
}

// Emit writes one audit event. Safe to call on a nil Emitter.
func (e *Emitter) Emit(event string, fields map[string]any) {
	if e == nil {
		return
	}
	e.logger.Info().
		Str("audit_event", event).
		Fields(fields).
		Msg("audit")

	if e.metrics != nil {
		e.metrics.AuditEvents.WithLabelValues(event).Inc()
	}
}
