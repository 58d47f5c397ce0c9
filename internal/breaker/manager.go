package breaker

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/domain"
	"github.com/iho/paymaster/internal/infrastructure/audit"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// Manager owns one breaker per remote service, created lazily on first
// use and kept for the process lifetime. The breaker table is
// manager-private; callers only see snapshots.
type Manager struct {
	cfg     Settings
	audit   *audit.Emitter
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewManager creates a Manager. audit and m may be nil.
func NewManager(cfg Settings, aud *audit.Emitter, m *metrics.Metrics, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		audit:    aud,
		metrics:  m,
		logger:   logger.With().Str("component", "breaker").Logger(),
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for a service, creating it if needed.
func (m *Manager) Get(service string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[service]
	if !ok {
		b = New(service, m.cfg, m.recordTransition)
		m.breakers[service] = b
		if m.metrics != nil {
			m.metrics.BreakerState.WithLabelValues(service).Set(stateValue(StateClosed))
		}
	}
	return b
}

// Do runs op through the breaker of the given service.
func (m *Manager) Do(ctx context.Context, service string, op func(context.Context) error) error {
	return m.Get(service).Do(ctx, op)
}

// Reset forces the breaker of a service closed. It reports false for a
// service no breaker exists for, without creating one.
func (m *Manager) Reset(service string) bool {
	m.mu.Lock()
	b, ok := m.breakers[service]
	m.mu.Unlock()

	if !ok {
		return false
	}
	b.Reset()
	return true
}

// Stats returns snapshots for all known breakers, sorted by service id.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	breakers := make([]*Breaker, 0, len(m.breakers))
	for _, b := range m.breakers {
		breakers = append(breakers, b)
	}
	m.mu.Unlock()

	stats := make([]Stats, 0, len(breakers))
	for _, b := range breakers {
		stats = append(stats, b.Stats())
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Service < stats[j].Service
	})
	return stats
}

func (m *Manager) recordTransition(service string, from, to State) {
	m.logger.Warn().
		Str("service", service).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("circuit breaker transition")

	m.audit.Emit(domain.EventBreakerTransition, map[string]any{
		"service": service,
		"from":    string(from),
		"to":      string(to),
	})
	if m.metrics != nil {
		m.metrics.BreakerTransitions.WithLabelValues(service, string(to)).Inc()
		m.metrics.BreakerState.WithLabelValues(service).Set(stateValue(to))
	}
}

func stateValue(s State) float64 {
	switch s {
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return 0
	}
}
