package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State of a circuit breaker.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Settings holds the fixed thresholds of a breaker.
type Settings struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
}

// DefaultSettings returns the standard thresholds.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// OpenError is returned when a call is refused because the circuit is
// open. RetryAfter is the remaining cooldown.
type OpenError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit open for service %s: retry after %s", e.Service, e.RetryAfter)
}

// Stats is a read-only snapshot of one breaker.
type Stats struct {
	Service              string
	State                State
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastFailure          time.Time
	RetryAfter           time.Duration
}

// Breaker is the fault-isolation state machine for one remote service.
// State mutations are serialized per breaker; the guarded operation
// itself runs outside the lock so slow calls do not block stat reads.
type Breaker struct {
	service      string
	cfg          Settings
	onTransition func(service string, from, to State)
	now          func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// New creates a closed breaker. onTransition may be nil.
func New(service string, cfg Settings, onTransition func(service string, from, to State)) *Breaker {
	return &Breaker{
		service:      service,
		cfg:          cfg,
		onTransition: onTransition,
		now:          time.Now,
		state:        StateClosed,
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onTransition != nil {
		b.onTransition(b.service, from, to)
	}
}

// Do runs op through the breaker. If the circuit is open and the
// cooldown has not elapsed, op is not invoked and an *OpenError is
// returned. A context timeout inside op counts as a failure like any
// other error.
func (b *Breaker) Do(ctx context.Context, op func(context.Context) error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.cfg.Cooldown {
			retryAfter := b.cfg.Cooldown - elapsed
			b.mu.Unlock()
			return &OpenError{Service: b.service, RetryAfter: retryAfter}
		}
		b.transition(StateHalfOpen)
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.successes = 0
		b.lastFailure = b.now()
		if b.state == StateHalfOpen {
			b.transition(StateOpen)
		} else if b.state == StateClosed && b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
		return err
	}

	b.failures = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.successes = 0
			b.transition(StateClosed)
		}
	}
	return nil
}

// Reset forces the breaker closed and zeroes all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
	b.transition(StateClosed)
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := Stats{
		Service:              b.service,
		State:                b.state,
		ConsecutiveFailures:  b.failures,
		ConsecutiveSuccesses: b.successes,
		LastFailure:          b.lastFailure,
	}
	if b.state == StateOpen {
		if remaining := b.cfg.Cooldown - b.now().Sub(b.lastFailure); remaining > 0 {
			stats.RetryAfter = remaining
		}
	}
	return stats
}
