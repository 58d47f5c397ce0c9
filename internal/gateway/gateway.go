package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/breaker"
	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// Result is the outcome of a dispatched tool call. Remote failures and
// open circuits are values here, not errors; only resolution problems
// (unknown primary service) surface as errors.
type Result struct {
	Success    bool
	Service    string
	Data       any
	Error      string
	RetryAfter time.Duration
}

// Gateway dispatches tool calls to registered services through their
// circuit breakers, with optional fallback routing.
type Gateway struct {
	registry    Registry
	breakers    *breaker.Manager
	callTimeout time.Duration
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// New creates a Gateway. m may be nil. callTimeout bounds each
// individual service call; zero means no extra bound beyond ctx.
func New(registry Registry, breakers *breaker.Manager, callTimeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	return &Gateway{
		registry:    registry,
		breakers:    breakers,
		callTimeout: callTimeout,
		metrics:     m,
		logger:      logger.With().Str("component", "gateway").Logger(),
	}
}

// CallTool dispatches one tool call to a service. The call runs through
// the service's circuit breaker; an open circuit is reported with the
// remaining cooldown and the remote is not contacted.
func (g *Gateway) CallTool(ctx context.Context, serviceID, tool string, args map[string]any) (Result, error) {
	svc, err := g.registry.Resolve(serviceID)
	if err != nil {
		return Result{}, err
	}
	return g.call(ctx, svc, tool, args), nil
}

// CallToolWithFallback dispatches to the primary service and, if the
// call fails for any reason, retries against each fallback in order.
// Fallbacks that are unknown, unhealthy or do not expose the tool are
// skipped. The returned Result names the service that answered.
func (g *Gateway) CallToolWithFallback(ctx context.Context, primaryID, tool string, args map[string]any, fallbackIDs []string) (Result, error) {
	primary, err := g.registry.Resolve(primaryID)
	if err != nil {
		return Result{}, err
	}

	result := g.call(ctx, primary, tool, args)
	if result.Success {
		return result, nil
	}
	primaryResult := result

	for _, id := range fallbackIDs {
		svc, err := g.registry.Resolve(id)
		if err != nil {
			g.logger.Warn().Str("service", id).Msg("skipping unknown fallback service")
			continue
		}
		if !svc.Healthy {
			g.logger.Debug().Str("service", id).Msg("skipping unhealthy fallback service")
			continue
		}
		if !svc.HasTool(tool) {
			g.logger.Debug().Str("service", id).Str("tool", tool).Msg("fallback service does not expose tool")
			continue
		}

		result = g.call(ctx, svc, tool, args)
		if result.Success {
			g.logger.Info().
				Str("primary", primaryID).
				Str("fallback", id).
				Str("tool", tool).
				Msg("tool call served by fallback")
			return result, nil
		}
	}

	// every route failed; report against the primary, its failure is
	// the one the caller asked about
	failed := Result{
		Service:    primaryID,
		Error:      fmt.Sprintf("service %s failed (%s) and no fallback succeeded", primaryID, primaryResult.Error),
		RetryAfter: primaryResult.RetryAfter,
	}
	return failed, nil
}

func (g *Gateway) call(ctx context.Context, svc Service, tool string, args map[string]any) Result {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	var data any
	start := time.Now()
	err := g.breakers.Do(ctx, svc.ID, func(ctx context.Context) error {
		var callErr error
		data, callErr = svc.Caller.CallTool(ctx, tool, args)
		return callErr
	})
	g.observe(svc.ID, time.Since(start), err)

	if err == nil {
		return Result{Success: true, Service: svc.ID, Data: data}
	}

	var open *breaker.OpenError
	if errors.As(err, &open) {
		retry := open.RetryAfter.Round(time.Second)
		return Result{
			Service:    svc.ID,
			Error:      fmt.Sprintf("service %s temporarily unavailable; retry after %s", svc.ID, retry),
			RetryAfter: open.RetryAfter,
		}
	}

	g.logger.Warn().Err(err).Str("service", svc.ID).Str("tool", tool).Msg("tool call failed")
	return Result{Service: svc.ID, Error: err.Error()}
}

func (g *Gateway) observe(serviceID string, elapsed time.Duration, err error) {
	if g.metrics == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
		var open *breaker.OpenError
		if errors.As(err, &open) {
			outcome = "open"
		}
	}
	g.metrics.ToolCalls.WithLabelValues(serviceID, outcome).Inc()
	g.metrics.ToolCallDuration.WithLabelValues(serviceID).Observe(elapsed.Seconds())
}
