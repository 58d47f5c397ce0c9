package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/paymaster/internal/breaker"
	"github.com/iho/paymaster/internal/domain"
)

// stubCaller fails until the error is cleared, counting invocations.
type stubCaller struct {
	err   error
	data  any
	calls int
}

func (c *stubCaller) CallTool(_ context.Context, _ string, _ map[string]any) (any, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.data, nil
}

func newTestGateway(registry Registry, cfg breaker.Settings) *Gateway {
	manager := breaker.NewManager(cfg, nil, nil, zerolog.Nop())
	return New(registry, manager, 0, nil, zerolog.Nop())
}

func register(r *StaticRegistry, id string, healthy bool, tools []string, caller ToolCaller) {
	r.Register(Service{ID: id, Healthy: healthy, Tools: tools, Caller: caller})
}

func TestCallToolUnknownService(t *testing.T) {
	gw := newTestGateway(NewStaticRegistry(), breaker.DefaultSettings())

	_, err := gw.CallTool(context.Background(), "ghost", "search", nil)
	if !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestCallToolSuccess(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "search-svc", true, nil, &stubCaller{data: "results"})
	gw := newTestGateway(registry, breaker.DefaultSettings())

	result, err := gw.CallTool(context.Background(), "search-svc", "search", map[string]any{"q": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Data != "results" || result.Service != "search-svc" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCallToolRemoteFailure(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "search-svc", true, nil, &stubCaller{err: errors.New("upstream 500")})
	gw := newTestGateway(registry, breaker.DefaultSettings())

	result, err := gw.CallTool(context.Background(), "search-svc", "search", nil)
	if err != nil {
		t.Fatalf("remote failures must be result values, got error: %v", err)
	}
	if result.Success || result.Error != "upstream 500" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCallToolOpenCircuit(t *testing.T) {
	registry := NewStaticRegistry()
	caller := &stubCaller{err: errors.New("upstream down")}
	register(registry, "search-svc", true, nil, caller)
	gw := newTestGateway(registry, breaker.Settings{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	})

	if _, err := gw.CallTool(context.Background(), "search-svc", "search", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := gw.CallTool(context.Background(), "search-svc", "search", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("call through an open circuit must fail")
	}
	if result.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %s, want positive cooldown", result.RetryAfter)
	}
	if !strings.Contains(result.Error, "temporarily unavailable") {
		t.Fatalf("Error = %q, want open-circuit message", result.Error)
	}
	if caller.calls != 1 {
		t.Fatalf("caller invoked %d times, open circuit must not contact the remote", caller.calls)
	}
}

func TestFallbackServesWhenPrimaryFails(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "primary", true, nil, &stubCaller{err: errors.New("boom")})
	fallback := &stubCaller{data: "from-fallback"}
	register(registry, "backup", true, []string{"search"}, fallback)
	gw := newTestGateway(registry, breaker.DefaultSettings())

	result, err := gw.CallToolWithFallback(context.Background(), "primary", "search", nil, []string{"backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Service != "backup" || result.Data != "from-fallback" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFallbackSkipsIneligibleServices(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "primary", true, nil, &stubCaller{err: errors.New("boom")})

	unhealthy := &stubCaller{data: "never"}
	register(registry, "sick", false, nil, unhealthy)

	wrongTool := &stubCaller{data: "never"}
	register(registry, "translate-only", true, []string{"translate"}, wrongTool)

	good := &stubCaller{data: "served"}
	register(registry, "good", true, []string{"search"}, good)

	gw := newTestGateway(registry, breaker.DefaultSettings())

	result, err := gw.CallToolWithFallback(
		context.Background(), "primary", "search", nil,
		[]string{"ghost", "sick", "translate-only", "good"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Service != "good" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if unhealthy.calls != 0 || wrongTool.calls != 0 {
		t.Fatal("ineligible fallbacks must not be contacted")
	}
}

func TestFallbackExhaustedNamesPrimary(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "primary", true, nil, &stubCaller{err: errors.New("primary down")})
	register(registry, "backup", true, nil, &stubCaller{err: errors.New("backup down")})
	gw := newTestGateway(registry, breaker.DefaultSettings())

	result, err := gw.CallToolWithFallback(context.Background(), "primary", "search", nil, []string{"backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure when every route fails")
	}
	if result.Service != "primary" || !strings.Contains(result.Error, "primary") {
		t.Fatalf("failure must be attributed to the primary, got %+v", result)
	}
	if !strings.Contains(result.Error, "primary down") {
		t.Fatalf("Error = %q, want primary cause included", result.Error)
	}
}

func TestFallbackUnknownPrimary(t *testing.T) {
	gw := newTestGateway(NewStaticRegistry(), breaker.DefaultSettings())

	_, err := gw.CallToolWithFallback(context.Background(), "ghost", "search", nil, nil)
	if !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestHasTool(t *testing.T) {
	anyTool := Service{ID: "a"}
	if !anyTool.HasTool("whatever") {
		t.Error("empty tool list must accept any tool")
	}

	scoped := Service{ID: "b", Tools: []string{"search", "translate"}}
	if !scoped.HasTool("translate") || scoped.HasTool("summarize") {
		t.Error("scoped service must only expose its listed tools")
	}
}

func TestSetHealthyControlsFallbackEligibility(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "primary", true, nil, &stubCaller{err: errors.New("boom")})
	backup := &stubCaller{data: "served"}
	register(registry, "backup", true, nil, backup)
	gw := newTestGateway(registry, breaker.DefaultSettings())

	if err := registry.SetHealthy("backup", false); err != nil {
		t.Fatalf("SetHealthy: %v", err)
	}
	result, err := gw.CallToolWithFallback(context.Background(), "primary", "search", nil, []string{"backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || backup.calls != 0 {
		t.Fatalf("unhealthy fallback must not be contacted: %+v", result)
	}

	if err := registry.SetHealthy("backup", true); err != nil {
		t.Fatalf("SetHealthy: %v", err)
	}
	result, err = gw.CallToolWithFallback(context.Background(), "primary", "search", nil, []string{"backup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Service != "backup" {
		t.Fatalf("restored fallback should serve: %+v", result)
	}
}

func TestSetHealthyUnknownService(t *testing.T) {
	registry := NewStaticRegistry()
	if err := registry.SetHealthy("ghost", false); !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}

func TestResolveReturnsSnapshot(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "svc", true, nil, &stubCaller{})

	snap, err := registry.Resolve("svc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	snap.Healthy = false

	again, err := registry.Resolve("svc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !again.Healthy {
		t.Fatal("mutating a resolved snapshot must not touch registry state")
	}
}

func TestListSortsServices(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "zeta", true, nil, &stubCaller{})
	register(registry, "alpha", false, nil, &stubCaller{})

	services := registry.List()
	if len(services) != 2 || services[0].ID != "alpha" || services[1].ID != "zeta" {
		t.Fatalf("unexpected listing: %+v", services)
	}
}

func TestConcurrentHealthFlipsDuringDispatch(t *testing.T) {
	registry := NewStaticRegistry()
	register(registry, "primary", true, nil, &stubCaller{err: errors.New("boom")})
	register(registry, "backup", true, nil, &stubCaller{data: "served"})
	gw := newTestGateway(registry, breaker.DefaultSettings())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					registry.SetHealthy("backup", j%2 == 0)
				} else {
					gw.CallToolWithFallback(context.Background(), "primary", "search", nil, []string{"backup"})
				}
			}
		}(i)
	}
	wg.Wait()
}
