package gateway

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/paymaster/internal/domain"
)

// ToolCaller performs a tool invocation against one remote service.
type ToolCaller interface {
	CallTool(ctx context.Context, tool string, args map[string]any) (any, error)
}

// Service is a registered remote service and the tools it exposes. An
// empty Tools list means the service accepts any tool name.
type Service struct {
	ID      string
	Healthy bool
	Tools   []string
	Caller  ToolCaller
}

// HasTool reports whether the service exposes the named tool.
func (s Service) HasTool(tool string) bool {
	if len(s.Tools) == 0 {
		return true
	}
	for _, t := range s.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// Registry resolves service ids to registered services.
type Registry interface {
	Resolve(id string) (Service, error)
}

// StaticRegistry is a fixed, mutex-guarded service table populated at
// startup. Descriptors are handed out by value only, so callers always
// see a consistent snapshot and never alias registry internals.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[string]*Service
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{services: make(map[string]*Service)}
}

// Register adds or replaces a service.
func (r *StaticRegistry) Register(svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := svc
	r.services[svc.ID] = &stored
}

// Resolve returns a snapshot of the service with the given id.
func (r *StaticRegistry) Resolve(id string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return Service{}, domain.ErrServiceNotFound
	}
	return *svc, nil
}

// List returns snapshots of all registered services, sorted by id.
func (r *StaticRegistry) List() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]Service, 0, len(r.services))
	for _, svc := range r.services {
		services = append(services, *svc)
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
	return services
}

// SetHealthy flips the health flag of a service.
func (r *StaticRegistry) SetHealthy(id string, healthy bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[id]
	if !ok {
		return domain.ErrServiceNotFound
	}
	svc.Healthy = healthy
	return nil
}
