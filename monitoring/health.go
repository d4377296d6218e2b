package monitoring

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"
)

type HealthStatus struct {
	Status          string            `json:"status"`
	Uptime          string            `json:"uptime"`
	StartTime       time.Time         `json:"start_time"`
	MemoryUsage     uint64            `json:"memory_usage"`
	GoroutineCount  int               `json:"goroutine_count"`
	ComponentStatus map[string]string `json:"component_status"`
}

// Check reports nil when the component is healthy.
type Check func(ctx context.Context) error

// Registry holds named component checks.
type Registry struct {
	mu        sync.RWMutex
	startTime time.Time
	checks    map[string]Check
}

func NewRegistry() *Registry {
	return &Registry{
		startTime: time.Now(),
		checks:    make(map[string]Check),
	}
}

func (r *Registry) Register(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Status runs every check. A failing check marks the service degraded,
// not down: the cache and the upstream are both optional for liveness.
func (r *Registry) Status(ctx context.Context) HealthStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := HealthStatus{
		Status:          "ok",
		Uptime:          time.Since(r.startTime).Round(time.Second).String(),
		StartTime:       r.startTime,
		MemoryUsage:     m.Alloc,
		GoroutineCount:  runtime.NumGoroutine(),
		ComponentStatus: make(map[string]string),
	}

	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		r.mu.RLock()
		check := r.checks[name]
		r.mu.RUnlock()

		if err := check(ctx); err != nil {
			status.ComponentStatus[name] = "unhealthy: " + err.Error()
			status.Status = "degraded"
			continue
		}
		status.ComponentStatus[name] = "healthy"
	}

	return status
}
