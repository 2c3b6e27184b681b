// Package metrics exposes Prometheus instrumentation for the acquisition
// engine and its collaborator backends. Every exported constructor returns
// nil when metrics are disabled (InitRegistry never called), and every
// Observe/Record method is nil-receiver safe, so callers can pass a nil
// metrics value unconditionally with zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection, creating a fresh Prometheus
// registry. Must be called before any New*Metrics constructor for those
// constructors to return a non-nil instance.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()

	return registry != nil
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	return registry
}

// Reset discards the active registry. Tests use this to isolate
// InitRegistry calls across cases; production code never calls it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	registry = nil
}
