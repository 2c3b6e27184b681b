// Package statusapi exposes the daemon's in-flight flows and their
// admission/throughput counters over a read-only HTTP surface, for
// operators and the acquirectl CLI to poll.
package statusapi

import (
	"sync"

	"github.com/marmos91/acquire/pkg/acquire"
)

// engineStats is the subset of *acquire.Engine the registry needs: just
// enough to report status without coupling to the engine's full API.
type engineStats interface {
	FlowID() string
	Stats() acquire.Stats
	Done() <-chan struct{}
}

// Registry tracks every flow currently running in this daemon, keyed by
// client ID. A daemon typically registers one flow per connected agent.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]engineStats
}

// NewRegistry creates an empty flow registry.
func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]engineStats)}
}

// Register adds a running flow under clientID, removing it automatically
// once the flow's Done channel closes.
func (r *Registry) Register(clientID string, e *acquire.Engine) {
	r.mu.Lock()
	r.flows[clientID] = e
	r.mu.Unlock()

	go func() {
		<-e.Done()
		r.mu.Lock()
		delete(r.flows, clientID)
		r.mu.Unlock()
	}()
}

// FlowStatus is one flow's reportable state.
type FlowStatus struct {
	ClientID string       `json:"client_id"`
	FlowID   string       `json:"flow_id"`
	Stats    acquire.Stats `json:"stats"`
}

// Snapshot returns the current status of every registered flow.
func (r *Registry) Snapshot() []FlowStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FlowStatus, 0, len(r.flows))
	for clientID, e := range r.flows {
		out = append(out, FlowStatus{
			ClientID: clientID,
			FlowID:   e.FlowID(),
			Stats:    e.Stats(),
		})
	}
	return out
}

// Count returns the number of currently registered flows.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}
