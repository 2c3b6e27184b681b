package acquire

import (
	"context"

	"github.com/marmos91/acquire/pkg/flowrt"
)

// handleEnd is the terminal hook registered with the runner (SPEC_FULL.md
// §4.9). Under the threshold-only batching trigger, a trailing batch
// smaller than MinCallToFileStore never flushes on its own; End is what
// guarantees it still drains before the flow is allowed to go quiet. If the
// flush schedules new outbound calls, OutstandingRequests becomes nonzero
// again and the runner invokes End a second time once those drain.
func (e *Engine) handleEnd(ctx context.Context, r *flowrt.Runner, b *flowrt.Bundle) error {
	e.mu.Lock()
	hashesPending := len(e.pendingHashes) > 0
	filesPending := len(e.pendingFiles) > 0
	e.mu.Unlock()

	if hashesPending {
		e.flushHashPhase(ctx)
	}
	if filesPending {
		e.flushBlockPhase(ctx)
	}
	return nil
}
