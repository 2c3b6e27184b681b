// Package flowrt is the flow runtime: it drives a single cooperative,
// event-dispatched task ("flow") to completion. One Runner owns exactly one
// dispatch goroutine, so at most one state handler for a given flow executes
// at any instant — the same single-threaded-per-flow guarantee the teacher's
// transfer queue gives a shared worker pool, specialized here to a pool of
// one worker per flow instance so that response ordering within a flow never
// has to be reconstructed after the fact.
package flowrt

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
)

// StateFunc handles one response bundle delivered to a named state.
type StateFunc func(ctx context.Context, r *Runner, b *Bundle) error

// Call describes one outbound RPC the runtime hands to the transport.
type Call struct {
	Action      acquireproto.Action
	Payload     any
	RequestData RequestContext
	NextState   string
}

// Transport is the RPC substrate that actually delivers calls to the remote
// agent. It is deliberately out of scope for this module: the runtime only
// consumes this interface, and the caller supplies a concrete implementation
// (a live agent connection, a test fake, …). Once a response for a Call
// arrives, the transport must invoke Runner.DeliverRemote with the matching
// NextState and a Bundle describing the result.
type Transport interface {
	Send(ctx context.Context, clientID string, call Call) error
}

// RunnerAware is an optional interface a Transport may implement to receive
// the Runner it was bound to at construction time, so it can call
// DeliverRemote back into the same flow without the caller having to wire
// the two together by hand.
type RunnerAware interface {
	SetRunner(r *Runner)
}

type dispatch struct {
	state  string
	bundle *Bundle
}

// Runner drives one flow instance: a set of named states, a transport to a
// single client, and a dispatch loop that processes bundles one at a time.
type Runner struct {
	clientID  string
	transport Transport

	mu          sync.Mutex
	states      map[string]StateFunc
	outstanding int
	closed      bool

	queueMu sync.Mutex
	queue   []dispatch
	wake    chan struct{}

	doneCh  chan struct{}
	endFunc StateFunc
}

// NewRunner constructs a Runner bound to one client over the given
// transport. Register states with RegisterState and the terminal hook with
// RegisterEnd before calling Start.
func NewRunner(clientID string, transport Transport) *Runner {
	r := &Runner{
		clientID:  clientID,
		transport: transport,
		states:    make(map[string]StateFunc),
		wake:      make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
	}
	if ra, ok := transport.(RunnerAware); ok {
		ra.SetRunner(r)
	}
	return r
}

// RegisterState binds a handler to a named state.
func (r *Runner) RegisterState(name string, fn StateFunc) {
	r.states[name] = fn
}

// RegisterEnd binds the handler invoked whenever the runner observes zero
// outstanding work. The handler may schedule more work (via CallClient or
// CallState), in which case the runner keeps running and will call End again
// once that work drains.
func (r *Runner) RegisterEnd(fn StateFunc) {
	r.endFunc = fn
}

// Start launches the dispatch goroutine. It returns immediately; use Done to
// wait for flow termination.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
}

// Done is closed once the flow has reached quiescence: zero outstanding
// calls and End declined to schedule more work.
func (r *Runner) Done() <-chan struct{} {
	return r.doneCh
}

// OutstandingRequests reports the number of calls issued (real or
// synthesized) whose response bundle has not yet finished dispatching.
func (r *Runner) OutstandingRequests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outstanding
}

// CallClient issues an RPC to the remote agent. The matching response will
// later be delivered via DeliverRemote to nextState.
func (r *Runner) CallClient(ctx context.Context, action acquireproto.Action, payload any, nextState string, reqData RequestContext) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("flowrt: runner closed")
	}
	r.outstanding++
	r.mu.Unlock()

	if err := r.transport.Send(ctx, r.clientID, Call{
		Action:      action,
		Payload:     payload,
		RequestData: reqData,
		NextState:   nextState,
	}); err != nil {
		r.mu.Lock()
		r.outstanding--
		r.mu.Unlock()
		return fmt.Errorf("flowrt: send %s: %w", action, err)
	}
	return nil
}

// CallState synthesizes a local response bundle and schedules its delivery
// to nextState on a later turn of the dispatch loop. This is the zero-copy
// fast path used when a block is already present in the blob store.
func (r *Runner) CallState(responses []any, nextState string, reqData RequestContext) {
	r.mu.Lock()
	r.outstanding++
	r.mu.Unlock()
	r.enqueue(nextState, &Bundle{Success: true, RequestData: reqData, Responses: responses})
}

// CallStateInline invokes another registered state immediately, within the
// current dispatch turn, rather than scheduling a later one.
func (r *Runner) CallStateInline(ctx context.Context, nextState string, b *Bundle) error {
	fn, ok := r.states[nextState]
	if !ok {
		return fmt.Errorf("flowrt: no handler registered for state %q", nextState)
	}
	return fn(ctx, r, b)
}

// DeliverLocal is the explicit local-delivery entry point: callers that want
// the CallState fast path without routing through the transport layer at all
// use this directly. It behaves identically to CallState.
func (r *Runner) DeliverLocal(nextState string, b *Bundle) {
	r.mu.Lock()
	r.outstanding++
	r.mu.Unlock()
	r.enqueue(nextState, b)
}

// DeliverRemote is how the transport reports a completed RPC back into the
// flow. state must match the NextState given in the originating Call.
func (r *Runner) DeliverRemote(state string, b *Bundle) {
	r.enqueue(state, b)
}

// enqueue appends to the single per-flow queue and wakes the dispatch loop.
// The queue is unbounded and strictly FIFO, so per-flow delivery order is
// preserved no matter how many bundles arrive in one synchronous burst (a
// batcher flush routinely enqueues hundreds at once). wake is a capacity-1
// signal: a pending, undrained wake already guarantees the loop will notice
// the new tail the next time it drains, so a non-blocking send is enough.
func (r *Runner) enqueue(state string, b *Bundle) {
	r.queueMu.Lock()
	r.queue = append(r.queue, dispatch{state: state, bundle: b})
	r.queueMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// drain detaches the entire current queue for processing, leaving the queue
// empty for new arrivals.
func (r *Runner) drain() []dispatch {
	r.queueMu.Lock()
	defer r.queueMu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	d := r.queue
	r.queue = nil
	return d
}

func (r *Runner) loop(ctx context.Context) {
	for {
		for _, d := range r.drain() {
			r.dispatchOne(ctx, d)
		}

		if r.maybeEnd(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}
	}
}

func (r *Runner) dispatchOne(ctx context.Context, d dispatch) {
	fn, ok := r.states[d.state]
	if !ok {
		logger.ErrorCtx(ctx, "flowrt: dropping bundle for unregistered state", "state", d.state)
		r.decrementOutstanding()
		return
	}
	if err := fn(ctx, r, d.bundle); err != nil {
		logger.ErrorCtx(ctx, "flowrt: state handler error", "state", d.state, "error", err)
	}
	r.decrementOutstanding()
}

func (r *Runner) decrementOutstanding() {
	r.mu.Lock()
	r.outstanding--
	r.mu.Unlock()
}

// maybeEnd calls the registered End hook once outstanding work reaches zero.
// If End schedules more work, the loop keeps running; otherwise the flow is
// closed and Done fires.
func (r *Runner) maybeEnd(ctx context.Context) bool {
	if r.OutstandingRequests() != 0 || r.endFunc == nil {
		return false
	}
	if err := r.endFunc(ctx, r, &Bundle{Success: true}); err != nil {
		logger.ErrorCtx(ctx, "flowrt: End handler error", "error", err)
	}
	if r.OutstandingRequests() != 0 {
		return false
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	close(r.doneCh)
	return true
}
