package flowrt

import "github.com/marmos91/acquire/pkg/acquireproto"

// RequestContext is the opaque correlation payload threaded through every
// outstanding call. Index identifies the engine's internal tracker; Caller
// carries whatever the original caller of StartFileFetch supplied and is
// never inspected by the runtime, only passed through verbatim.
type RequestContext struct {
	Index  int
	Caller any
}

// Bundle is the response delivered to a named state, either from a real
// agent round-trip (CallClient) or synthesized locally (CallState).
type Bundle struct {
	Success     bool
	Err         error
	Action      acquireproto.Action
	RequestData RequestContext
	Responses   []any
}

// First returns the first response in the bundle, or nil if empty. Most
// handlers only ever look at the first response; HashBuffer/TransferBuffer
// bundles written via CallState always carry exactly one. Callers type-assert
// the result themselves (v, ok := b.First().(T)), so a missing response just
// fails that assertion rather than needing a second bool here.
func (b *Bundle) First() any {
	if len(b.Responses) == 0 {
		return nil
	}
	return b.Responses[0]
}
