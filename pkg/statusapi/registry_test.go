package statusapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/acquire/pkg/acquire"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/flowrt"
	blobmemory "github.com/marmos91/acquire/pkg/blobstore/memory"
	hashmemory "github.com/marmos91/acquire/pkg/hashindex/memory"
	vfsmemory "github.com/marmos91/acquire/pkg/vfsimage/memory"
)

// inertTransport never replies, so the flow it drives stays open for the
// lifetime of a test without racing Registry's Done-triggered cleanup.
type inertTransport struct{}

func (inertTransport) Send(ctx context.Context, clientID string, call flowrt.Call) error {
	return nil
}

func TestRegistry_RegisterAndSnapshot(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	e := acquire.StartMultiGetFile(ctx, "client-1", inertTransport{},
		hashmemory.New(), blobmemory.New(), vfsmemory.New(),
		acquire.MultiGetFileArgs{
			Pathspecs: []acquireproto.Pathspec{{Path: "/etc/hosts"}},
		}, acquire.Callbacks{})

	reg.Register("client-1", e)

	assert.Equal(t, 1, reg.Count())
	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "client-1", snap[0].ClientID)
	assert.Equal(t, e.FlowID(), snap[0].FlowID)
}

func TestRegistry_Count_EmptyByDefault(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.Snapshot())
}
