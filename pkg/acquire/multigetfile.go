package acquire

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/marmos91/acquire/pkg/flowrt"
	"github.com/marmos91/acquire/pkg/hashindex"
	"github.com/marmos91/acquire/pkg/metrics"
	"github.com/marmos91/acquire/pkg/vfsimage"
)

// MultiGetFileArgs is the caller-facing request shape (SPEC_FULL.md §6):
// an ordered list of pathspecs plus the flow-wide knobs frozen at Start.
type MultiGetFileArgs struct {
	Pathspecs           []acquireproto.Pathspec
	FileSize            int64
	MaximumPendingFiles int
	UseExternalStores   bool
	MinCallToFileStore  int

	// Metrics receives per-flow instrumentation. Nil disables it with zero
	// overhead.
	Metrics *metrics.EngineMetrics

	// Caller is attached verbatim to every tracker admitted by this call
	// and handed back unchanged through Callbacks.
	Caller any
}

// StartMultiGetFile is the MultiGetFile entry point: it builds a Runner and
// Engine for clientID, deduplicates Pathspecs by VFS URN (a duplicate
// pathspec would otherwise double-admit and double-report), and starts
// fetching every distinct one. The returned Engine is already running; use
// its Done channel to observe flow termination.
func StartMultiGetFile(ctx context.Context, clientID string, transport flowrt.Transport, hashIndex hashindex.Index, blobStore blobstore.Store, vfs vfsimage.Store, args MultiGetFileArgs, cb Callbacks) *Engine {
	runner := flowrt.NewRunner(clientID, transport)
	cfg := Config{
		MaximumPendingFiles: args.MaximumPendingFiles,
		FileSize:            args.FileSize,
		UseExternalStores:   args.UseExternalStores,
		MinCallToFileStore:  args.MinCallToFileStore,
		Metrics:             args.Metrics,
	}
	e := New(clientID, uuid.NewString(), runner, hashIndex, blobStore, vfs, cfg, cb)

	seen := make(map[string]bool, len(args.Pathspecs))
	for _, ps := range args.Pathspecs {
		urn := ps.VFSURN(clientID)
		if seen[urn] {
			continue
		}
		seen[urn] = true
		if _, err := e.StartFileFetch(ctx, ps, args.Caller); err != nil {
			logger.ErrorCtx(ctx, "acquire: StartFileFetch rejected at flow start", logger.Err(err))
		}
	}
	e.Start(ctx)

	return e
}
