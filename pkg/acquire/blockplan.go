package acquire

import (
	"context"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/flowrt"
)

// emitBlockPlan issues one HashBuffer request per CHUNK_SIZE span of
// t.SizeToDownload (SPEC_FULL.md §4.5). Per the §9 decision, the trailing
// zero-length request implied by size_to_download being an exact multiple
// of ChunkSize is elided rather than emitted: the loop stops the moment the
// computed offset reaches size_to_download. A zero-length file plans no
// blocks at all and completes immediately.
func (e *Engine) emitBlockPlan(ctx context.Context, t *FileTracker) {
	size := t.SizeToDownload
	expected := size/ChunkSize + 1

	var planned int
	for i := int64(0); i < expected; i++ {
		offset := i * ChunkSize
		if offset >= size {
			break
		}
		length := int64(ChunkSize)
		if offset+length > size {
			length = size - offset
		}

		planned++
		reqData := flowrt.RequestContext{Index: t.Index, Caller: t.Caller}
		if err := e.runner.CallClient(ctx, acquireproto.ActionHashBuffer, acquireproto.BufferRequest{
			Pathspec: t.Pathspec,
			Offset:   offset,
			Length:   length,
		}, "CheckHash", reqData); err != nil {
			logger.ErrorCtx(ctx, "acquire: HashBuffer dispatch failed", logger.Err(err), logger.TrackerIndex(t.Index), logger.Offset(offset))
		}
	}

	e.mu.Lock()
	t.blocksRemaining = planned
	e.mu.Unlock()

	if planned == 0 {
		e.finalizeTracker(ctx, t)
	}
}
