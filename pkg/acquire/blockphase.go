package acquire

import (
	"context"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/flowrt"
)

// handleCheckHash is the block-hash intake state (SPEC_FULL.md §4.6). It
// drops silently for any index no longer in pendingFiles: that tracker was
// already failed, and duplicate logging would only add noise.
func (e *Engine) handleCheckHash(ctx context.Context, r *flowrt.Runner, b *flowrt.Bundle) error {
	idx := requestIndex(b)

	e.mu.Lock()
	t, ok := e.pendingFiles[idx]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	if !b.Success {
		e.mu.Lock()
		delete(e.pendingFiles, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, string(b.Action), t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	resp, ok := b.First().(acquireproto.BlockHashResponse)
	if !ok {
		logger.ErrorCtx(ctx, "acquire: CheckHash got unexpected response type", logger.TrackerIndex(idx))
		e.mu.Lock()
		delete(e.pendingFiles, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, string(acquireproto.ActionHashBuffer), t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	e.mu.Lock()
	t.HashList = append(t.HashList, resp)
	e.blobHashesPending++
	shouldFlush := e.blobHashesPending > e.cfg.MinCallToFileStore
	e.mu.Unlock()

	if shouldFlush {
		e.flushBlockPhase(ctx)
	}
	return nil
}

type blockBatchEntry struct {
	tracker *FileTracker
	items   []acquireproto.BlockHashResponse
}

// flushBlockPhase is the block-phase batcher (SPEC_FULL.md §4.7): one
// BlobsExist query across every queued block digest from every tracker in
// pendingFiles, then per-block dispatch to either the CallState fast path
// (already stored) or a TransferBuffer RPC. Within a tracker, items are
// visited in their existing hash_list order, preserving the WriteBuffer
// delivery ordering invariant.
func (e *Engine) flushBlockPhase(ctx context.Context) {
	e.mu.Lock()
	if len(e.pendingFiles) == 0 {
		e.blobHashesPending = 0
		e.mu.Unlock()
		return
	}

	var entries []blockBatchEntry
	digestSet := make(map[string]bool)
	for _, t := range e.pendingFiles {
		if len(t.HashList) == 0 {
			continue
		}
		items := t.HashList
		t.HashList = nil
		entries = append(entries, blockBatchEntry{tracker: t, items: items})
		for _, it := range items {
			digestSet[it.DigestHex()] = true
		}
	}
	e.blobHashesPending = 0
	e.mu.Unlock()

	if len(digestSet) == 0 {
		return
	}

	digests := make([]string, 0, len(digestSet))
	for d := range digestSet {
		digests = append(digests, d)
	}

	e.cfg.Metrics.ObserveBlockBatch(len(digests))

	existing, err := e.blobStore.BlobsExist(ctx, digests)
	if err != nil {
		logger.ErrorCtx(ctx, "acquire: block-phase BlobsExist failed", logger.Err(err), logger.BatchSize(len(digests)))
		return
	}

	for _, entry := range entries {
		t := entry.tracker
		for _, item := range entry.items {
			item.Pathspec = t.Pathspec
			reqData := flowrt.RequestContext{Index: t.Index, Caller: t.Caller}

			if existing[item.DigestHex()] {
				e.runner.CallState([]any{item}, "WriteBuffer", reqData)
				continue
			}
			if err := e.runner.CallClient(ctx, acquireproto.ActionTransferBuffer, item, "WriteBuffer", reqData); err != nil {
				logger.ErrorCtx(ctx, "acquire: TransferBuffer dispatch failed", logger.Err(err), logger.TrackerIndex(t.Index), logger.Digest(item.DigestHex()))
			}
		}
	}
}
