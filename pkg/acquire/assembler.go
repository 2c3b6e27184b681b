package acquire

import (
	"context"
	"encoding/hex"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/flowrt"
)

// handleWriteBuffer is the assembler state (SPEC_FULL.md §4.8). It records
// one confirmed block and, once every planned block for the tracker has
// landed, finalizes the image.
func (e *Engine) handleWriteBuffer(ctx context.Context, r *flowrt.Runner, b *flowrt.Bundle) error {
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
		e.reportFailure(ctx, t.Pathspec, string(acquireproto.ActionTransferBuffer), t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	resp, ok := b.First().(acquireproto.BlockHashResponse)
	if !ok {
		logger.ErrorCtx(ctx, "acquire: WriteBuffer got unexpected response type", logger.TrackerIndex(idx))
		e.mu.Lock()
		delete(e.pendingFiles, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, string(acquireproto.ActionTransferBuffer), t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	if len(resp.Data) > 0 {
		if err := e.blobStore.Put(ctx, resp.DigestHex(), resp.Data); err != nil {
			logger.WarnCtx(ctx, "acquire: blob store Put failed", logger.Err(err), logger.Digest(resp.DigestHex()))
		}
	}

	e.mu.Lock()
	t.Blobs = append(t.Blobs, acquireproto.BlobDescriptor{Digest: resp.Digest, Length: resp.Length})
	t.blocksRemaining--
	remaining := t.blocksRemaining
	e.mu.Unlock()

	if remaining <= 0 {
		e.finalizeTracker(ctx, t)
	}
	return nil
}

// finalizeTracker creates the sparse blob image, appends every recorded
// block descriptor in issue order, finalizes it, and reports completion.
// A collaborator failure here is, per SPEC_FULL.md §7, a protocol-level
// invariant violation; this implementation reports it as a per-file
// failure rather than aborting the whole flow, since the flow runtime has
// no narrower unit of cancellation than the flow itself.
func (e *Engine) finalizeTracker(ctx context.Context, t *FileTracker) {
	dstURN := t.Pathspec.VFSURN(e.clientID)

	img, err := e.vfs.Create(ctx, dstURN)
	if err != nil {
		logger.ErrorCtx(ctx, "acquire: vfs Create failed", logger.Err(err), logger.VFSURN(dstURN))
		e.failFinalize(ctx, t)
		return
	}
	img.SetChunksize(ChunkSize)

	e.mu.Lock()
	blobs := append([]acquireproto.BlobDescriptor(nil), t.Blobs...)
	e.mu.Unlock()

	for _, bd := range blobs {
		if err := img.AddBlob(bd.Digest, bd.Length); err != nil {
			logger.ErrorCtx(ctx, "acquire: AddBlob failed", logger.Err(err), logger.VFSURN(dstURN), logger.Digest(hex.EncodeToString(bd.Digest[:])))
			e.failFinalize(ctx, t)
			return
		}
	}

	stat := statFor(t)
	img.SetAttributes(nowAttrs(t.Pathspec, stat))

	if err := img.Finalize(ctx); err != nil {
		logger.ErrorCtx(ctx, "acquire: image Finalize failed", logger.Err(err), logger.VFSURN(dstURN))
		e.failFinalize(ctx, t)
		return
	}

	e.mu.Lock()
	delete(e.pendingFiles, t.Index)
	t.Blobs = nil
	e.filesFetched++
	fetched := e.filesFetched
	e.mu.Unlock()

	e.cfg.Metrics.ObserveFileFetched(t.SizeToDownload)

	if fetched%100 == 0 {
		logger.InfoCtx(ctx, "acquire: fetch progress", logger.PendingFiles(len(e.pendingFiles)), logger.PendingHashes(len(e.pendingHashes)))
	}

	if e.callbacks.PublishAddFileToStore != nil {
		e.callbacks.PublishAddFileToStore(ctx, dstURN)
	}
	e.reportSuccess(ctx, stat, *t.Hash, t.Caller)
	e.removeCompletedPathspec(ctx, t.Index)
}

func (e *Engine) failFinalize(ctx context.Context, t *FileTracker) {
	e.mu.Lock()
	delete(e.pendingFiles, t.Index)
	e.mu.Unlock()
	e.reportFailure(ctx, t.Pathspec, "Finalize", t.Caller)
	e.removeCompletedPathspec(ctx, t.Index)
}
