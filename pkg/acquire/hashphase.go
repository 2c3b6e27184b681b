package acquire

import (
	"context"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/hashindex"
	"github.com/marmos91/acquire/pkg/metrics"
)

// flushHashPhase implements the hash-phase batcher (SPEC_FULL.md §4.4): it
// queries the file-hash index once for every distinct sha256 digest
// currently held by pendingHashes, dispatches hits through the dedup-copy
// path, and promotes misses into pendingFiles behind the block-plan
// generator.
func (e *Engine) flushHashPhase(ctx context.Context) {
	e.mu.Lock()
	if len(e.pendingHashes) == 0 {
		e.filesHashedSinceCheck = 0
		e.mu.Unlock()
		return
	}

	hashToTrackers := make(map[string][]*FileTracker)
	seen := make(map[string]bool)
	var hexes []string
	for _, t := range e.pendingHashes {
		if t.Hash == nil {
			continue
		}
		hex := t.Hash.SHA256Hex()
		if !seen[hex] {
			seen[hex] = true
			hexes = append(hexes, hex)
		}
		hashToTrackers[hex] = append(hashToTrackers[hex], t)
	}
	e.filesHashedSinceCheck = 0
	e.mu.Unlock()

	if len(hexes) == 0 {
		return
	}

	e.cfg.Metrics.ObserveHashBatch(len(hexes))

	hits, err := e.hashIndex.CheckHashes(ctx, hexes, e.cfg.UseExternalStores)
	if err != nil {
		logger.ErrorCtx(ctx, "acquire: hash-phase CheckHashes failed", logger.Err(err), logger.BatchSize(len(hexes)))
		return
	}

	hitByHash := make(map[string]hashindex.Hit, len(hits))
	for _, h := range hits {
		hitByHash[h.SHA256Hex] = h
	}

	for hex, trackers := range hashToTrackers {
		hit, isHit := hitByHash[hex]
		for _, t := range trackers {
			if isHit {
				e.completeViaDedup(ctx, t, hit)
				continue
			}
			e.promoteToTransfer(ctx, t)
		}
	}
}

// completeViaDedup materializes t by copying an already-stored object,
// rather than downloading its blocks. Grounded on SPEC_FULL.md §4.4's
// zero-size defensive repair.
func (e *Engine) completeViaDedup(ctx context.Context, t *FileTracker, hit hashindex.Hit) {
	e.mu.Lock()
	delete(e.pendingHashes, t.Index)
	e.filesSkipped++
	e.mu.Unlock()

	e.cfg.Metrics.ObserveFileSkipped(metrics.SkipReasonDeduped)

	dstURN := t.Pathspec.VFSURN(e.clientID)
	if err := e.vfs.Copy(ctx, hit.URN, dstURN, true); err != nil {
		logger.ErrorCtx(ctx, "acquire: filestore copy failed", logger.Err(err), logger.VFSURN(dstURN), logger.TrackerIndex(t.Index))
		e.reportFailure(ctx, t.Pathspec, "FileStoreCopy", t.Caller)
		e.removeCompletedPathspec(ctx, t.Index)
		return
	}

	if size, err := e.vfs.Size(ctx, dstURN); err == nil && size == 0 {
		fallback := t.Hash.BytesRead
		if fallback <= 0 && t.Stat != nil {
			fallback = t.Stat.Size
		}
		if fallback > 0 {
			if err := e.vfs.SetSize(ctx, dstURN, fallback); err != nil {
				logger.WarnCtx(ctx, "acquire: zero-size filestore repair failed", logger.Err(err), logger.VFSURN(dstURN))
			}
		}
	}

	stat := statFor(t)
	if err := e.vfs.SetAttributes(ctx, dstURN, nowAttrs(t.Pathspec, stat)); err != nil {
		logger.WarnCtx(ctx, "acquire: SetAttributes after filestore copy failed", logger.Err(err), logger.VFSURN(dstURN))
	}
	if err := e.hashIndex.AddURNToIndex(ctx, hit.SHA256Hex, dstURN); err != nil {
		logger.WarnCtx(ctx, "acquire: AddURNToIndex failed", logger.Err(err), logger.Digest(hit.SHA256Hex))
	}

	e.reportSuccess(ctx, stat, *t.Hash, t.Caller)
	e.removeCompletedPathspec(ctx, t.Index)
}

// promoteToTransfer moves t from pendingHashes to pendingFiles and emits its
// block plan. size_to_download is frozen here per the tracker invariant.
func (e *Engine) promoteToTransfer(ctx context.Context, t *FileTracker) {
	size := t.Hash.BytesRead
	if size <= 0 {
		if t.Stat != nil {
			size = t.Stat.Size
		} else {
			size = 0
		}
	}

	e.mu.Lock()
	delete(e.pendingHashes, t.Index)
	t.SizeToDownload = size
	e.pendingFiles[t.Index] = t
	e.filesToFetch++
	e.mu.Unlock()

	e.emitBlockPlan(ctx, t)
}
