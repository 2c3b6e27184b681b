package acquire

import (
	"context"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/flowrt"
)

// handleStoreStat records the StatFile response against its tracker. A
// failure here drops the tracker outright: without a stat entry the flow has
// no size to plan blocks against.
func (e *Engine) handleStoreStat(ctx context.Context, r *flowrt.Runner, b *flowrt.Bundle) error {
	idx := requestIndex(b)

	e.mu.Lock()
	t, ok := e.pendingHashes[idx]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	if !b.Success {
		e.mu.Lock()
		delete(e.pendingHashes, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, "StatFile", t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	stat, ok := b.First().(acquireproto.StatEntry)
	if !ok {
		logger.ErrorCtx(ctx, "acquire: StoreStat got unexpected response type", logger.TrackerIndex(idx))
		e.mu.Lock()
		delete(e.pendingHashes, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, "StatFile", t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	e.mu.Lock()
	t.Stat = &stat
	e.mu.Unlock()
	return nil
}

// handleReceiveFileHash implements the composite-hash intake described in
// SPEC_FULL.md §4.3: one-shot FingerprintFile fallback on a HashFile
// failure, modern/legacy response parsing, and threshold-triggered
// hash-phase flushing.
func (e *Engine) handleReceiveFileHash(ctx context.Context, r *flowrt.Runner, b *flowrt.Bundle) error {
	idx := requestIndex(b)

	e.mu.Lock()
	t, ok := e.pendingHashes[idx]
	e.mu.Unlock()
	if !ok {
		// The stat-then-hash contract: a hash response arrived for a tracker
		// already removed by a prior stat failure. Surface a failure rather
		// than dropping silently so the caller always gets a signal.
		e.reportFailure(ctx, acquireproto.Pathspec{}, "HashFile", requestCaller(b))
		return nil
	}

	if !b.Success {
		if b.Action == acquireproto.ActionHashFile && !t.fallbackAttempted {
			e.mu.Lock()
			t.fallbackAttempted = true
			e.mu.Unlock()
			reqData := flowrt.RequestContext{Index: idx, Caller: t.Caller}
			if err := r.CallClient(ctx, acquireproto.ActionFingerprintFile, acquireproto.FingerprintRequest{
				Pathspec:    t.Pathspec,
				MaxFilesize: e.cfg.FileSize,
			}, "ReceiveFileHash", reqData); err != nil {
				logger.ErrorCtx(ctx, "acquire: FingerprintFile fallback dispatch failed", logger.Err(err), logger.TrackerIndex(idx))
			}
			return nil
		}

		failedAction := "HashFile"
		if t.fallbackAttempted {
			failedAction = "FingerprintFile"
		}
		e.mu.Lock()
		delete(e.pendingHashes, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, failedAction, t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	resp, ok := b.First().(acquireproto.HashFileResponse)
	if !ok {
		e.mu.Lock()
		delete(e.pendingHashes, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, "HashFile", t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	composite, ok := resp.Composite()
	if !ok {
		// Malformed legacy hash response: SPEC_FULL.md §9 decides this
		// surfaces a failure rather than a silent drop.
		e.mu.Lock()
		delete(e.pendingHashes, idx)
		e.mu.Unlock()
		e.reportFailure(ctx, t.Pathspec, "HashFile", t.Caller)
		e.removeCompletedPathspec(ctx, idx)
		return nil
	}

	e.mu.Lock()
	t.Hash = &composite
	e.filesHashed++
	e.filesHashedSinceCheck++
	shouldFlush := e.filesHashedSinceCheck >= e.cfg.MinCallToFileStore
	e.mu.Unlock()

	e.cfg.Metrics.ObserveFileHashed()

	if shouldFlush {
		e.flushHashPhase(ctx)
	}
	return nil
}
