// Package acquire implements the file-acquisition engine: the
// admission-windowed, two-level-deduplicated, chunked transfer pipeline that
// drives a remote agent through stat, composite-hash, block-hash, and
// block-transfer round trips for a set of pathspecs.
//
// The engine consumes three collaborators (hashindex.Index, blobstore.Store,
// vfsimage.Store) and a flowrt.Runner; it never constructs a concrete
// backend itself.
package acquire

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/acquire/internal/logger"
	"github.com/marmos91/acquire/pkg/acquireproto"
	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/marmos91/acquire/pkg/flowrt"
	"github.com/marmos91/acquire/pkg/hashindex"
	"github.com/marmos91/acquire/pkg/metrics"
	"github.com/marmos91/acquire/pkg/vfsimage"
)

// ChunkSize is the fixed block span the engine hashes and transfers in.
// Fixed for the whole engine, matching SPEC_FULL.md §4.5.
const ChunkSize = 512 * 1024

// DefaultMinCallToFileStore is the default accumulated-unit threshold that
// triggers the hash-phase and block-phase batchers.
const DefaultMinCallToFileStore = 200

// DefaultMaximumPendingFiles is the default cap on pendingHashes and
// pendingFiles, applied independently to each.
const DefaultMaximumPendingFiles = 1000

// Config holds the flow-wide settings frozen at Start.
type Config struct {
	// MaximumPendingFiles bounds pendingHashes and pendingFiles
	// independently. Zero means DefaultMaximumPendingFiles.
	MaximumPendingFiles int

	// FileSize caps bytes downloaded per file; 0 means "use stat size".
	FileSize int64

	// UseExternalStores is forwarded verbatim to the hash index's
	// CheckHashes calls.
	UseExternalStores bool

	// MinCallToFileStore overrides DefaultMinCallToFileStore, mostly for
	// tests that want to observe batching at small scale.
	MinCallToFileStore int

	// Metrics receives per-flow instrumentation. Nil disables it with zero
	// overhead.
	Metrics *metrics.EngineMetrics
}

func (c Config) normalized() Config {
	if c.MaximumPendingFiles <= 0 {
		c.MaximumPendingFiles = DefaultMaximumPendingFiles
	}
	if c.MinCallToFileStore <= 0 {
		c.MinCallToFileStore = DefaultMinCallToFileStore
	}
	return c
}

// Callbacks are the caller-supplied hooks invoked once per file outcome.
type Callbacks struct {
	// ReceiveFetchedFile fires exactly once per successfully materialized
	// file, whether skipped via dedup or actually downloaded.
	ReceiveFetchedFile func(ctx context.Context, stat acquireproto.StatEntry, hash acquireproto.CompositeHash, caller any)

	// FileFetchFailed fires for each file that could not be materialized.
	// A file whose stat fails gets a second call, with action "HashFile" and
	// an empty pathspec, when its hash response arrives afterwards.
	FileFetchFailed func(ctx context.Context, pathspec acquireproto.Pathspec, failedAction string, caller any)

	// PublishAddFileToStore fires once per newly finalized image — a file
	// actually downloaded and assembled, never a dedup-hit copy — at low
	// priority in spirit: the caller decides how and when to forward it to a
	// hash-indexing receiver. May be nil.
	PublishAddFileToStore func(ctx context.Context, urn string)
}

// Stats is a snapshot of the engine's counters, safe to read at any time.
type Stats struct {
	FilesHashed   int
	FilesToFetch  int
	FilesFetched  int
	FilesSkipped  int
	FilesFailed   int
	PendingHashes int
	PendingFiles  int
}

type queuedEntry struct {
	index    int
	pathspec acquireproto.Pathspec
	caller   any
}

// Engine is one running MultiGetFile-equivalent flow instance, bound to a
// single client over a single flowrt.Runner.
type Engine struct {
	clientID  string
	flowID    string
	cfg       Config
	callbacks Callbacks
	runner    *flowrt.Runner

	hashIndex hashindex.Index
	blobStore blobstore.Store
	vfs       vfsimage.Store

	mu sync.Mutex

	nextIndex int
	queue     []queuedEntry

	pendingHashes map[int]*FileTracker
	pendingFiles  map[int]*FileTracker

	filesHashed           int
	filesToFetch          int
	filesFetched          int
	filesSkipped          int
	filesFailed           int
	filesHashedSinceCheck int
	blobHashesPending     int
}

// New constructs an Engine bound to clientID and wires its state handlers
// into runner. Call Start to launch the runner's dispatch loop once every
// initial pathspec has been queued via StartFileFetch. flowID is an opaque
// identifier returned by FlowID; StartMultiGetFile generates one with
// google/uuid.
func New(clientID, flowID string, runner *flowrt.Runner, hashIndex hashindex.Index, blobStore blobstore.Store, vfs vfsimage.Store, cfg Config, cb Callbacks) *Engine {
	e := &Engine{
		clientID:      clientID,
		flowID:        flowID,
		cfg:           cfg.normalized(),
		callbacks:     cb,
		runner:        runner,
		hashIndex:     hashIndex,
		blobStore:     blobStore,
		vfs:           vfs,
		pendingHashes: make(map[int]*FileTracker),
		pendingFiles:  make(map[int]*FileTracker),
	}
	e.registerStates()
	return e
}

func (e *Engine) registerStates() {
	e.runner.RegisterState("StoreStat", e.handleStoreStat)
	e.runner.RegisterState("ReceiveFileHash", e.handleReceiveFileHash)
	e.runner.RegisterState("CheckHash", e.handleCheckHash)
	e.runner.RegisterState("WriteBuffer", e.handleWriteBuffer)
	e.runner.RegisterEnd(e.handleEnd)
}

// Start launches the underlying runner's dispatch loop.
func (e *Engine) Start(ctx context.Context) {
	e.runner.Start(ctx)
}

// Done reports flow termination: zero outstanding work after a quiescent End.
func (e *Engine) Done() <-chan struct{} {
	return e.runner.Done()
}

// FlowID returns this engine's opaque flow identifier, as reported by the
// status API.
func (e *Engine) FlowID() string {
	return e.flowID
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		FilesHashed:   e.filesHashed,
		FilesToFetch:  e.filesToFetch,
		FilesFetched:  e.filesFetched,
		FilesSkipped:  e.filesSkipped,
		FilesFailed:   e.filesFailed,
		PendingHashes: len(e.pendingHashes),
		PendingFiles:  len(e.pendingFiles),
	}
}

// StartFileFetch admits one pathspec into the flow: it is appended to the
// FIFO and one admission attempt is made immediately. If the admission caps
// are saturated the pathspec simply waits; it will be admitted later by
// removeCompletedPathspec. Returns the tracker index assigned to pathspec, or
// ErrEngineClosed if the flow has already reached termination.
func (e *Engine) StartFileFetch(ctx context.Context, pathspec acquireproto.Pathspec, caller any) (int, error) {
	select {
	case <-e.runner.Done():
		return 0, ErrEngineClosed
	default:
	}

	e.mu.Lock()
	idx := e.nextIndex
	e.nextIndex++
	e.queue = append(e.queue, queuedEntry{index: idx, pathspec: pathspec, caller: caller})
	e.mu.Unlock()

	e.tryAdmitNext(ctx)
	return idx, nil
}

// tryAdmitNext dispenses exactly one queued pathspec if both admission caps
// allow it. Called once per StartFileFetch and once per completed/failed
// tracker removal, which is what keeps the pipeline flowing.
func (e *Engine) tryAdmitNext(ctx context.Context) {
	e.mu.Lock()
	if len(e.pendingFiles) >= e.cfg.MaximumPendingFiles || len(e.pendingHashes) >= e.cfg.MaximumPendingFiles {
		e.mu.Unlock()
		return
	}
	if len(e.queue) == 0 {
		e.mu.Unlock()
		return
	}
	next := e.queue[0]
	e.queue = e.queue[1:]
	tracker := &FileTracker{Index: next.index, Pathspec: next.pathspec, Caller: next.caller}
	e.pendingHashes[next.index] = tracker
	pendingHashes, pendingFiles := len(e.pendingHashes), len(e.pendingFiles)
	e.mu.Unlock()

	e.cfg.Metrics.ObserveFileAdmitted()
	e.cfg.Metrics.SetPending(pendingHashes, pendingFiles)

	reqData := flowrt.RequestContext{Index: next.index, Caller: next.caller}

	if err := e.runner.CallClient(ctx, acquireproto.ActionStatFile, next.pathspec, "StoreStat", reqData); err != nil {
		logger.ErrorCtx(ctx, "acquire: StatFile dispatch failed", logger.Err(err), logger.TrackerIndex(next.index))
	}
	if err := e.runner.CallClient(ctx, acquireproto.ActionHashFile, acquireproto.FingerprintRequest{
		Pathspec:    next.pathspec,
		MaxFilesize: e.cfg.FileSize,
	}, "ReceiveFileHash", reqData); err != nil {
		logger.ErrorCtx(ctx, "acquire: HashFile dispatch failed", logger.Err(err), logger.TrackerIndex(next.index))
	}
}

// removeCompletedPathspec drops the tracker for index from both maps
// (idempotent if already absent) and makes exactly one admission attempt,
// keeping the FIFO flowing regardless of success or failure.
func (e *Engine) removeCompletedPathspec(ctx context.Context, index int) {
	e.mu.Lock()
	delete(e.pendingHashes, index)
	delete(e.pendingFiles, index)
	pendingHashes, pendingFiles := len(e.pendingHashes), len(e.pendingFiles)
	e.mu.Unlock()

	e.cfg.Metrics.SetPending(pendingHashes, pendingFiles)
	e.tryAdmitNext(ctx)
}

func (e *Engine) reportFailure(ctx context.Context, pathspec acquireproto.Pathspec, failedAction string, caller any) {
	e.mu.Lock()
	e.filesFailed++
	e.mu.Unlock()

	e.cfg.Metrics.ObserveFileFailed(failReasonFor(failedAction))

	if e.callbacks.FileFetchFailed != nil {
		e.callbacks.FileFetchFailed(ctx, pathspec, failedAction, caller)
	}
}

// failReasonFor buckets the engine's free-form failedAction strings into the
// small label set metrics series use, so a new action string never creates
// an unbounded cardinality label.
func failReasonFor(failedAction string) metrics.FailReason {
	switch failedAction {
	case "HashFile", string(acquireproto.ActionHashBuffer):
		return metrics.FailReasonHashMismatch
	case "Finalize", "FileStoreCopy":
		return metrics.FailReasonPublishErr
	default:
		return metrics.FailReasonTransferErr
	}
}

func (e *Engine) reportSuccess(ctx context.Context, stat acquireproto.StatEntry, hash acquireproto.CompositeHash, caller any) {
	if e.callbacks.ReceiveFetchedFile != nil {
		e.callbacks.ReceiveFetchedFile(ctx, stat, hash, caller)
	}
}

func requestIndex(b *flowrt.Bundle) int {
	return b.RequestData.Index
}

func requestCaller(b *flowrt.Bundle) any {
	return b.RequestData.Caller
}

func nowAttrs(pathspec acquireproto.Pathspec, stat acquireproto.StatEntry) vfsimage.Attributes {
	return vfsimage.Attributes{Stat: stat, Pathspec: pathspec, ContentLastUpdate: time.Now()}
}

// statFor returns the tracker's recorded stat entry, or a bare entry built
// from its pathspec if StoreStat never landed before completion.
func statFor(t *FileTracker) acquireproto.StatEntry {
	if t.Stat != nil {
		return *t.Stat
	}
	return acquireproto.StatEntry{Pathspec: t.Pathspec}
}
