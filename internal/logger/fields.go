package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the acquisition engine,
// the flow runtime, and the storage backends. Use these keys consistently so
// log aggregation and querying stay uniform across packages.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Flow & Agent Correlation
	// ========================================================================
	KeyFlowID       = "flow_id"       // MultiGetFile flow instance identifier
	KeyClientID     = "client_id"     // Remote agent / client identifier
	KeyState        = "state"        // Named flow state currently dispatching
	KeyAction       = "action"       // RPC action name (StatFile, HashFile, ...)
	KeyTrackerIndex = "tracker_index" // FileTracker correlation index

	// ========================================================================
	// File / Block Identity
	// ========================================================================
	KeyPathspec = "pathspec" // Opaque agent-side file locator
	KeyVFSURN   = "vfs_urn"  // Per-client virtual-filesystem URN
	KeyDigest   = "digest"   // Hex-encoded content digest (file or block)
	KeyOffset   = "offset"   // Block offset within the file
	KeyLength   = "length"   // Block or file length in bytes

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeySource     = "source"      // Data source: blobstore, hashindex, vfsimage

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName = "store_name" // Named store identifier from registry
	KeyStoreType = "store_type" // Store type: memory, filesystem, s3, badger
	KeyBucket    = "bucket"     // Cloud bucket name (S3)
	KeyKey       = "key"        // Object key in cloud storage
	KeyRegion    = "region"     // Cloud region

	// ========================================================================
	// Admission & Batching
	// ========================================================================
	KeyPendingHashes = "pending_hashes" // Size of the hashing-phase admission set
	KeyPendingFiles  = "pending_files"  // Size of the fetching-phase admission set
	KeyBatchSize     = "batch_size"     // Number of units flushed in one batch
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }
func SpanID(id string) slog.Attr  { return slog.String(KeySpanID, id) }

// ----------------------------------------------------------------------------
// Flow & Agent Correlation
// ----------------------------------------------------------------------------

func FlowID(id string) slog.Attr         { return slog.String(KeyFlowID, id) }
func ClientID(id string) slog.Attr       { return slog.String(KeyClientID, id) }
func State(name string) slog.Attr        { return slog.String(KeyState, name) }
func Action(name string) slog.Attr       { return slog.String(KeyAction, name) }
func TrackerIndex(index int) slog.Attr   { return slog.Int(KeyTrackerIndex, index) }

// ----------------------------------------------------------------------------
// File / Block Identity
// ----------------------------------------------------------------------------

func Pathspec(p string) slog.Attr { return slog.String(KeyPathspec, p) }
func VFSURN(urn string) slog.Attr { return slog.String(KeyVFSURN, urn) }
func Digest(hex string) slog.Attr { return slog.String(KeyDigest, hex) }
func Offset(off int64) slog.Attr  { return slog.Int64(KeyOffset, off) }
func Length(n int64) slog.Attr    { return slog.Int64(KeyLength, n) }

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func Source(src string) slog.Attr { return slog.String(KeySource, src) }

// ----------------------------------------------------------------------------
// Storage Backend
// ----------------------------------------------------------------------------

func StoreName(name string) slog.Attr { return slog.String(KeyStoreName, name) }
func StoreType(t string) slog.Attr    { return slog.String(KeyStoreType, t) }
func Bucket(name string) slog.Attr    { return slog.String(KeyBucket, name) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Region(r string) slog.Attr       { return slog.String(KeyRegion, r) }

// ----------------------------------------------------------------------------
// Admission & Batching
// ----------------------------------------------------------------------------

func PendingHashes(n int) slog.Attr { return slog.Int(KeyPendingHashes, n) }
func PendingFiles(n int) slog.Attr  { return slog.Int(KeyPendingFiles, n) }
func BatchSize(n int) slog.Attr     { return slog.Int(KeyBatchSize, n) }
