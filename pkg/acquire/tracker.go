package acquire

import "github.com/marmos91/acquire/pkg/acquireproto"

// FileTracker is the per-file record the engine threads through the
// stat/hash/transfer pipeline. It exists in exactly one of the engine's
// pendingHashes or pendingFiles maps at a time; its Index is its immutable
// correlation identity for every outbound RPC concerning this file.
type FileTracker struct {
	Index    int
	Pathspec acquireproto.Pathspec
	Caller   any // opaque context supplied by the original StartFileFetch caller

	Stat *acquireproto.StatEntry
	Hash *acquireproto.CompositeHash

	// SizeToDownload is frozen the moment the tracker moves into pendingFiles:
	// BytesRead if positive, else Stat.Size.
	SizeToDownload int64

	// HashList accumulates BlockHashResponses since the last block-phase
	// flush; the block-phase batcher clears it after each flush. Order in
	// this slice is issue order and must never be permuted.
	HashList []acquireproto.BlockHashResponse

	// Blobs accumulates confirmed block descriptors in issue order as
	// WriteBuffer deliveries arrive.
	Blobs []acquireproto.BlobDescriptor

	// blocksRemaining counts planned blocks not yet confirmed by WriteBuffer.
	// Completion fires when it reaches zero, which is how this
	// implementation elides the trailing zero-length HashBuffer request
	// (see SPEC_FULL.md §9).
	blocksRemaining int

	// fallbackAttempted records whether HashFile already failed once and
	// FingerprintFile was retried, so a second failure is reported under the
	// fallback's own name rather than looping.
	fallbackAttempted bool
}
