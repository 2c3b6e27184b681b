// Package vfsimage defines the virtual-filesystem object store collaborator:
// the per-client namespace of acquired files, each represented as a sparse
// blob image (an ordered list of block references). The engine only depends
// on the Store/Image interfaces here, never a concrete backend.
package vfsimage

import (
	"context"
	"time"

	"github.com/marmos91/acquire/pkg/acquireproto"
)

// Attributes mirrors the STAT / PATHSPEC / CONTENT_LAST attributes the
// engine sets on a finalized image.
type Attributes struct {
	Stat              acquireproto.StatEntry
	Pathspec          acquireproto.Pathspec
	ContentLastUpdate time.Time
}

// Image is a sparse, append-only blob image under construction. Blob
// descriptors must be appended in issue order; Finalize commits the image
// and makes it visible to Store.Size/Copy.
type Image interface {
	SetChunksize(n int64)
	AddBlob(digest [32]byte, length int64) error
	SetAttributes(attrs Attributes)
	Finalize(ctx context.Context) error
}

// Store is the VFS object store collaborator.
type Store interface {
	// Create opens a new sparse blob image at urn. Calling Create again for
	// an already-finalized urn replaces it.
	Create(ctx context.Context, urn string) (Image, error)

	// Copy duplicates the finalized image at srcURN into dstURN. When
	// updateTimestamps is true the destination's ContentLastUpdate is reset
	// to now.
	Copy(ctx context.Context, srcURN, dstURN string, updateTimestamps bool) error

	// Size returns the total byte length of the finalized image at urn.
	Size(ctx context.Context, urn string) (int64, error)

	// SetSize repairs a zero-length image's recorded size without touching
	// its blob list — used for the filestore zero-size defensive path in
	// SPEC_FULL.md §4.4.
	SetSize(ctx context.Context, urn string, size int64) error

	// SetAttributes updates the STAT/PATHSPEC attributes of an already
	// finalized image, used by the hash-index hit path to stamp a copy
	// target without touching its blob list.
	SetAttributes(ctx context.Context, urn string, attrs Attributes) error
}
