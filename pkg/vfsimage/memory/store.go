// Package memory provides an in-memory vfsimage.Store implementation for
// tests and single-process deployments, generalizing the teacher's
// content-addressed Object/ObjectChunk/ObjectBlock hierarchy (keyed by share
// and path) to a sparse, ordered blob list keyed by client VFS URN.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/acquire/pkg/vfsimage"
)

type blockRef struct {
	digest [32]byte
	length int64
}

type entry struct {
	chunksize  int64
	blocks     []blockRef
	size       int64
	attrs      vfsimage.Attributes
	finalized  bool
}

// Store is an in-memory implementation of vfsimage.Store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates a new in-memory VFS object store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Create(ctx context.Context, urn string) (vfsimage.Image, error) {
	return &image{store: s, urn: urn, entry: &entry{}}, nil
}

func (s *Store) Copy(ctx context.Context, srcURN, dstURN string, updateTimestamps bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.entries[srcURN]
	if !ok {
		return fmt.Errorf("vfsimage/memory: copy source %q not found", srcURN)
	}
	cloned := *src
	cloned.blocks = append([]blockRef(nil), src.blocks...)
	if updateTimestamps {
		cloned.attrs.ContentLastUpdate = time.Now()
	}
	s.entries[dstURN] = &cloned
	return nil
}

func (s *Store) Size(ctx context.Context, urn string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[urn]
	if !ok {
		return 0, fmt.Errorf("vfsimage/memory: %q not found", urn)
	}
	return e.size, nil
}

func (s *Store) SetSize(ctx context.Context, urn string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[urn]
	if !ok {
		return fmt.Errorf("vfsimage/memory: %q not found", urn)
	}
	e.size = size
	return nil
}

func (s *Store) SetAttributes(ctx context.Context, urn string, attrs vfsimage.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[urn]
	if !ok {
		return fmt.Errorf("vfsimage/memory: %q not found", urn)
	}
	e.attrs = attrs
	return nil
}

type image struct {
	store *Store
	urn   string
	entry *entry
}

func (img *image) SetChunksize(n int64) {
	img.entry.chunksize = n
}

func (img *image) AddBlob(digest [32]byte, length int64) error {
	img.entry.blocks = append(img.entry.blocks, blockRef{digest: digest, length: length})
	img.entry.size += length
	return nil
}

func (img *image) SetAttributes(attrs vfsimage.Attributes) {
	img.entry.attrs = attrs
}

func (img *image) Finalize(ctx context.Context) error {
	img.entry.finalized = true
	img.store.mu.Lock()
	defer img.store.mu.Unlock()
	img.store.entries[img.urn] = img.entry
	return nil
}
