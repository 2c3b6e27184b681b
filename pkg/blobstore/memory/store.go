// Package memory provides an in-memory blobstore.Store implementation for
// tests and single-process deployments. It mirrors the mutex-guarded,
// defensive-copy style of the teacher's block-store memory backend.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/acquire/pkg/blobstore"
)

// Store is an in-memory implementation of blobstore.Store.
type Store struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

// New creates a new in-memory blob store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) BlobsExist(ctx context.Context, digests []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]bool, len(digests))
	for _, d := range digests {
		_, ok := s.blobs[d]
		result[d] = ok
	}
	return result, nil
}

func (s *Store) Put(ctx context.Context, digestHex string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return blobstore.ErrNotFound
	}
	if _, exists := s.blobs[digestHex]; exists {
		return nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[digestHex] = copied
	return nil
}

func (s *Store) Get(ctx context.Context, digestHex string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[digestHex]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
