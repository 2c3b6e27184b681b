// Package memory provides an in-memory hashindex.Index implementation for
// tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/acquire/pkg/hashindex"
)

// Index is an in-memory implementation of hashindex.Index.
type Index struct {
	mu      sync.RWMutex
	byHash  map[string]string // sha256 hex -> stored URN
}

// New creates a new in-memory file-hash index.
func New() *Index {
	return &Index{byHash: make(map[string]string)}
}

func (idx *Index) CheckHashes(ctx context.Context, hashes []string, external bool) ([]hashindex.Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []hashindex.Hit
	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if seen[h] {
			continue
		}
		seen[h] = true
		if urn, ok := idx.byHash[h]; ok {
			hits = append(hits, hashindex.Hit{SHA256Hex: h, URN: urn})
		}
	}
	return hits, nil
}

func (idx *Index) AddURNToIndex(ctx context.Context, sha256Hex, urn string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byHash[sha256Hex] = urn
	return nil
}
