// Package diskfs implements blobstore.Store on a local filesystem tree,
// sharded by the first two bytes of each digest to keep any one directory
// from accumulating too many entries.
package diskfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/marmos91/acquire/pkg/metrics"
)

// Store is a filesystem-backed blobstore.Store.
type Store struct {
	root    string
	metrics *metrics.BlobStoreMetrics
}

// New creates a Store rooted at root, creating the directory if needed.
func New(root string, m *metrics.BlobStoreMetrics) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("diskfs: root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("diskfs: failed to create root %q: %w", root, err)
	}
	return &Store{root: root, metrics: m}, nil
}

// path returns the sharded on-disk path for digestHex: root/ab/cd/abcd....
func (s *Store) path(digestHex string) (string, error) {
	if len(digestHex) < 4 {
		return "", fmt.Errorf("diskfs: digest %q too short to shard", digestHex)
	}
	return filepath.Join(s.root, digestHex[:2], digestHex[2:4], digestHex), nil
}

func (s *Store) BlobsExist(ctx context.Context, digests []string) (map[string]bool, error) {
	result := make(map[string]bool, len(digests))
	present := 0
	for _, d := range digests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.path(d)
		if err != nil {
			return nil, err
		}
		_, err = os.Stat(p)
		exists := err == nil
		result[d] = exists
		if exists {
			present++
		}
	}
	s.metrics.ObserveExistsBatch(len(digests), present)
	return result, nil
}

func (s *Store) Put(ctx context.Context, digestHex string, data []byte) error {
	start := time.Now()
	err := s.put(digestHex, data)
	s.metrics.ObservePut("diskfs", int64(len(data)), time.Since(start), err)
	return err
}

func (s *Store) put(digestHex string, data []byte) error {
	p, err := s.path(digestHex)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("diskfs: failed to create shard directory: %w", err)
	}

	tmp := p + fmt.Sprintf(".tmp-%d", time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("diskfs: failed to write %q: %w", digestHex, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("diskfs: failed to finalize %q: %w", digestHex, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, digestHex string) ([]byte, error) {
	start := time.Now()
	data, err := s.get(digestHex)
	s.metrics.ObserveGet("diskfs", time.Since(start), err)
	return data, err
}

func (s *Store) get(digestHex string) ([]byte, error) {
	p, err := s.path(digestHex)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("diskfs: failed to read %q: %w", digestHex, err)
	}
	return data, nil
}

func (s *Store) Close() error {
	return nil
}
