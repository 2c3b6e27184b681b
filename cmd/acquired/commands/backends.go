package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/marmos91/acquire/pkg/blobstore/diskfs"
	blobmemory "github.com/marmos91/acquire/pkg/blobstore/memory"
	"github.com/marmos91/acquire/pkg/blobstore/s3fs"
	"github.com/marmos91/acquire/pkg/config"
	"github.com/marmos91/acquire/pkg/hashindex"
	"github.com/marmos91/acquire/pkg/hashindex/badgerindex"
	hashmemory "github.com/marmos91/acquire/pkg/hashindex/memory"
	"github.com/marmos91/acquire/pkg/metrics"
)

// buildHashIndex constructs the configured hash-index collaborator. The
// returned closer is non-nil only for backends that own a resource (badger).
func buildHashIndex(cfg config.HashIndexConfig, m *metrics.HashIndexMetrics) (hashindex.Index, func() error, error) {
	switch cfg.Backend {
	case "memory":
		return hashmemory.New(), nil, nil
	case "badger":
		idx, err := badgerindex.Open(cfg.Path, m)
		if err != nil {
			return nil, nil, fmt.Errorf("backends: failed to open badger hash index at %q: %w", cfg.Path, err)
		}
		return idx, idx.Close, nil
	default:
		return nil, nil, fmt.Errorf("backends: unknown hash index backend %q", cfg.Backend)
	}
}

// buildBlobStore constructs the configured blob-store collaborator.
func buildBlobStore(ctx context.Context, cfg config.BlobStoreConfig, m *metrics.BlobStoreMetrics) (blobstore.Store, func() error, error) {
	switch cfg.Backend {
	case "memory":
		s := blobmemory.New()
		return s, s.Close, nil
	case "diskfs":
		s, err := diskfs.New(cfg.Path, m)
		if err != nil {
			return nil, nil, fmt.Errorf("backends: failed to open diskfs blob store at %q: %w", cfg.Path, err)
		}
		return s, s.Close, nil
	case "s3":
		s, err := s3fs.New(ctx, s3fs.Config{
			Bucket:    cfg.Bucket,
			KeyPrefix: cfg.KeyPrefix,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
		}, m)
		if err != nil {
			return nil, nil, fmt.Errorf("backends: failed to construct s3 blob store for bucket %q: %w", cfg.Bucket, err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("backends: unknown blob store backend %q", cfg.Backend)
	}
}
