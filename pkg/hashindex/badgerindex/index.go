// Package badgerindex implements hashindex.Index on a BadgerDB, giving the
// file-hash-to-URN mapping persistence across daemon restarts.
package badgerindex

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/acquire/pkg/hashindex"
	"github.com/marmos91/acquire/pkg/metrics"
)

// Index is a BadgerDB-backed hashindex.Index. Keys are "h:" + sha256 hex;
// values are the raw URN bytes.
type Index struct {
	db      *badger.DB
	metrics *metrics.HashIndexMetrics
}

// Open opens (or creates) a badger database rooted at dir.
func Open(dir string, m *metrics.HashIndexMetrics) (*Index, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerindex: failed to open %q: %w", dir, err)
	}
	return &Index{db: db, metrics: m}, nil
}

func hashKey(sha256Hex string) []byte {
	return append([]byte("h:"), []byte(sha256Hex)...)
}

func (idx *Index) CheckHashes(ctx context.Context, hashes []string, external bool) ([]hashindex.Hit, error) {
	start := time.Now()
	hits, err := idx.checkHashes(ctx, hashes)
	idx.metrics.ObserveCheckHashes(len(hashes), len(hits), time.Since(start))
	return hits, err
}

func (idx *Index) checkHashes(ctx context.Context, hashes []string) ([]hashindex.Hit, error) {
	seen := make(map[string]bool, len(hashes))
	var hits []hashindex.Hit

	err := idx.db.View(func(txn *badger.Txn) error {
		for _, h := range hashes {
			if err := ctx.Err(); err != nil {
				return err
			}
			if seen[h] {
				continue
			}
			seen[h] = true

			item, err := txn.Get(hashKey(h))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return fmt.Errorf("badgerindex: get %q: %w", h, err)
			}

			err = item.Value(func(val []byte) error {
				hits = append(hits, hashindex.Hit{SHA256Hex: h, URN: string(val)})
				return nil
			})
			if err != nil {
				return fmt.Errorf("badgerindex: read value for %q: %w", h, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (idx *Index) AddURNToIndex(ctx context.Context, sha256Hex, urn string) error {
	start := time.Now()
	err := idx.db.Update(func(txn *badger.Txn) error {
		return txn.Set(hashKey(sha256Hex), []byte(urn))
	})
	if err != nil {
		err = fmt.Errorf("badgerindex: set %q: %w", sha256Hex, err)
	}
	idx.metrics.ObserveAdd(time.Since(start), err)
	return err
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}
