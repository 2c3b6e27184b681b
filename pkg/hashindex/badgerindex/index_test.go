package badgerindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "hashindex"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndex_AddThenCheckHashes_ReturnsHit(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.AddURNToIndex(ctx, "deadbeef", "aff4://client/deadbeef"))

	hits, err := idx.CheckHashes(ctx, []string{"deadbeef", "cafef00d"}, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "deadbeef", hits[0].SHA256Hex)
	assert.Equal(t, "aff4://client/deadbeef", hits[0].URN)
}

func TestIndex_CheckHashes_DedupesRepeatedInputDigests(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.AddURNToIndex(ctx, "aaaa", "urn:aaaa"))

	hits, err := idx.CheckHashes(ctx, []string{"aaaa", "aaaa", "aaaa"}, false)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_AddURNToIndex_OverwritesPreviousURN(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.AddURNToIndex(ctx, "hash1", "urn:first"))
	require.NoError(t, idx.AddURNToIndex(ctx, "hash1", "urn:second"))

	hits, err := idx.CheckHashes(ctx, []string{"hash1"}, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "urn:second", hits[0].URN)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hashindex")
	ctx := context.Background()

	idx, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, idx.AddURNToIndex(ctx, "persisted", "urn:persisted"))
	require.NoError(t, idx.Close())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.CheckHashes(ctx, []string{"persisted"}, false)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "urn:persisted", hits[0].URN)
}
