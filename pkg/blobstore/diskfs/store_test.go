package diskfs

import (
	"context"
	"testing"

	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	digest := "abcd1234"
	require.NoError(t, s.Put(ctx, digest, []byte("hello world")))

	got, err := s.Get(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)
}

func TestStore_Get_MissingReturnsErrNotFound(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_BlobsExist_ReportsPartialPresence(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "aaaa1111", []byte("present")))

	result, err := s.BlobsExist(ctx, []string{"aaaa1111", "bbbb2222"})
	require.NoError(t, err)
	assert.True(t, result["aaaa1111"])
	assert.False(t, result["bbbb2222"])
}

func TestStore_Put_IsIdempotent(t *testing.T) {
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "cafef00d", []byte("first")))
	require.NoError(t, s.Put(ctx, "cafef00d", []byte("second")))

	got, err := s.Get(ctx, "cafef00d")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestNew_RejectsEmptyRoot(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
}
