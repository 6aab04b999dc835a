package fs

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abcretail/internal/platform/blob"
	"abcretail/pkg/platform/sentinel"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, "log-files/audit-log-20250101-000000.csv", strings.NewReader("a,b\n"), blob.PutOptions{
		ContentType: "text/csv",
		Metadata:    map[string]string{"rows": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)

	got, rc, err := s.Get(ctx, "log-files/audit-log-20250101-000000.csv")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(body))
	assert.Equal(t, "text/csv", got.ContentType)
	assert.Equal(t, "1", got.Metadata["rows"])
	assert.Equal(t, info.ETag, got.ETag)
}

func TestStore_CreateOnly(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Put(ctx, "k", strings.NewReader("one"), blob.PutOptions{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "k", strings.NewReader("two"), blob.PutOptions{})
	assert.ErrorIs(t, err, sentinel.ErrAlreadyExists)
}

func TestStore_ListFiltersPrefixAndSkipsSidecars(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, k := range []string{"log-files/2", "log-files/1", "product-photos/p"} {
		_, err := s.Put(ctx, k, strings.NewReader(k), blob.PutOptions{})
		require.NoError(t, err)
	}

	infos, err := s.List(ctx, "log-files/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "log-files/1", infos[0].Key)
	assert.Equal(t, "log-files/2", infos[1].Key)
}

func TestStore_MissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = s.PresignURL(ctx, "missing", time.Hour)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = s.Put(ctx, "x", strings.NewReader("x"), blob.PutOptions{})
	require.NoError(t, err)
	u, err := s.PresignURL(ctx, "x", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))

	deleted, err := s.Delete(ctx, "x")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.Delete(ctx, "x")
	require.NoError(t, err)
	assert.False(t, deleted)
}
