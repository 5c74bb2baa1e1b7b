package store_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalabro/cgloom/store"
)

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	payload := []byte{1, 2, 3, 0, 0, 0, 255}
	require.NoError(t, s.Put(ctx, "filter", payload))

	got, err := s.Get(ctx, "filter")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// The store must not alias the caller's buffer.
	payload[0] = 42
	got, err = s.Get(ctx, "filter")
	require.NoError(t, err)
	assert.Equal(t, byte(1), got[0])

	// Overwrite replaces the record.
	require.NoError(t, s.Put(ctx, "filter", []byte("v2")))
	got, err = s.Get(ctx, "filter")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// Empty records round-trip as empty.
	require.NoError(t, s.Put(ctx, "empty", nil))
	got, err = s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Delete(ctx, "filter"))
	_, err = s.Get(ctx, "filter")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting twice is fine.
	require.NoError(t, s.Delete(ctx, "filter"))

	for _, bad := range []string{"", "a/b", `a\b`, "..", "."} {
		_, err := s.Get(ctx, bad)
		require.ErrorIs(t, err, store.ErrInvalidKey, "key %q", bad)
		require.ErrorIs(t, s.Put(ctx, bad, nil), store.ErrInvalidKey, "key %q", bad)
		require.ErrorIs(t, s.Delete(ctx, bad), store.ErrInvalidKey, "key %q", bad)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	exerciseStore(t, s)

	require.NoError(t, s.Close())
	_, err := s.Get(context.Background(), "filter")
	require.ErrorIs(t, err, store.ErrClosed)
	require.ErrorIs(t, s.Put(context.Background(), "filter", nil), store.ErrClosed)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "records")
	s, err := store.NewFile(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.NewFile(dir)
	require.NoError(t, err)

	ctx := context.Background()
	for range 5 {
		require.NoError(t, s.Put(ctx, "filter", bytes.Repeat([]byte{7}, 1024)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "filter.cbf", entries[0].Name())
}

func TestFileStoreCanceledContext(t *testing.T) {
	t.Parallel()

	s, err := store.NewFile(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Get(ctx, "filter")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Put(ctx, "filter", nil), context.Canceled)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	s, err := store.NewRedis(context.Background(), store.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	// Keys are namespaced with the default prefix.
	require.NoError(t, s.Put(context.Background(), "bad-programs", []byte("x")))
	assert.True(t, mr.Exists(store.DefaultRedisPrefix+"bad-programs"))
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	s, err := store.NewRedis(context.Background(), store.RedisConfig{
		URL:    "redis://" + mr.Addr(),
		Prefix: "flags:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Put(context.Background(), "set", []byte("x")))
	got, err := mr.Get("flags:set")
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestRedisStoreBadURL(t *testing.T) {
	t.Parallel()

	_, err := store.NewRedis(context.Background(), store.RedisConfig{URL: "not-a-url"})
	require.Error(t, err)
}

func TestCompressedStore(t *testing.T) {
	t.Parallel()

	exerciseStore(t, store.NewCompressed(store.NewMemory()))
}

func TestCompressedStoreShrinksSparseRecords(t *testing.T) {
	t.Parallel()

	inner := store.NewMemory()
	s := store.NewCompressedLevel(inner, lz4.Level5)
	ctx := context.Background()

	// A mostly-zero record, like an empty counting filter.
	record := make([]byte, 16+7000*4)
	record[0] = 0x58
	record[1] = 0x1b
	record[8] = 5

	require.NoError(t, s.Put(ctx, "filter", record))

	packed, err := inner.Get(ctx, "filter")
	require.NoError(t, err)
	assert.Less(t, len(packed), len(record)/10)

	got, err := s.Get(ctx, "filter")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestCompressedStoreRejectsRawRecords(t *testing.T) {
	t.Parallel()

	inner := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, inner.Put(ctx, "filter", []byte("definitely not an lz4 frame")))

	_, err := store.NewCompressed(inner).Get(ctx, "filter")
	require.Error(t, err)
}
