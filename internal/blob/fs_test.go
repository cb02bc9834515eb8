package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFSStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(filepath.Join(t.TempDir(), "uploads"), nil)
	require.NoError(t, err)
	return store
}

func TestFSStorePutAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newTestFSStore(t)

	n, err := store.Put(ctx, "cat-20240101-1.png", strings.NewReader("meow"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	rc, err := store.Open(ctx, "cat-20240101-1.png")
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(body))

	_, isSeeker := rc.(io.ReadSeeker)
	assert.True(t, isSeeker)
}

func TestFSStorePutRefusesToOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestFSStore(t)

	_, err := store.Put(ctx, "dup.txt", strings.NewReader("first"), -1, "")
	require.NoError(t, err)

	_, err = store.Put(ctx, "dup.txt", strings.NewReader("second"), -1, "")
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(filepath.Join(store.Root(), "dup.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup.txt"}, names, "temp files must be cleaned up")
}

func TestFSStoreRejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	store := newTestFSStore(t)

	_, err := store.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = store.Open(ctx, "nested/file.txt")
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidName)
}

func TestFSStoreOpenMissing(t *testing.T) {
	store := newTestFSStore(t)

	_, err := store.Open(context.Background(), "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStoreDeleteMissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := newTestFSStore(t)

	_, err := store.Put(ctx, "gone.png", strings.NewReader("x"), 1, "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "gone.png"))
	assert.NoError(t, store.Delete(ctx, "gone.png"))

	_, err = os.Stat(filepath.Join(store.Root(), "gone.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFSStoreListSkipsTempFilesAndDirs(t *testing.T) {
	ctx := context.Background()
	store := newTestFSStore(t)

	_, err := store.Put(ctx, "a.png", strings.NewReader("a"), 1, "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), tempPrefix+"123"), []byte("partial"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Root(), "sub"), 0o755))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, names)
}

func TestFSStorePing(t *testing.T) {
	store := newTestFSStore(t)
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(store.Root()))

	var storageErr *StorageError
	err := store.Ping(context.Background())
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "ping", storageErr.Op)
}

func TestNewFSStoreRequiresRoot(t *testing.T) {
	_, err := NewFSStore("", nil)
	assert.Error(t, err)
}
