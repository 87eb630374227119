package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/accreq/pkg/adapters/file"
	"github.com/aretw0/accreq/pkg/domain"
	"github.com/aretw0/accreq/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Expiry(t *testing.T) {
	now := time.Now()
	store := file.New(t.TempDir(), file.WithTTL(time.Hour), file.WithClock(func() time.Time { return now }))
	ports.RunSessionStoreExpiryContract(t, store, time.Hour, func(d time.Duration) { now = now.Add(d) })
}

func TestFileStore_ExpiredFileIsRemoved(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir, file.WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("old")))
	path := filepath.Join(dir, "old.json")
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoFileExists(t, path)
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("abc")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-abc-123"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o700))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "not-yet"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = store.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, store.Save(ctx, domain.NewSession(id)), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.NotErrorIs(t, err, domain.ErrSessionNotFound, id)
	}
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	s := domain.NewSession("abc")
	require.NoError(t, store.Save(ctx, s))
	s.UserID = 7
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.UserID)
}
