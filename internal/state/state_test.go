package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "upload-state.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func Test_MarkUploaded(t *testing.T) {
	store := openTestStore(t)

	uploaded, err := store.IsUploaded("51111111111")
	require.NoError(t, err)
	assert.False(t, uploaded)

	require.NoError(t, store.MarkUploaded("51111111111", "media-1"))

	uploaded, err = store.IsUploaded("51111111111")
	require.NoError(t, err)
	assert.True(t, uploaded)

	count, err := store.UploadedCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_MarkUploaded_Twice(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.MarkUploaded("51111111111", "media-1"))
	// marking again must not fail or duplicate the record
	require.NoError(t, store.MarkUploaded("51111111111", "media-other"))

	count, err := store.UploadedCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_AlbumMapping(t *testing.T) {
	store := openTestStore(t)

	id, err := store.AlbumID("72157700000000001")
	require.NoError(t, err)
	assert.Equal(t, "", id)

	require.NoError(t, store.SaveAlbumID("72157700000000001", "google-album-1"))

	id, err = store.AlbumID("72157700000000001")
	require.NoError(t, err)
	assert.Equal(t, "google-album-1", id)

	// remapping overwrites
	require.NoError(t, store.SaveAlbumID("72157700000000001", "google-album-2"))
	id, err = store.AlbumID("72157700000000001")
	require.NoError(t, err)
	assert.Equal(t, "google-album-2", id)
}

func Test_StateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-state.sqlite3")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.MarkUploaded("51111111111", "media-1"))
	require.NoError(t, store.SaveAlbumID("album-1", "google-1"))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close() //nolint:errcheck

	uploaded, err := reopened.IsUploaded("51111111111")
	require.NoError(t, err)
	assert.True(t, uploaded)

	id, err := reopened.AlbumID("album-1")
	require.NoError(t, err)
	assert.Equal(t, "google-1", id)
}
