package archive

import (
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const albumsJSON = `{
	"albums": [
		{
			"id": "72157700000000001",
			"title": "Vacation 2019",
			"description": "two weeks at the sea",
			"photo_count": "3",
			"photos": ["51111111111", "0", "52222222222"]
		},
		{
			"id": "72157700000000002",
			"title": "Empty",
			"photo_count": "0",
			"photos": []
		}
	]
}`

func Test_Albums(t *testing.T) {
	dir := t.TempDir()
	metaZip := writeZip(t, filepath.Join(dir, "meta.zip"), map[string]string{
		"albums.json": albumsJSON,
	})

	idx, err := BuildIndex([]string{metaZip}, log.NewLogger())
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck

	albums, err := idx.Albums()
	require.NoError(t, err)
	require.Len(t, albums, 2)

	assert.Equal(t, "72157700000000001", albums[0].ID)
	assert.Equal(t, "Vacation 2019", albums[0].Title)
	// "0" placeholders for deleted photos are dropped
	assert.Equal(t, []string{"51111111111", "52222222222"}, albums[0].PhotoIDs())
	assert.Empty(t, albums[1].PhotoIDs())
}

func Test_Albums_NoManifest(t *testing.T) {
	dir := t.TempDir()
	mediaZip := writeZip(t, filepath.Join(dir, "media.zip"), map[string]string{
		"sunset_51111111111_o.jpg": "jpeg",
	})

	idx, err := BuildIndex([]string{mediaZip}, log.NewLogger())
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck

	albums, err := idx.Albums()
	require.NoError(t, err)
	assert.Nil(t, albums)
}

func Test_PhotoInfoByID(t *testing.T) {
	dir := t.TempDir()
	metaZip := writeZip(t, filepath.Join(dir, "meta.zip"), map[string]string{
		"photo_51111111111.json": `{
			"id": "51111111111",
			"name": "Sunset",
			"description": "At the pier",
			"date_taken": "2019-07-14 21:03:11",
			"privacy": "public"
		}`,
		"photo_52222222222.json": `{broken`,
	})

	idx, err := BuildIndex([]string{metaZip}, log.NewLogger())
	require.NoError(t, err)
	defer idx.Close() //nolint:errcheck

	info, err := idx.PhotoInfoByID("51111111111")
	require.NoError(t, err)
	assert.Equal(t, "Sunset", info.Name)
	assert.Equal(t, "At the pier", info.Description)
	assert.Equal(t, "public", info.Privacy)

	_, err = idx.PhotoInfoByID("52222222222")
	require.Error(t, err)

	_, err = idx.PhotoInfoByID("59999999999")
	require.Error(t, err)
}
