package gphotos

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server) *apiClient {
	t.Helper()
	client, ok := NewClient(server.URL, server.Client(), log.NewLogger()).(*apiClient)
	require.True(t, ok)
	// keep tests fast
	client.httpClient.RetryMax = 1
	client.httpClient.RetryWaitMin = time.Millisecond
	client.httpClient.RetryWaitMax = 5 * time.Millisecond
	return client
}

func Test_UploadBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/uploads", r.URL.Path)
		assert.Equal(t, "raw", r.Header.Get("X-Goog-Upload-Protocol"))
		assert.Equal(t, "sunset.jpg", r.Header.Get("X-Goog-Upload-File-Name"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(body))

		_, _ = w.Write([]byte("upload-token-1"))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	token, err := client.UploadBytes(context.Background(), "sunset.jpg", strings.NewReader("jpeg bytes"), 10)
	require.NoError(t, err)
	assert.Equal(t, "upload-token-1", token)
}

func Test_UploadBytes_RetryResendsFullBody(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(body))
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("upload-token-2"))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	token, err := client.UploadBytes(context.Background(), "sunset.jpg", strings.NewReader("jpeg bytes"), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "upload-token-2", token)
}

func Test_CreateMediaItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mediaItems:batchCreate", r.URL.Path)

		var request batchCreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "album-1", request.AlbumID)
		require.Len(t, request.NewMediaItems, 1)
		assert.Equal(t, "upload-token-1", request.NewMediaItems[0].SimpleMediaItem.UploadToken)
		assert.Equal(t, "sunset.jpg", request.NewMediaItems[0].SimpleMediaItem.FileName)

		_, _ = w.Write([]byte(`{
			"newMediaItemResults": [
				{"uploadToken": "upload-token-1", "status": {"message": "Success"}, "mediaItem": {"id": "media-1"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	id, err := client.CreateMediaItem(context.Background(), "album-1", "Sunset", "sunset.jpg", "upload-token-1")
	require.NoError(t, err)
	assert.Equal(t, "media-1", id)
}

func Test_CreateMediaItem_ItemError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"newMediaItemResults": [
				{"uploadToken": "upload-token-1", "status": {"code": 6, "message": "Failed to add media item"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.CreateMediaItem(context.Background(), "", "", "a.jpg", "upload-token-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to add media item")
}

func Test_ListAlbums_Paged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums", r.URL.Path)
		switch r.URL.Query().Get("pageToken") {
		case "":
			_, _ = w.Write([]byte(`{"albums": [{"id": "a1", "title": "First"}], "nextPageToken": "page-2"}`))
		case "page-2":
			_, _ = w.Write([]byte(`{"albums": [{"id": "a2", "title": "Second"}]}`))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	}))
	defer server.Close()

	client := newTestClient(t, server)
	albums, err := client.ListAlbums(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Album{{ID: "a1", Title: "First"}, {ID: "a2", Title: "Second"}}, albums)
}

func Test_CreateAlbum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums", r.URL.Path)
		var request createAlbumRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "Flickr: Vacation", request.Album.Title)

		_, _ = w.Write([]byte(`{"id": "a9", "title": "Flickr: Vacation"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	album, err := client.CreateAlbum(context.Background(), "Flickr: Vacation")
	require.NoError(t, err)
	assert.Equal(t, Album{ID: "a9", Title: "Flickr: Vacation"}, album)
}

func Test_QuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.UploadBytes(context.Background(), "a.jpg", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = client.ListAlbums(context.Background())
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func Test_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "insufficient scopes"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.CreateAlbum(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
	assert.Contains(t, err.Error(), "insufficient scopes")
}
