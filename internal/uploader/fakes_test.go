package uploader

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/maizy/flickr-archive-extractor/internal/gphotos"
)

type createdItem struct {
	albumID     string
	fileName    string
	description string
}

// fakeClient implements gphotos.Client in memory.
type fakeClient struct {
	mu sync.Mutex

	albums        []gphotos.Album
	nextAlbumID   int
	uploaded      []string
	contents      map[string]string
	created       []createdItem
	createdAlbums []string

	failUploadOf map[string]error
	quotaAfter   int // fail every upload with ErrQuotaExceeded once this many items uploaded, 0 = never
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		contents:     map[string]string{},
		failUploadOf: map[string]error{},
	}
}

func (f *fakeClient) UploadBytes(_ context.Context, fileName string, content io.ReadSeeker, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotaAfter > 0 && len(f.uploaded) >= f.quotaAfter {
		return "", gphotos.ErrQuotaExceeded
	}
	if err, ok := f.failUploadOf[fileName]; ok {
		return "", err
	}

	// read twice through a rewind, like a retried HTTP request would
	first, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	second, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("body of %s changed after a rewind", fileName)
	}

	f.contents[fileName] = string(second)
	f.uploaded = append(f.uploaded, fileName)
	return "token-" + fileName, nil
}

func (f *fakeClient) CreateMediaItem(_ context.Context, albumID, description, fileName, uploadToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uploadToken != "token-"+fileName {
		return "", fmt.Errorf("unexpected upload token %q for %s", uploadToken, fileName)
	}
	f.created = append(f.created, createdItem{albumID: albumID, fileName: fileName, description: description})
	return "media-" + fileName, nil
}

func (f *fakeClient) ListAlbums(context.Context) ([]gphotos.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gphotos.Album{}, f.albums...), nil
}

func (f *fakeClient) CreateAlbum(_ context.Context, title string) (gphotos.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextAlbumID++
	album := gphotos.Album{ID: fmt.Sprintf("album-%d", f.nextAlbumID), Title: title}
	f.albums = append(f.albums, album)
	f.createdAlbums = append(f.createdAlbums, title)
	return album, nil
}
