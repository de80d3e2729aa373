package gphotos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrQuotaExceeded is returned when the API keeps responding with HTTP 429
// after all retries. The daily quota resets at midnight Pacific time, so the
// caller should stop and resume the run later.
var ErrQuotaExceeded = errors.New("Photos Library API quota exceeded")

// Album is a destination album in the user's library.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Client is the part of the Photos Library API the uploader needs.
type Client interface {
	UploadBytes(ctx context.Context, fileName string, content io.ReadSeeker, size int64) (string, error)
	CreateMediaItem(ctx context.Context, albumID, description, fileName, uploadToken string) (string, error)
	ListAlbums(ctx context.Context) ([]Album, error)
	CreateAlbum(ctx context.Context, title string) (Album, error)
}

type apiClient struct {
	httpClient *retryablehttp.Client
	baseURL    string
	logger     log.Logger
}

// NewClient creates a Photos Library API client. `authorizedClient` must
// already carry the OAuth2 credentials (see the auth package part); it is
// wrapped with the retrying transport so transient errors and rate limit
// responses are retried with backoff.
func NewClient(baseURL string, authorizedClient *http.Client, logger log.Logger) Client {
	retryableHTTPClient := retryhttp.NewClient(logger)
	retryableHTTPClient.HTTPClient = authorizedClient
	// Return the last 429 response instead of a generic "giving up" error so
	// quota exhaustion is distinguishable from transport failures.
	retryableHTTPClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &apiClient{
		httpClient: retryableHTTPClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// UploadBytes pushes raw media bytes and returns an upload token to be used
// in a media item creation call within a day. The content is streamed, not
// buffered: media items can be multi-GB originals. Retries rewind the body
// via Seek.
func (c *apiClient) UploadBytes(ctx context.Context, fileName string, content io.ReadSeeker, size int64) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", content)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-type", "application/octet-stream")
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-File-Name", url.PathEscape(fileName))
	req.ContentLength = size

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", unwrapError(resp)
	}

	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload token: %w", err)
	}
	return string(token), nil
}

type simpleMediaItem struct {
	FileName    string `json:"fileName"`
	UploadToken string `json:"uploadToken"`
}

type newMediaItem struct {
	Description     string          `json:"description,omitempty"`
	SimpleMediaItem simpleMediaItem `json:"simpleMediaItem"`
}

type batchCreateRequest struct {
	AlbumID       string         `json:"albumId,omitempty"`
	NewMediaItems []newMediaItem `json:"newMediaItems"`
}

type mediaItem struct {
	ID string `json:"id"`
}

type mediaItemResult struct {
	UploadToken string `json:"uploadToken"`
	Status      struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	MediaItem *mediaItem `json:"mediaItem"`
}

type batchCreateResponse struct {
	NewMediaItemResults []mediaItemResult `json:"newMediaItemResults"`
}

// CreateMediaItem turns an upload token into a library media item and returns
// the created item's id.
func (c *apiClient) CreateMediaItem(ctx context.Context, albumID, description, fileName, uploadToken string) (string, error) {
	requestBody := batchCreateRequest{
		AlbumID: albumID,
		NewMediaItems: []newMediaItem{
			{
				Description: description,
				SimpleMediaItem: simpleMediaItem{
					FileName:    fileName,
					UploadToken: uploadToken,
				},
			},
		},
	}

	var response batchCreateResponse
	if err := c.postJSON(ctx, "/mediaItems:batchCreate", requestBody, &response); err != nil {
		return "", err
	}

	if len(response.NewMediaItemResults) != 1 {
		return "", fmt.Errorf("expected 1 media item result, got %d", len(response.NewMediaItemResults))
	}
	result := response.NewMediaItemResults[0]
	if result.MediaItem == nil || result.MediaItem.ID == "" {
		return "", fmt.Errorf("media item creation failed: %s (code %d)", result.Status.Message, result.Status.Code)
	}
	return result.MediaItem.ID, nil
}

type listAlbumsResponse struct {
	Albums        []Album `json:"albums"`
	NextPageToken string  `json:"nextPageToken"`
}

// ListAlbums returns all albums of the library, following pagination.
func (c *apiClient) ListAlbums(ctx context.Context) ([]Album, error) {
	var albums []Album
	pageToken := ""
	for {
		apiURL := fmt.Sprintf("%s/albums?pageSize=50", c.baseURL)
		if pageToken != "" {
			apiURL += "&pageToken=" + url.QueryEscape(pageToken)
		}

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		var response listAlbumsResponse
		if resp.StatusCode != http.StatusOK {
			err = unwrapError(resp)
		} else {
			err = json.NewDecoder(resp.Body).Decode(&response)
		}
		c.closeBody(resp.Body)
		if err != nil {
			return nil, err
		}

		albums = append(albums, response.Albums...)
		if response.NextPageToken == "" {
			return albums, nil
		}
		pageToken = response.NextPageToken
	}
}

type createAlbumRequest struct {
	Album Album `json:"album"`
}

// CreateAlbum creates a new album owned by the app.
func (c *apiClient) CreateAlbum(ctx context.Context, title string) (Album, error) {
	var album Album
	err := c.postJSON(ctx, "/albums", createAlbumRequest{Album: Album{Title: title}}, &album)
	if err != nil {
		return Album{}, err
	}
	return album, nil
}

func (c *apiClient) postJSON(ctx context.Context, path string, requestBody, response interface{}) error {
	body, err := json.Marshal(requestBody)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return unwrapError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(response)
}

func (c *apiClient) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Printf(err.Error())
	}
}

func unwrapError(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrQuotaExceeded
	}
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorResp)
}
