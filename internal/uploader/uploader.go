package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/cheggaaa/pb/v3"
	"github.com/docker/go-units"

	"github.com/maizy/flickr-archive-extractor/internal/archive"
	"github.com/maizy/flickr-archive-extractor/internal/gphotos"
	"github.com/maizy/flickr-archive-extractor/internal/state"
)

// Album title prefix for everything this tool creates, so migrated albums are
// easy to tell apart in the Google Photos library.
const albumTitlePrefix = "Flickr: "

const defaultAlbumTitle = albumTitlePrefix + "Not in album"

// UploadInput is the information that comes from the CLI layer.
type UploadInput struct {
	ArchiveGlobs []string
	AlbumTitles  []string
	Verbose      bool
	ShowProgress bool
}

// Summary describes what an upload run did.
type Summary struct {
	Uploaded     int
	Skipped      int
	Failed       int
	UploadedSize int64
}

// Uploader transfers archive media to Google Photos, resuming from the
// progress store.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (Summary, error)
}

type uploader struct {
	logger log.Logger
	client gphotos.Client
	store  *state.Store
}

// NewUploader ...
func NewUploader(logger log.Logger, client gphotos.Client, store *state.Store) *uploader {
	return &uploader{
		logger: logger,
		client: client,
		store:  store,
	}
}

// Upload indexes the archives, ensures destination albums exist and uploads
// every not-yet-uploaded item sequentially. Already uploaded ids (per the
// progress store) are skipped, so an interrupted run can simply be restarted.
func (u *uploader) Upload(ctx context.Context, input UploadInput) (Summary, error) {
	if len(input.ArchiveGlobs) == 0 {
		return Summary{}, fmt.Errorf("at least one archive path is required")
	}

	archives, wrongPaths := archive.ListArchives(input.ArchiveGlobs, u.logger)
	for _, p := range wrongPaths {
		u.logger.Warnf("Not an archive, skipping: %s", p)
	}
	if len(archives) == 0 {
		return Summary{}, fmt.Errorf("no readable archives found for the provided paths")
	}

	idx, err := archive.BuildIndex(archives, u.logger)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to index archives: %w", err)
	}
	defer idx.Close() //nolint:errcheck
	u.logger.Infof("Indexed %s", idx)

	plan, err := u.buildPlan(idx, input.AlbumTitles)
	if err != nil {
		return Summary{}, err
	}
	u.logger.Infof("Upload plan: %d items in %d albums", plan.itemCount(), len(plan.targets))

	var summary Summary
	startTime := time.Now()
	for _, target := range plan.targets {
		if err := u.uploadTarget(ctx, idx, target, input.ShowProgress, &summary); err != nil {
			u.printSummary(summary, time.Since(startTime))
			return summary, err
		}
	}

	u.printSummary(summary, time.Since(startTime))
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d items failed to upload", summary.Failed)
	}
	return summary, nil
}

func (u *uploader) uploadTarget(ctx context.Context, idx *archive.Index, target target, showProgress bool, summary *Summary) error {
	if len(target.items) == 0 {
		return nil
	}

	albumID, err := u.ensureAlbum(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to prepare album %s: %w", target.title, err)
	}

	u.logger.Println()
	u.logger.Infof("Album %s: %d items", target.title, len(target.items))

	for _, item := range target.items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		uploaded, err := u.store.IsUploaded(item.ID)
		if err != nil {
			return err
		}
		if uploaded {
			u.logger.Debugf("Already uploaded, skipping: %s", item.File.Path)
			summary.Skipped++
			continue
		}

		err = u.uploadItem(ctx, idx, item, albumID, showProgress)
		if errors.Is(err, gphotos.ErrQuotaExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			u.logger.Errorf("Failed to upload %s: %s", item.File.Path, err)
			summary.Failed++
			continue
		}
		summary.Uploaded++
		summary.UploadedSize += item.Size
	}
	return nil
}

func (u *uploader) uploadItem(ctx context.Context, idx *archive.Index, item archive.Item, albumID string, showProgress bool) error {
	fileName := path.Base(item.File.Path)
	u.logger.Printf("Uploading %s (%s)", fileName, units.HumanSizeWithPrecision(float64(item.Size), 3))

	tmpFile, err := spillEntry(idx, item.File)
	if err != nil {
		return err
	}
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
	}()

	var body io.ReadSeeker = tmpFile
	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.New64(item.Size).Set(pb.Bytes, true)
		bar.Start()
		body = &progressReader{file: tmpFile, bar: bar}
	}

	uploadToken, err := u.client.UploadBytes(ctx, fileName, body, item.Size)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("upload bytes: %w", err)
	}

	description := u.itemDescription(idx, item)
	mediaItemID, err := u.client.CreateMediaItem(ctx, albumID, description, fileName, uploadToken)
	if err != nil {
		return fmt.Errorf("create media item: %w", err)
	}

	if err := u.store.MarkUploaded(item.ID, mediaItemID); err != nil {
		return err
	}
	u.logger.Debugf("Uploaded %s as media item %s", fileName, mediaItemID)
	return nil
}

// spillEntry copies a zip entry to a temp file. A zip entry can only be read
// once and is not seekable, but the upload body must be: HTTP retries rewind
// it instead of re-buffering multi-GB originals in memory.
func spillEntry(idx *archive.Index, file archive.File) (*os.File, error) {
	content, err := idx.Open(file)
	if err != nil {
		return nil, err
	}
	defer content.Close() //nolint:errcheck

	tmpFile, err := os.CreateTemp("", "flickr-upload-")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmpFile, content); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("extract %s: %w", file, err)
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return nil, err
	}
	return tmpFile, nil
}

// progressReader feeds the progress bar from the actual transfer and rewinds
// the bar when a retry seeks the body back to the start.
type progressReader struct {
	file *os.File
	bar  *pb.ProgressBar
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	r.bar.Add(n)
	return n, err
}

func (r *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.file.Seek(offset, whence)
	if err == nil && pos == 0 {
		r.bar.SetCurrent(0)
	}
	return pos, err
}

// itemDescription builds the media item description from the photo metadata.
// Metadata problems only degrade the description, never fail the upload.
func (u *uploader) itemDescription(idx *archive.Index, item archive.Item) string {
	info, err := idx.PhotoInfoByID(item.ID)
	if err != nil {
		u.logger.Debugf("No usable metadata for %s: %s", item.ID, err)
		return ""
	}
	if info.Description != "" {
		return fmt.Sprintf("%s\n\n%s", info.Name, info.Description)
	}
	return info.Name
}

func (u *uploader) ensureAlbum(ctx context.Context, target target) (string, error) {
	if target.flickrAlbumID != "" {
		id, err := u.store.AlbumID(target.flickrAlbumID)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}

	albums, err := u.client.ListAlbums(ctx)
	if err != nil {
		return "", fmt.Errorf("list albums: %w", err)
	}
	var albumID string
	for _, album := range albums {
		if album.Title == target.title {
			albumID = album.ID
			break
		}
	}

	if albumID == "" {
		album, err := u.client.CreateAlbum(ctx, target.title)
		if err != nil {
			return "", fmt.Errorf("create album: %w", err)
		}
		u.logger.Donef("Created album %s", target.title)
		albumID = album.ID
	}

	if target.flickrAlbumID != "" {
		if err := u.store.SaveAlbumID(target.flickrAlbumID, albumID); err != nil {
			return "", err
		}
	}
	return albumID, nil
}

func (u *uploader) printSummary(summary Summary, elapsed time.Duration) {
	u.logger.Println()
	u.logger.Infof("Uploaded: %d items (%s) in %s",
		summary.Uploaded,
		units.HumanSizeWithPrecision(float64(summary.UploadedSize), 3),
		elapsed.Round(time.Second))
	if summary.Skipped > 0 {
		u.logger.Printf("Skipped (already uploaded): %d", summary.Skipped)
	}
	if summary.Failed > 0 {
		u.logger.Warnf("Failed: %d", summary.Failed)
	}
}
