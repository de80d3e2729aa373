package archive

import (
	"fmt"
	"io"
	"regexp"

	"github.com/klauspost/compress/zip"
)

// File identifies a single entry inside one of the export zips.
type File struct {
	ArchiveID int
	Path      string
}

func (f File) String() string {
	return fmt.Sprintf("archive #%d: %s", f.ArchiveID, f.Path)
}

// Item is a media file (photo or video) found in the export.
type Item struct {
	ID   string
	File File
	Type string
	Size int64
}

// Index holds everything found across the archive set: media items keyed by
// parsed photo id, per-photo metadata files, and the albums manifest.
type Index struct {
	readers    []*zip.ReadCloser
	paths      []string
	AlbumsFile *File
	Items      map[string]Item
	Infos      map[string]File
	Types      []string
}

// Flickr account-level exports that carry no per-photo information.
var ignoredJSONRe = regexp.MustCompile(
	`^(account_profile|account_testimonials|apps_comments_part\d+|contacts_part\d+|` +
		`faves_part\d+|followers_part\d+|galleries|galleries_comments_part\d+|` +
		`group_discussions|groups|photos_comments_part\d+|received_flickrmail_part\d+|` +
		`sent_flickrmail_part\d+|sets_comments_part\d+)\.json$`)

var photoInfoRe = regexp.MustCompile(`^photo_([0-9]+)\.json$`)
var mediaFileRe = regexp.MustCompile(`^(.+)\.([a-z0-9]+)$`)

// Open returns a reader for the content of an entry. The caller closes it.
func (idx *Index) Open(file File) (io.ReadCloser, error) {
	if file.ArchiveID < 0 || file.ArchiveID >= len(idx.readers) {
		return nil, fmt.Errorf("unknown archive id %d", file.ArchiveID)
	}
	r, err := idx.readers[file.ArchiveID].Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", file.Path, idx.paths[file.ArchiveID], err)
	}
	return r, nil
}

// ArchivePath returns the zip file path an entry came from.
func (idx *Index) ArchivePath(file File) string {
	if file.ArchiveID < 0 || file.ArchiveID >= len(idx.paths) {
		return ""
	}
	return idx.paths[file.ArchiveID]
}

// Close releases all underlying zip readers.
func (idx *Index) Close() error {
	var firstErr error
	for _, r := range idx.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
