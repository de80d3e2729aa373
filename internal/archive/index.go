package archive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/klauspost/compress/zip"
)

// BuildIndex opens every archive and classifies its entries: the albums
// manifest, per-photo metadata files, and media items. Duplicate ids are
// reported and the first occurrence wins.
func BuildIndex(paths []string, logger log.Logger) (*Index, error) {
	idx := &Index{
		Items: map[string]Item{},
		Infos: map[string]File{},
	}
	types := map[string]bool{}

	for archiveID, path := range paths {
		reader, err := zip.OpenReader(path)
		if err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("open archive %s: %w", path, err)
		}
		idx.readers = append(idx.readers, reader)
		idx.paths = append(idx.paths, path)

		for _, entry := range reader.File {
			if entry.FileInfo().IsDir() {
				continue
			}
			file := File{ArchiveID: archiveID, Path: entry.Name}

			if entry.Name == "albums.json" {
				if idx.AlbumsFile != nil {
					logger.Warnf("Duplicate albums.json: %s, %s", *idx.AlbumsFile, file)
					continue
				}
				albumsFile := file
				idx.AlbumsFile = &albumsFile
				continue
			}

			if match := photoInfoRe.FindStringSubmatch(entry.Name); match != nil {
				id := match[1]
				if existing, ok := idx.Infos[id]; ok {
					logger.Warnf("Duplicate photo info with id %s: %s, %s", id, existing, file)
					continue
				}
				idx.Infos[id] = file
				continue
			}

			if match := mediaFileRe.FindStringSubmatch(entry.Name); match != nil && match[2] != "json" {
				item := Item{
					ID:   parseItemID(match[1]),
					File: file,
					Type: match[2],
					Size: int64(entry.UncompressedSize64),
				}
				if item.ID == "" {
					item.ID = match[1]
				}
				types[item.Type] = true
				if existing, ok := idx.Items[item.ID]; ok {
					logger.Warnf("Duplicate item with id %s: %s, %s", item.ID, existing.File, file)
					continue
				}
				idx.Items[item.ID] = item
				continue
			}

			if !ignoredJSONRe.MatchString(entry.Name) {
				logger.Debugf("Unknown file in archive: %s", file)
			}
		}
	}

	for t := range types {
		idx.Types = append(idx.Types, t)
	}
	sort.Strings(idx.Types)
	logger.Debugf("Item types in archives: %s", strings.Join(idx.Types, ", "))

	return idx, nil
}

// parseItemID extracts the numeric photo id from a Flickr media file name.
// Exported names look like `some-title_51234567890_o.jpg` or
// `51234567890_a1b2c3d4e5_o.jpg`; the id is the last all-digit token of a
// plausible length. Returns "" when no such token exists.
func parseItemID(name string) string {
	tokens := strings.Split(name, "_")
	for i := len(tokens) - 1; i >= 0; i-- {
		token := tokens[i]
		if len(token) >= 4 && isDigits(token) {
			return token
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// String implements a short human summary, mirroring what `check` prints.
func (idx *Index) String() string {
	albums := "not found"
	if idx.AlbumsFile != nil {
		albums = "found"
	}
	return fmt.Sprintf("archives: %d, photo infos: %d, items: %d, albums.json: %s",
		len(idx.readers), len(idx.Infos), len(idx.Items), albums)
}
