package check

import (
	"errors"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
)

// ErrNoArchives ...
var ErrNoArchives = errors.New("no readable archives found for the provided paths")

// AlbumCoverage tells how many of an album's photos are present in the media
// archives.
type AlbumCoverage struct {
	Title    string
	Expected int
	Present  int
}

// Report is the result of an archive completeness check.
type Report struct {
	Archives         []string
	WrongPaths       []string
	ItemCount        int
	InfoCount        int
	ItemTypes        []string
	ItemsWithoutInfo []string
	InfosWithoutItem []string
	HasAlbums        bool
	Albums           []AlbumCoverage
	TotalSize        int64
}

// Complete reports whether every media item has metadata and vice versa.
func (r Report) Complete() bool {
	return len(r.WrongPaths) == 0 &&
		len(r.ItemsWithoutInfo) == 0 &&
		len(r.InfosWithoutItem) == 0
}

// Print writes a human summary of the report.
func (r Report) Print(logger log.Logger) {
	logger.Infof("Archives:")
	for _, path := range r.Archives {
		logger.Printf("- %s", path)
	}
	if len(r.WrongPaths) > 0 {
		logger.Warnf("Wrong paths:")
		for _, path := range r.WrongPaths {
			logger.Printf("- %s", path)
		}
	}

	logger.Println()
	logger.Printf("Media items: %d (%s)", r.ItemCount, units.HumanSizeWithPrecision(float64(r.TotalSize), 3))
	logger.Printf("Photo metadata files: %d", r.InfoCount)
	if len(r.ItemTypes) > 0 {
		logger.Debugf("Item types: %v", r.ItemTypes)
	}

	if len(r.ItemsWithoutInfo) > 0 {
		logger.Warnf("Items without metadata: %d", len(r.ItemsWithoutInfo))
		for _, id := range r.ItemsWithoutInfo {
			logger.Debugf("- %s", id)
		}
	}
	if len(r.InfosWithoutItem) > 0 {
		logger.Warnf("Metadata without media item: %d", len(r.InfosWithoutItem))
		for _, id := range r.InfosWithoutItem {
			logger.Debugf("- %s", id)
		}
	}

	if !r.HasAlbums {
		logger.Warnf("albums.json not found in the archives")
	} else if len(r.Albums) > 0 {
		logger.Println()
		logger.Infof("Albums:")
		for _, album := range r.Albums {
			if album.Present == album.Expected {
				logger.Printf("- %s: %d photos", album.Title, album.Expected)
			} else {
				logger.Warnf("- %s: %d of %d photos present", album.Title, album.Present, album.Expected)
			}
		}
	}

	logger.Println()
	if r.Complete() {
		logger.Donef("Archive set is complete")
	} else {
		logger.Errorf("Archive set is incomplete")
	}
}
