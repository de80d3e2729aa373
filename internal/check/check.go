package check

import (
	"fmt"
	"sort"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/maizy/flickr-archive-extractor/internal/archive"
)

// CheckInput is the information that comes from the CLI layer.
type CheckInput struct {
	ArchiveGlobs []string
	Verbose      bool
}

// Checker verifies the completeness of an exported archive set.
type Checker interface {
	Check(input CheckInput) (Report, error)
}

type checker struct {
	logger log.Logger
}

// NewChecker ...
func NewChecker(logger log.Logger) *checker {
	return &checker{logger: logger}
}

// Check indexes the archives matched by the input globs and diffs media items
// against the per-photo metadata manifests.
func (c *checker) Check(input CheckInput) (Report, error) {
	if len(input.ArchiveGlobs) == 0 {
		return Report{}, fmt.Errorf("at least one archive path is required")
	}

	archives, wrongPaths := archive.ListArchives(input.ArchiveGlobs, c.logger)
	if len(archives) == 0 {
		return Report{WrongPaths: wrongPaths}, ErrNoArchives
	}

	idx, err := archive.BuildIndex(archives, c.logger)
	if err != nil {
		return Report{}, fmt.Errorf("failed to index archives: %w", err)
	}
	defer idx.Close() //nolint:errcheck

	report := Report{
		Archives:   archives,
		WrongPaths: wrongPaths,
		ItemCount:  len(idx.Items),
		InfoCount:  len(idx.Infos),
		ItemTypes:  idx.Types,
	}

	for id, item := range idx.Items {
		report.TotalSize += item.Size
		if _, ok := idx.Infos[id]; !ok {
			report.ItemsWithoutInfo = append(report.ItemsWithoutInfo, id)
		}
	}
	for id := range idx.Infos {
		if _, ok := idx.Items[id]; !ok {
			report.InfosWithoutItem = append(report.InfosWithoutItem, id)
		}
	}
	sort.Strings(report.ItemsWithoutInfo)
	sort.Strings(report.InfosWithoutItem)

	albums, err := idx.Albums()
	if err != nil {
		return Report{}, fmt.Errorf("failed to read albums manifest: %w", err)
	}
	report.HasAlbums = idx.AlbumsFile != nil
	for _, album := range albums {
		coverage := AlbumCoverage{Title: album.Title}
		for _, id := range album.PhotoIDs() {
			coverage.Expected++
			if _, ok := idx.Items[id]; ok {
				coverage.Present++
			}
		}
		report.Albums = append(report.Albums, coverage)
	}

	return report, nil
}
