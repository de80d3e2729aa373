package uploader

import (
	"fmt"
	"sort"

	"github.com/maizy/flickr-archive-extractor/internal/archive"
)

// target is one destination album with the archive items that belong to it.
type target struct {
	title         string
	flickrAlbumID string
	items         []archive.Item
}

type plan struct {
	targets []target
}

func (p plan) itemCount() int {
	count := 0
	for _, t := range p.targets {
		count += len(t.items)
	}
	return count
}

// buildPlan groups the indexed items by Flickr album. Items that belong to no
// album go to a shared default album. When albumTitles is non-empty, only the
// named Flickr albums are uploaded.
func (u *uploader) buildPlan(idx *archive.Index, albumTitles []string) (plan, error) {
	albums, err := idx.Albums()
	if err != nil {
		return plan{}, fmt.Errorf("failed to read albums manifest: %w", err)
	}

	wanted := map[string]bool{}
	for _, title := range albumTitles {
		wanted[title] = true
	}

	var targets []target
	for _, album := range albums {
		if len(albumTitles) > 0 && !wanted[album.Title] {
			continue
		}
		delete(wanted, album.Title)

		t := target{
			title:         albumTitlePrefix + album.Title,
			flickrAlbumID: album.ID,
		}
		expected := album.PhotoIDs()
		for _, id := range expected {
			item, ok := idx.Items[id]
			if !ok {
				u.logger.Warnf("Album %s references missing item %s", album.Title, id)
				continue
			}
			t.items = append(t.items, item)
		}
		sortItems(t.items)
		u.logger.Debugf("Album %s: %d of %d items present", album.Title, len(t.items), len(expected))
		targets = append(targets, t)
	}

	if len(wanted) > 0 {
		names := make([]string, 0, len(wanted))
		for title := range wanted {
			names = append(names, title)
		}
		sort.Strings(names)
		return plan{}, fmt.Errorf("albums not found in the archives: %v", names)
	}

	// Without an album filter, items outside any album go to a shared album.
	if len(albumTitles) == 0 {
		inAlbum := map[string]bool{}
		for _, album := range albums {
			for _, id := range album.PhotoIDs() {
				inAlbum[id] = true
			}
		}
		var rest []archive.Item
		for id, item := range idx.Items {
			if !inAlbum[id] {
				rest = append(rest, item)
			}
		}
		if len(rest) > 0 {
			sortItems(rest)
			targets = append(targets, target{title: defaultAlbumTitle, items: rest})
		}
	}

	return plan{targets: targets}, nil
}

func sortItems(items []archive.Item) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
}
