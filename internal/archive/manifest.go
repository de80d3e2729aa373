package archive

import (
	"encoding/json"
	"fmt"
)

// Album is one entry of the albums.json manifest. Flickr encodes counts as
// strings; they are kept as-is and the Photos slice is the source of truth.
type Album struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PhotoCount  string   `json:"photo_count"`
	Photos      []string `json:"photos"`
}

// PhotoIDs returns the album's photo ids without the "0" placeholders Flickr
// leaves behind for deleted photos.
func (a Album) PhotoIDs() []string {
	ids := make([]string, 0, len(a.Photos))
	for _, id := range a.Photos {
		if id != "" && id != "0" {
			ids = append(ids, id)
		}
	}
	return ids
}

// PhotoInfo is the metadata stored in a photo_<id>.json file.
type PhotoInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DateTaken   string `json:"date_taken"`
	Original    string `json:"original"`
	Privacy     string `json:"privacy"`
}

type albumsManifest struct {
	Albums []Album `json:"albums"`
}

// Albums parses the albums.json manifest. Returns nil without error when the
// archive set has no albums manifest.
func (idx *Index) Albums() ([]Album, error) {
	if idx.AlbumsFile == nil {
		return nil, nil
	}
	r, err := idx.Open(*idx.AlbumsFile)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck

	var manifest albumsManifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parse albums.json: %w", err)
	}
	return manifest.Albums, nil
}

// PhotoInfoByID parses the photo_<id>.json metadata for one item.
func (idx *Index) PhotoInfoByID(id string) (PhotoInfo, error) {
	file, ok := idx.Infos[id]
	if !ok {
		return PhotoInfo{}, fmt.Errorf("no metadata for photo id %s", id)
	}
	r, err := idx.Open(file)
	if err != nil {
		return PhotoInfo{}, err
	}
	defer r.Close() //nolint:errcheck

	var info PhotoInfo
	if err := json.NewDecoder(r).Decode(&info); err != nil {
		return PhotoInfo{}, fmt.Errorf("parse %s: %w", file, err)
	}
	return info, nil
}
