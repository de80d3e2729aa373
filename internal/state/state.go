package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// Store persists upload progress so a multi-day run can resume after an
// interruption. An item id marked uploaded is never uploaded again.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and initializes if needed) the progress database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) init() error {
	const schema = `CREATE TABLE IF NOT EXISTS uploads (
		item_id TEXT NOT NULL PRIMARY KEY,
		media_item_id TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS albums (
		flickr_album_id TEXT NOT NULL PRIMARY KEY,
		google_album_id TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init state schema: %w", err)
	}
	return nil
}

// Close ...
func (s *Store) Close() error {
	return s.db.Close()
}

// IsUploaded reports whether the item id is already marked done.
func (s *Store) IsUploaded(itemID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM uploads WHERE item_id = $1`
	var count int
	if err := s.db.QueryRow(query, itemID).Scan(&count); err != nil {
		return false, fmt.Errorf("query upload state for %s: %w", itemID, err)
	}
	return count > 0, nil
}

// MarkUploaded records a successful upload. Safe to call twice for the same
// id: the first record wins.
func (s *Store) MarkUploaded(itemID, mediaItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	const insert = `INSERT INTO uploads (item_id, media_item_id, uploaded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id) DO NOTHING`
	if _, err := s.db.Exec(insert, itemID, mediaItemID, time.Now().Unix()); err != nil {
		return fmt.Errorf("mark %s uploaded: %w", itemID, err)
	}
	return nil
}

// UploadedCount returns how many items are marked done.
func (s *Store) UploadedCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM uploads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count uploads: %w", err)
	}
	return count, nil
}

// AlbumID returns the Google album id mapped to a Flickr album id, or ""
// when no mapping exists yet.
func (s *Store) AlbumID(flickrAlbumID string) (string, error) {
	const query = `SELECT google_album_id FROM albums WHERE flickr_album_id = $1`
	var id string
	err := s.db.QueryRow(query, flickrAlbumID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query album mapping for %s: %w", flickrAlbumID, err)
	}
	return id, nil
}

// SaveAlbumID persists the Flickr album id to Google album id mapping.
func (s *Store) SaveAlbumID(flickrAlbumID, googleAlbumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	const insert = `INSERT INTO albums (flickr_album_id, google_album_id)
		VALUES ($1, $2)
		ON CONFLICT (flickr_album_id) DO UPDATE SET google_album_id = $2`
	if _, err := s.db.Exec(insert, flickrAlbumID, googleAlbumID); err != nil {
		return fmt.Errorf("save album mapping %s: %w", flickrAlbumID, err)
	}
	return nil
}
