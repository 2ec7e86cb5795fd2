package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store persists fetched videos in a single-file SQLite database. Every
// logical operation opens and closes its own connection, so concurrent bulk
// workers never share a handle; write conflicts on the same ID resolve to
// "first successful insert wins".
type Store struct {
	Path string
}

// NewStore creates a store for the given database path. The file is created
// lazily on first write.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// CachedVideo is one persisted row. Its presence is the sole source of truth
// for "already fetched": rows are never updated in place, only inserted and
// deleted.
type CachedVideo struct {
	VideoID       string `json:"video_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	LengthSeconds int64  `json:"length_seconds"`
	Transcript    string `json:"transcript,omitempty"`
	ViewCount     string `json:"view_count,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
	DateAdded     string `json:"date_added,omitempty"`
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.Path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", s.Path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	return db, nil
}

// Init creates the schema if missing and applies column migrations for
// databases written by older versions. Safe to call repeatedly.
func (s *Store) Init(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return initSchema(ctx, db)
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS videos (
		video_id       TEXT PRIMARY KEY,
		title          TEXT,
		author         TEXT,
		length_seconds INTEGER,
		transcript     TEXT,
		view_count     TEXT,
		published_at   TEXT,
		date_added     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	// migrations for pre-existing databases; duplicate-column errors expected
	for _, col := range []string{
		"ALTER TABLE videos ADD COLUMN view_count TEXT",
		"ALTER TABLE videos ADD COLUMN published_at TEXT",
		"ALTER TABLE videos ADD COLUMN date_added DATETIME DEFAULT CURRENT_TIMESTAMP",
	} {
		_, _ = db.ExecContext(ctx, col)
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`)
	if err != nil {
		return fmt.Errorf("store: init settings: %w", err)
	}
	return nil
}

// Get returns the cached row for a video ID, or nil when absent.
func (s *Store) Get(ctx context.Context, videoID string) (*CachedVideo, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	row := db.QueryRowContext(ctx, `SELECT video_id, title, author, length_seconds, transcript,
		COALESCE(view_count, ''), COALESCE(published_at, ''), COALESCE(date_added, '')
		FROM videos WHERE video_id = ?`, videoID)

	var v CachedVideo
	err = row.Scan(&v.VideoID, &v.Title, &v.Author, &v.LengthSeconds, &v.Transcript,
		&v.ViewCount, &v.PublishedAt, &v.DateAdded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get %s: %w", videoID, err)
	}
	return &v, nil
}

// Insert adds a row unless the ID already exists. Later writes for the same
// ID are no-ops: the first successful insert wins.
func (s *Store) Insert(ctx context.Context, v CachedVideo) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO videos
		(video_id, title, author, length_seconds, transcript, view_count, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO NOTHING`,
		v.VideoID, v.Title, v.Author, v.LengthSeconds, v.Transcript, v.ViewCount, v.PublishedAt)
	if err != nil {
		return fmt.Errorf("store: insert %s: %w", v.VideoID, err)
	}
	return nil
}

// Exists reports whether a row for the video ID is present. Pure lookup, no
// network.
func (s *Store) Exists(ctx context.Context, videoID string) (bool, error) {
	db, err := s.open()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM videos WHERE video_id = ?", videoID).Scan(&one)
	if err == sql.ErrNoRows || isMissingTable(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: exists %s: %w", videoID, err)
	}
	return true, nil
}

// Delete removes a row by ID. Deleting a non-existent ID is not an error.
func (s *Store) Delete(ctx context.Context, videoID string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "DELETE FROM videos WHERE video_id = ?", videoID)
	if err != nil {
		if isMissingTable(err) {
			return nil
		}
		return fmt.Errorf("store: delete %s: %w", videoID, err)
	}
	return nil
}

// List returns all cached rows, most recently inserted first, without the
// transcript bodies.
func (s *Store) List(ctx context.Context) ([]CachedVideo, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT video_id, title, author, length_seconds,
		COALESCE(view_count, ''), COALESCE(published_at, ''), COALESCE(date_added, '')
		FROM videos ORDER BY date_added DESC, rowid DESC`)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []CachedVideo
	for rows.Next() {
		var v CachedVideo
		if err := rows.Scan(&v.VideoID, &v.Title, &v.Author, &v.LengthSeconds,
			&v.ViewCount, &v.PublishedAt, &v.DateAdded); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Count returns the number of cached rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int64
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&n)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Vacuum reclaims space after bulk deletions.
func (s *Store) Vacuum(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, "VACUUM")
	return err
}

// GetSetting returns the value for a settings key, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()

	var v string
	err = db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows || isMissingTable(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get setting %s: %w", key, err)
	}
	return v, nil
}

// SetSetting upserts a settings key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("store: set setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a settings key; idempotent.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key)
	if err != nil && !isMissingTable(err) {
		return fmt.Errorf("store: delete setting %s: %w", key, err)
	}
	return nil
}

// isMissingTable detects reads against a database that was never initialized;
// those are treated as empty, matching the create-on-first-write behavior.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
