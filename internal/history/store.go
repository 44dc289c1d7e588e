package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"jwbindex/internal/services"
)

// Entry is one recorded download.
type Entry struct {
	Filename     string    `json:"filename"`
	URL          string    `json:"url"`
	MD5          string    `json:"md5,omitempty"`
	Size         int64     `json:"size"`
	Category     string    `json:"category,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Store manages download history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "database path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps PRAGMAs in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts or replaces the entry for e.Filename.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Filename) == "" {
		return services.Wrap(services.ErrValidation, "history", "record", "filename required", nil)
	}
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (filename, url, md5, size, category, downloaded_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(filename) DO UPDATE SET
            url = excluded.url,
            md5 = excluded.md5,
            size = excluded.size,
            category = excluded.category,
            downloaded_at = excluded.downloaded_at`,
		e.Filename, e.URL, e.MD5, e.Size, e.Category, e.DownloadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record download %s: %w", e.Filename, err)
	}
	return nil
}

// Lookup returns the entry for filename. The boolean is false when none exists.
func (s *Store) Lookup(ctx context.Context, filename string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT filename, url, md5, size, category, downloaded_at FROM downloads WHERE filename = ?`,
		filename,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", filename, err)
	}
	return entry, true, nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, url, md5, size, category, downloaded_at FROM downloads
         ORDER BY downloaded_at DESC, filename ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Remove deletes the entry for filename. Removing an unknown filename returns
// an error matching services.ErrNotFound.
func (s *Store) Remove(ctx context.Context, filename string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove %s: %w", filename, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "history", "remove", filename+" not recorded", nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry     Entry
		timestamp string
	)
	if err := row.Scan(&entry.Filename, &entry.URL, &entry.MD5, &entry.Size, &entry.Category, &timestamp); err != nil {
		return Entry{}, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		entry.DownloadedAt = parsed
	}
	return entry, nil
}
