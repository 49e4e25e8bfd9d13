package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a source file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Fresh reports whether table was last loaded from a file matching fp.
func (s *Store) Fresh(table string, fp FileFingerprint) (bool, error) {
	var (
		path    string
		size    int64
		modTime int64
	)
	err := s.db.QueryRow("SELECT path, size, mod_time FROM sources WHERE table_name = ?", table).
		Scan(&path, &size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source: %w", err)
	}
	return path == fp.Path && size == fp.Size && modTime == fp.ModTime.UnixNano(), nil
}

// MarkLoaded records fp as the source of table.
func (s *Store) MarkLoaded(table string, fp FileFingerprint) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO sources VALUES (?, ?, ?, ?)",
		table, fp.Path, fp.Size, fp.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}
