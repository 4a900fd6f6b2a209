package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
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

func (fp FileFingerprint) modTime() string {
	return fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// SourceInfo describes one loaded input.
type SourceInfo struct {
	Source  string
	Size    int64
	ModTime string
	Records int64
}

// Loaded reports whether the file described by fp was loaded before and
// has not changed since.
func (s *Store) Loaded(fp FileFingerprint) (bool, error) {
	var size int64
	var modTime string
	err := s.db.QueryRow(`SELECT size, mod_time FROM sources WHERE source=?`, fp.Path).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source: %w", err)
	}
	return size == fp.Size && modTime == fp.modTime(), nil
}

// DeleteSource removes all rows loaded from source.
func (s *Store) DeleteSource(source string) error {
	for _, table := range dataTables {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE source=?", source); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

// recordSource upserts the sources row after a load.
func (s *Store) recordSource(fp FileFingerprint, records int64) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sources VALUES (?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.modTime(), records)
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// Sources lists the loaded inputs ordered by path.
func (s *Store) Sources() ([]SourceInfo, error) {
	rows, err := s.db.Query(`SELECT source, size, mod_time, records FROM sources ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []SourceInfo
	for rows.Next() {
		var si SourceInfo
		if err := rows.Scan(&si.Source, &si.Size, &si.ModTime, &si.Records); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// Field returns one sub-value of a structured meta-information line, e.g.
// Field(source, "INFO", "DP", "Description").
func (s *Store) Field(source, name, id, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE source=? AND name=? AND id=? AND key=?`,
		source, name, id, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query metadata: %w", err)
	}
	return value, true, nil
}

// Samples returns the sample identifiers of source in header order.
func (s *Store) Samples(source string) ([]string, error) {
	rows, err := s.db.Query(`SELECT sample_id FROM samples WHERE source=? ORDER BY idx`, source)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}
