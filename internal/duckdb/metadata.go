package duckdb

import (
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

// SourceFile records one annotation file ingested by a merge.
type SourceFile struct {
	FileFingerprint
	Label string
	Rows  int
}

// WriteSources replaces the recorded source files.
func (s *Store) WriteSources(sources []SourceFile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + SourcesTable); err != nil {
		return fmt.Errorf("clear source files: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO " + SourcesTable + " VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, src := range sources {
		if _, err := stmt.Exec(src.Path, src.Label, int64(src.Rows), src.Size, src.ModTime); err != nil {
			return fmt.Errorf("insert source file %s: %w", src.Path, err)
		}
	}
	return tx.Commit()
}

// Sources returns the recorded source files ordered by path.
func (s *Store) Sources() ([]SourceFile, error) {
	rows, err := s.db.Query("SELECT path, sample_label, row_count, size, mod_time FROM " + SourcesTable + " ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query source files: %w", err)
	}
	defer rows.Close()

	var sources []SourceFile
	for rows.Next() {
		var src SourceFile
		var n int64
		if err := rows.Scan(&src.Path, &src.Label, &n, &src.Size, &src.ModTime); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		src.Rows = int(n)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source files: %w", err)
	}
	return sources, nil
}
