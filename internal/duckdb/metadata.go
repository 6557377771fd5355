package duckdb

import (
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for an input file.
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
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// Matches reports whether the file on disk still has this fingerprint.
func (f FileFingerprint) Matches() bool {
	now, err := StatFile(f.Path)
	return err == nil && now.Size == f.Size && now.ModTime.Equal(f.ModTime)
}
