// Package storage manages the data directory holding downloaded media
// and persisted transcripts.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrInvalidName is returned for artifact names that could escape the
// data directory.
var ErrInvalidName = errors.New("invalid artifact name")

// ErrNotFound is returned when a requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// FileInfo describes one stored artifact.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	AgeHours float64   `json:"age_hours"`
}

// Store is a flat-directory artifact store.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the root of the store.
func (s *Store) Dir() string {
	return s.dir
}

// SaveTranscript writes the transcript under <stem>.txt and returns the
// artifact name.
func (s *Store) SaveTranscript(stem, content string) (string, error) {
	stem = strings.TrimSpace(stem)
	if stem == "" {
		stem = "transcript"
	}

	name := stem + ".txt"
	if err := validateName(name); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// Resolve maps an artifact name to its on-disk path, rejecting names
// containing path separators before any file access is attempted.
func (s *Store) Resolve(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// List returns stored artifacts, newest first.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	now := s.now()
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
			AgeHours: now.Sub(info.ModTime()).Hours(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

// Cleanup removes artifacts older than maxAge and reports how many
// were deleted.
func (s *Store) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// validateName rejects names that contain path separators or reference
// a parent directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return ErrInvalidName
	}
	return nil
}
