// Package store persists accepted items as one JSON file each and reads them back.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"github.com/ppiankov/qforge/internal/model"
)

// ErrLocked is returned by Lock when another process owns the output directory
var ErrLocked = errors.New("output directory is locked by another qforge process")

const (
	lockName   = ".qforge.lock"
	filePrefix = "question_"
)

// createExclusive opens a new record file, failing if it exists. Swapped out in tests.
var createExclusive = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}

// DirStore is an append-only directory of record files
type DirStore struct {
	dir  string
	lock *flock.Flock

	mu   sync.Mutex
	next map[string]int // next file index per timestamp
}

// Open creates dir if needed
func Open(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockName)),
		next: make(map[string]int),
	}, nil
}

// Dir returns the directory the store writes to
func (s *DirStore) Dir() string {
	return s.dir
}

// Lock takes an exclusive, non-blocking lock on the directory
func (s *DirStore) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the directory lock
func (s *DirStore) Unlock() error {
	return s.lock.Unlock()
}

// Write stores rec as question_<timestamp>_<n>.json and returns the path.
// n starts at 1 for each timestamp and skips names already on disk, so
// concurrent writers and earlier runs never overwrite each other.
func (s *DirStore) Write(rec model.Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	stamp := rec.Timestamp
	if stamp == "" {
		stamp = "unknown"
	}

	for {
		path := filepath.Join(s.dir, fmt.Sprintf("%s%s_%d.json", filePrefix, stamp, s.claim(stamp)))

		f, err := createExclusive(path)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create record file: %w", err)
		}

		// A partial file would later scan as malformed
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write record file: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("close record file: %w", err)
		}
		return path, nil
	}
}

func (s *DirStore) claim(stamp string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[stamp]++
	return s.next[stamp]
}

// Entry is one record read back from disk
type Entry struct {
	Path   string
	Record model.Record
}

// Scan reads every record file in the directory, sorted by name. Files that
// do not parse are returned by path in malformed and otherwise ignored.
func (s *DirStore) Scan() (entries []Entry, malformed []string, err error) {
	paths, err := s.recordPaths()
	if err != nil {
		return nil, nil, err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			malformed = append(malformed, path)
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			malformed = append(malformed, path)
			continue
		}
		entries = append(entries, Entry{Path: path, Record: rec})
	}

	return entries, malformed, nil
}

// Provenances returns the provenance tag of every stored record that has one
func (s *DirStore) Provenances() ([]string, error) {
	entries, _, err := s.Scan()
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, e := range entries {
		if tag, _, ok := e.Record.Provenance(); ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// CountByCollection counts stored records per collection
func (s *DirStore) CountByCollection() (map[string]int, error) {
	entries, _, err := s.Scan()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, e := range entries {
		if _, collection, ok := e.Record.Provenance(); ok {
			counts[collection]++
		}
	}
	return counts, nil
}

func (s *DirStore) recordPaths() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	var paths []string
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteJSON writes v to name inside the directory, replacing any existing file
func (s *DirStore) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
