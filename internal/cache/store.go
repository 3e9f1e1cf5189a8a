// Package cache persists stage outputs on disk so a repeated run with the
// same basename skips work already done.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/flock"
	"voice-qa-go/internal/logger"
)

// Store keeps one JSON file per (key, stage) under dir.
type Store struct {
	dir string
	log *logger.Logger
}

// New creates dir if needed.
func New(dir string, log *logger.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Store{dir: dir, log: log.WithComponent("cache")}, nil
}

// Dir is the cache root.
func (s *Store) Dir() string { return s.dir }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *Store) path(stage, key string) string {
	name := unsafeChars.ReplaceAllString(key, "_") + "." + unsafeChars.ReplaceAllString(stage, "_") + ".json"
	return filepath.Join(s.dir, name)
}

// Get loads the entry into v. A missing or unreadable entry is a miss.
func (s *Store) Get(stage, key string, v any) (bool, error) {
	path := s.path(stage, key)
	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return false, fmt.Errorf("cache: lock %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.WithError(err).WithField("entry", filepath.Base(path)).Warn("corrupt cache entry ignored")
		return false, nil
	}
	return true, nil
}

// Put stores v, replacing any earlier entry atomically.
func (s *Store) Put(stage, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	path := s.path(stage, key)
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("cache: lock %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: rename: %w", err)
	}
	s.log.WithField("entry", filepath.Base(path)).Debug("cache entry written")
	return nil
}

// Purge deletes every entry stored for key and returns how many entries
// were removed. Entries of other keys sharing the prefix are kept.
func (s *Store) Purge(key string) (int, error) {
	prefix := unsafeChars.ReplaceAllString(key, "_") + "."
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("cache: list: %w", err)
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		lockFile := strings.HasSuffix(rest, ".json.lock")
		stage := strings.TrimSuffix(strings.TrimSuffix(rest, ".lock"), ".json")
		if stage == "" || stage == rest || strings.Contains(stage, ".") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("cache: remove %s: %w", name, err)
		}
		if !lockFile {
			removed++
		}
	}
	s.log.WithField("key", key).WithField("removed", removed).Debug("cache entries purged")
	return removed, nil
}
