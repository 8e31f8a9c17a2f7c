package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const dirPerm = 0o755

// Store is the durable, process-wide cache of remote repositories. A single
// Store is constructed at startup and handed to every component that reads or
// writes cache entries.
type Store interface {
	// Path returns the absolute filesystem path for the given segments
	// joined under the store root. Does not create or verify the path.
	Path(segments ...string) string
	// Exists reports whether the path at the given segments exists.
	Exists(segments ...string) (bool, error)
	// EnsureDir creates the directory at segments (starting at store root),
	// including parents.
	EnsureDir(segments ...string) error
	// Remove deletes the entire tree at segments.
	Remove(segments ...string) error
	// Lock acquires the mutual-exclusion domain for key and returns the
	// function that releases it. Callers lock one key per cache entry.
	Lock(key string) (unlock func())
}

// New returns a store rooted at root, typically the configured cache_dir.
func New(root string) Store {
	return &store{root: root, locks: make(map[string]*sync.Mutex)}
}

type store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ Store = &store{}

func (s *store) Path(segments ...string) string {
	return filepath.Join(append([]string{s.root}, segments...)...)
}

func (s *store) Exists(segments ...string) (bool, error) {
	_, err := os.Stat(s.Path(segments...))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *store) EnsureDir(segments ...string) error {
	path := s.Path(segments...)
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func (s *store) Remove(segments ...string) error {
	path := s.Path(segments...)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (s *store) Lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
