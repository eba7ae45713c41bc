// Package store implements the object store: a concurrent flat mapping
// from path to byte blob, backed by an in-memory afero filesystem.
package store

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/spf13/afero"
)

// Status is the outcome of a store operation.
type Status int

// Possible outcomes of a store operation.
const (
	Success Status = iota
	AlreadyExists
	FileNotFound
	Other
)

// Error wraps a store failure with its Status classification.
type Error struct {
	Status Status
	Path   string
	err    error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("store: %s: %v", e.Path, e.err)
	}

	return fmt.Sprintf("store: %s", e.Path)
}

func (e *Error) Unwrap() error { return e.err }

func newError(status Status, p string, err error) *Error {
	return &Error{Status: status, Path: p, err: err}
}

// Store is the concurrent path -> bytes mapping. Reads (Get, List) may
// run concurrently with one another; Add and Remove are mutually
// exclusive with everything else. Keys are opaque, flat strings:
// "/a/b" and "a/b" are distinct keys compared byte-for-byte, the
// trailing filesystem layout used to hold them is an implementation
// detail, not a directory hierarchy exposed to callers.
type Store struct {
	mu sync.RWMutex
	fs afero.Fs
}

// New creates an empty, in-memory object store.
func New() *Store {
	return &Store{fs: afero.NewMemMapFs()}
}

func normalize(key string) string {
	if key == "" {
		return "/_"
	}

	if key[0] != '/' {
		return "/" + key
	}

	return key
}

// Add creates path with the given bytes. It fails with an AlreadyExists
// Error if path is already present; it does not overwrite.
func (s *Store) Add(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := normalize(key)

	if exists, err := afero.Exists(s.fs, p); err != nil {
		return newError(Other, key, err)
	} else if exists {
		return newError(AlreadyExists, key, nil)
	}

	if dir := path.Dir(p); dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return newError(Other, key, err)
		}
	}

	if err := afero.WriteFile(s.fs, p, data, 0o600); err != nil {
		return newError(Other, key, err)
	}

	return nil
}

// Get returns a stable snapshot of the bytes stored at path.
func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := s.fs.Open(normalize(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newError(FileNotFound, key, nil)
		}

		return nil, newError(Other, key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, newError(Other, key, err)
	}

	// Defensive copy: a concurrent Add of a different key must never be
	// able to invalidate bytes already handed back to a caller.
	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

// Remove deletes path. It fails with FileNotFound if absent.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := normalize(key)

	if exists, err := afero.Exists(s.fs, p); err != nil {
		return newError(Other, key, err)
	} else if !exists {
		return newError(FileNotFound, key, nil)
	}

	if err := s.fs.Remove(p); err != nil {
		return newError(Other, key, err)
	}

	return nil
}

// List returns a snapshot of every path currently stored, sorted
// lexicographically (a walk of the backing in-memory filesystem).
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string

	_ = afero.Walk(s.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}

		keys = append(keys, p)

		return nil
	})

	// Deterministic order isn't part of the contract, but a stable one
	// makes test failures reproducible.
	sort.Strings(keys)

	return keys
}
