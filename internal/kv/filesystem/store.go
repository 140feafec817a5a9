package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/artpar/coinfav/internal/kv"
)

const fileExt = ".kv"

// Store implements kv.Store with one file per key under a base directory.
// Writes go to a temp file that is renamed over the target.
type Store struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

// New creates a filesystem store rooted at basePath.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create kv directory: %w", err)
	}

	return &Store{basePath: basePath}, nil
}

// BasePath returns the directory the store writes to.
func (s *Store) BasePath() string {
	return s.basePath
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, kv.ErrStoreClosed
	}

	b, err := os.ReadFile(s.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return b, nil
}

// Put replaces the file for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	if err := writeFile(s.keyPath(key), value, 0600); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.ErrStoreClosed
	}

	err := os.Remove(s.keyPath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.basePath, url.PathEscape(key)+fileExt)
}

// writeFile writes b to a temp file in the target directory, then renames it
// over path.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
