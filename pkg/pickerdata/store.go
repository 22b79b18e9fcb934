package pickerdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// DefaultStoreKey is the attribute name picker data is stored under.
const DefaultStoreKey = "PickerToolData"

// Store is the persistence substrate: a host-managed container of named
// string attributes. Implementations must tolerate keys that have never
// been written by returning the fallback.
type Store interface {
	// Get returns the value stored under key, or fallback if none exists.
	Get(key, fallback string) (string, error)

	// Set writes the value stored under key.
	Set(key, value string) error
}

// MemStore is an in-memory Store, safe for concurrent use. It stands in for
// the host scene attribute in tests and embedding without a host.
type MemStore struct {
	mu    sync.Mutex
	attrs map[string]string
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{attrs: make(map[string]string)}
}

// Get implements [Store].
func (s *MemStore) Get(key, fallback string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.attrs[key]
	if !ok {
		return fallback, nil
	}

	return v, nil
}

// Set implements [Store].
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs[key] = value

	return nil
}

// FileStore persists each attribute as a JSON file under a directory.
// Writes are atomic (write to temp file, rename), so a crash mid-write
// never leaves a torn document behind.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("new file store: %w", errEmptyPath)
	}

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("new file store: %w", err)
	}

	return &FileStore{dir: filepath.Clean(dir)}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get implements [Store]. A missing file yields the fallback.
func (s *FileStore) Get(key, fallback string) (string, error) {
	raw, err := os.ReadFile(s.path(key)) //nolint:gosec // path is constructed from the store dir
	if err != nil {
		if os.IsNotExist(err) {
			return fallback, nil
		}

		return "", fmt.Errorf("read store attribute %q: %w", key, err)
	}

	return string(raw), nil
}

// Set implements [Store].
func (s *FileStore) Set(key, value string) error {
	err := atomic.WriteFile(s.path(key), strings.NewReader(value))
	if err != nil {
		return fmt.Errorf("write store attribute %q: %w", key, err)
	}

	return nil
}
