package adapter

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agenthub/core"
)

// Store abstracts the byte storage behind the file adapters so tests and
// prototypes can run without touching the filesystem.
type Store interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	List() ([]string, error)
}

// MemStore keeps files in a process-local map. Data is copied on write and
// read so callers cannot mutate internal buffers.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// Write stores (or overwrites) the named file.
func (s *MemStore) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.files[name] = cp
	return nil
}

// Read returns a copy of the named file or a permanent error if absent.
func (s *MemStore) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[name]
	if !ok {
		return nil, core.NewPermanentError("file not found: "+name, nil)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the stored names sorted lexicographically.
func (s *MemStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DirStore persists files under a base directory. Names are confined to the
// base; path traversal attempts are rejected.
type DirStore struct {
	base string
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates the base directory if needed.
func NewDirStore(base string) (*DirStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, core.NewPermanentError("creating base directory", err)
	}
	return &DirStore{base: base}, nil
}

// Write stores the named file under the base directory.
func (s *DirStore) Write(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.NewTransientError("writing file", err)
	}
	return nil
}

// Read returns the named file's content.
func (s *DirStore) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewPermanentError("file not found: "+name, err)
		}
		return nil, core.NewTransientError("reading file", err)
	}
	return data, nil
}

// List returns the file names in the base directory.
func (s *DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, core.NewTransientError("listing files", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirStore) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") || filepath.IsAbs(clean) {
		return "", core.NewPermanentError("file name escapes the base directory: "+name, nil)
	}
	return filepath.Join(s.base, clean), nil
}
