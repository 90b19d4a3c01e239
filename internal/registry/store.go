package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSnapshot is returned by Store.Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no registry snapshot")

// Store persists a registry between the two ingestion passes
type Store interface {
	Save(r *Registry) error
	Load() (*Registry, error)
	Path() string
	Close() error
}

// NewStore picks a store by file extension: .db and .bolt use bbolt,
// anything else a JSON document.
func NewStore(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".bolt":
		return OpenBoltStore(path)
	default:
		return NewFileStore(path), nil
	}
}

// FileStore keeps the registry as an indented JSON document
type FileStore struct {
	path string
}

// NewFileStore creates a JSON store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot location
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the snapshot to a temp file and renames it into place
func (s *FileStore) Save(r *Registry) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create registry temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close registry temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}
	return nil
}

// Load reads the snapshot back
func (s *FileStore) Load() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoSnapshot, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	r := New()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Close is a no-op
func (s *FileStore) Close() error {
	return nil
}
