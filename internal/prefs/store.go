// Package prefs persists the small amount of client-local state that
// survives restarts: last-used mode plus the presentation settings (theme,
// colour lock, palette index) that the core only carries through.
//
// The state is a flat key/value YAML document. Keys the core does not know
// about are preserved on save.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/abacus/internal/errors"
	"gopkg.in/yaml.v3"
)

// Well known keys.
const (
	KeyTheme      = "theme"
	KeyMode       = "mode"
	KeyColorLock  = "color_lock"
	KeyColorIndex = "color_index"
)

// Store is a file backed key/value store. It is safe for concurrent use.
type Store struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Open loads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: expanded, values: make(map[string]string)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	return &Store{values: make(map[string]string)}
}

// Path returns the backing file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.saveLocked()
}

// All returns a copy of every stored value.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Mode implements mode.Store.
func (s *Store) Mode() (string, bool) {
	return s.Get(KeyMode)
}

// SetMode implements mode.Store.
func (s *Store) SetMode(value string) error {
	return s.Set(KeyMode, value)
}

// Reload re-reads the backing file, discarding in-memory values.
func (s *Store) Reload() error {
	return s.load()
}

func (s *Store) load() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "read preferences", err).
			WithContext("path", s.path)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "parse preferences", err).
			WithContext("path", s.path)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// saveLocked writes the file via a temporary file and rename so a watcher
// never sees a half written document. Callers hold s.mu.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(s.values)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInternalError, "encode preferences", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "create preferences directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*.yml")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStorage, "write preferences", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStorage, "write preferences", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStorage, "write preferences", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.NewIOError(errors.ErrCodeStorage, "replace preferences", err)
	}
	return nil
}
