// Package store provides spacing.Store backends.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/barspacing/internal/spacing"
)

// document is the on-disk layout of the TOML store.
type document struct {
	Version int            `toml:"version"`
	Values  map[string]int `toml:"values"`
}

// TOML stores settings in a TOML file. It is the backend used on hosts
// without a system defaults database, and by tests.
type TOML struct {
	path   string
	mu     sync.Mutex
	doc    *document
	loaded bool
}

var _ spacing.Store = (*TOML)(nil)

// NewTOML creates a TOML-backed store. The file is read on first use.
func NewTOML(path string) *TOML {
	if path == "" {
		path = "spacing.toml"
	}
	return &TOML{
		path: path,
		doc:  &document{Version: 1, Values: make(map[string]int)},
	}
}

// Path returns the backing file path.
func (s *TOML) Path() string {
	return s.path
}

// Load reads the file. A missing file is an empty store.
func (s *TOML) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load must be called with the lock held.
func (s *TOML) load() error {
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read spacing store: %w", err)
	}

	doc := &document{}
	if unmarshalErr := toml.Unmarshal(data, doc); unmarshalErr != nil {
		return fmt.Errorf("failed to parse spacing store: %w", unmarshalErr)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]int)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	s.doc = doc
	return nil
}

// save must be called with the lock held.
func (s *TOML) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := toml.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to marshal spacing store: %w", err)
	}

	if writeErr := os.WriteFile(s.path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write spacing store: %w", writeErr)
	}
	return nil
}

func (s *TOML) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	return s.load()
}

// Write sets key to value and saves the file.
func (s *TOML) Write(_ context.Context, key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.doc.Values[key] = value
	return s.save()
}

// Remove deletes key and saves the file. Removing an absent key is not an error.
func (s *TOML) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	delete(s.doc.Values, key)
	return s.save()
}

// Read returns the stored value for key.
func (s *TOML) Read(key string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return 0, false, err
	}
	value, ok := s.doc.Values[key]
	return value, ok, nil
}
