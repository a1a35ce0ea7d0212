// Package prefs persists small string preferences between sessions.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("prefs: unknown backend")

// Store is a string key/value store. Get never fails; an unreadable or
// missing value yields def.
type Store interface {
	Get(key, def string) string
	Set(key, value string) error
	Delete(key string) error
	All() (map[string]string, error)
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	Path    string
	Logger  *zap.Logger
}

// DefaultPath is where the given backend stores data when Config.Path is
// empty.
func DefaultPath(backend string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	name := "prefs.json"
	if backend == BackendSQLite {
		name = "prefs.db"
	}
	return filepath.Join(dir, "runreport", name)
}

// Open returns the configured backend. An empty backend means file.
func Open(cfg Config) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}
	path := cfg.Path
	if path == "" && backend != BackendMemory {
		path = DefaultPath(backend)
	}
	switch backend {
	case BackendFile:
		return OpenFile(path, cfg.Logger)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Keys returns the stored keys in sorted order.
func Keys(s Store) ([]string, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(key, def string) string {
	if value, ok := m.values[key]; ok {
		return value
	}
	return def
}

func (m *MemoryStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) All() (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for key, value := range m.values {
		out[key] = value
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
