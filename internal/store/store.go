// Package store is the local key/value persistence layer. Values are JSON
// documents addressed by a string key and survive process restarts.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pders01/voice-schema/internal/logging"
)

// Logical keys
const (
	KeyCredential = "api-key"
	KeyIdeas      = "ideas-library"
	KeyEmbeddings = "idea-embeddings"
)

var (
	// ErrKeyNotFound is returned by Load when nothing is stored under the key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCorrupt is wrapped by Load when the stored data cannot be decoded.
	ErrCorrupt = errors.New("stored value corrupt")
)

// Store persists JSON-serializable values by key. Saves are synchronous and
// visible to the next Load in the same process.
type Store interface {
	Load(key string, dst any) error
	Save(key string, v any) error
	Close() error
}

// Read loads the value under key. An absent key or undecodable data yields
// def; any other failure is returned so callers never write over data they
// could not read.
func Read[T any](s Store, key string, def T) (T, error) {
	var v T
	err := s.Load(key, &v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrKeyNotFound):
		return def, nil
	case errors.Is(err, ErrCorrupt):
		logging.Logger.Warn("Stored value corrupt, using default", "key", key, "error", err)
		return def, nil
	default:
		return def, fmt.Errorf("load %s: %w", key, err)
	}
}

// Get is Read for read-only callers: read failures are logged and def is
// returned.
func Get[T any](s Store, key string, def T) T {
	v, err := Read(s, key, def)
	if err != nil {
		logging.Logger.Warn("Stored value unreadable, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Set stores v under key.
func Set[T any](s Store, key string, v T) error {
	return s.Save(key, v)
}

// Credential returns the stored API key, or "" when none is configured.
func Credential(s Store) string {
	return Get(s, KeyCredential, "")
}

// SetCredential stores the API key. An empty value clears it.
func SetCredential(s Store, key string) error {
	return Set(s, KeyCredential, key)
}

// Open opens the store backend named by driver at path.
func Open(driver, path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	switch driver {
	case "", "json":
		return OpenFile(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver: %s (available: json, sqlite)", driver)
	}
}
