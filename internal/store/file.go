package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pders01/voice-schema/internal/logging"
)

// FileStore keeps every key in a single JSON document on disk. The document
// is re-read whenever another process has replaced it since the last access.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage

	// identity of the file data was read from
	modTime time.Time
	size    int64
}

// OpenFile loads the document at path. A missing file starts empty; a
// corrupt file is logged and treated as empty until the next Save rewrites it.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: map[string]json.RawMessage{}}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// reloadLocked re-reads the document when the file on disk differs from the
// one last read or written.
func (s *FileStore) reloadLocked() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if !s.modTime.IsZero() {
			s.data = map[string]json.RawMessage{}
			s.modTime, s.size = time.Time{}, 0
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat store file: %w", err)
	}
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}

	data := map[string]json.RawMessage{}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &data); err != nil {
			logging.Logger.Warn("Store file corrupt, starting empty", "path", s.path, "error", err)
			data = map[string]json.RawMessage{}
		}
	}

	s.data = data
	s.modTime, s.size = info.ModTime(), info.Size()
	return nil
}

// Load decodes the value under key into dst.
func (s *FileStore) Load(key string, dst any) error {
	s.mu.Lock()
	if err := s.reloadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	raw, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return ErrKeyNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w: %w", key, ErrCorrupt, err)
	}
	return nil
}

// Save encodes v under key and rewrites the document. The in-memory copy
// only changes once the new document is on disk.
func (s *FileStore) Save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(); err != nil {
		return err
	}

	next := maps.Clone(s.data)
	next[key] = raw
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

// Close is a no-op; every Save is already on disk.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) writeLocked(data map[string]json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode store: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("stat store file: %w", err)
	}
	s.modTime, s.size = info.ModTime(), info.Size()
	return nil
}
