package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const fileFormatVersion = 1

type fileDocument struct {
	Version    int               `json:"version"`
	Validators map[string]string `json:"validators"`
}

// FileStore is a ValidatorStore persisted as a JSON file.
type FileStore struct {
	fs   afero.Fs
	path string

	mu      sync.RWMutex
	entries map[string]string
}

// NewFileStore opens the store at path, loading any existing document.
// A missing file is an empty store; it is created on the first Put.
func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	s := &FileStore{
		fs:      fs,
		path:    path,
		entries: make(map[string]string),
	}

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading validator file: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing validator file %s: %w", path, err)
	}
	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("validator file %s: unsupported version %d", path, doc.Version)
	}
	for k, v := range doc.Validators {
		s.entries[k] = v
	}

	return s, nil
}

// Get returns the validator stored under fingerprint.
func (s *FileStore) Get(_ context.Context, fingerprint string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[fingerprint]
	return v, ok, nil
}

// Put stores validator and flushes the document. An unchanged value does
// not touch the file.
func (s *FileStore) Put(_ context.Context, fingerprint, validator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[fingerprint]; ok && old == validator {
		return nil
	}
	s.entries[fingerprint] = validator

	return s.flushLocked()
}

// Len returns the number of stored validators.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// flushLocked writes to a temp file and renames it over the document so a
// crash never leaves a truncated file behind.
func (s *FileStore) flushLocked() error {
	data, err := json.Marshal(fileDocument{
		Version:    fileFormatVersion,
		Validators: s.entries,
	})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating validator dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing validator file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing validator file: %w", err)
	}
	return nil
}
