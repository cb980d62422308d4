package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store persists and retrieves model bundles.
type Store interface {
	Save(b *Bundle) (string, error)
	Load() (*Bundle, error)
}

// FileStore keeps a single JSON bundle on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: strings.TrimSpace(path)}
}

// Path returns the bundle location.
func (s *FileStore) Path() string { return s.path }

// Save writes the bundle to a temporary file next to the destination and
// renames it into place, so readers see either the old or the new bundle.
func (s *FileStore) Save(b *Bundle) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temporary bundle: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(b); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encoding bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing bundle: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return "", fmt.Errorf("replacing bundle: %w", err)
	}

	return s.path, nil
}

// Load reads and validates the persisted bundle.
func (s *FileStore) Load() (*Bundle, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMissingModel
		}
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	defer file.Close()

	var b Bundle
	if err := json.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrInvalidBundle, err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}
