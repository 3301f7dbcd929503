package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

var _ Slot = (*FileSlot)(nil)

// FileSlot stores each key as a file in a directory. Writes go through a
// temporary file and a rename, so a reader sees either the old or the new value.
type FileSlot struct {
	dir string
}

// NewFileSlot creates a FileSlot rooted at dir, creating the directory when needed.
func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create slot directory: %w", err)
	}
	return &FileSlot{dir: dir}, nil
}

// path maps a key such as "@RocketShoes:cart" to a safe file name.
func (s *FileSlot) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileSlot) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSlotEmpty
		}
		return nil, err
	}
	return data, nil
}

func (s *FileSlot) Write(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".slot-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}
