package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
)

// FileStorage keeps one file per key inside a directory. Keys are hex encoded
// so any key maps to a valid file name.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewError("open", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+".json")
}

func (f *FileStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewError("get", key, err)
	}
	return string(data), true, nil
}

// SetItem writes to a temp file and renames it over the target so readers
// never see a partial value.
func (f *FileStorage) SetItem(_ context.Context, key, value string) error {
	target := f.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return NewError("set", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return NewError("set", key, err)
	}
	return nil
}

func (f *FileStorage) RemoveItem(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewError("remove", key, err)
	}
	return nil
}
