package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/shelfmate/core/internal/ports"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStorage keeps each key in its own JSON file under a directory. Writes
// go to a temp file first and are renamed into place.
type FileStorage struct {
	fs  afero.Fs
	dir string
}

// NewFileStorage creates the directory if needed. Pass afero.NewOsFs() for
// the real filesystem.
func NewFileStorage(fs afero.Fs, dir string) (*FileStorage, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	return &FileStorage{fs: fs, dir: dir}, nil
}

func (f *FileStorage) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", p, err)
	}
	return data, nil
}

func (f *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, value, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", tmp, err)
	}
	if err := f.fs.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename %q: %w", tmp, err)
	}
	return nil
}

func (f *FileStorage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := f.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", p, err)
	}
	return nil
}

// Ping verifies the storage directory is still there
func (f *FileStorage) Ping(context.Context) error {
	info, err := f.fs.Stat(f.dir)
	if err != nil {
		return fmt.Errorf("stat storage dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %q is not a directory", f.dir)
	}
	return nil
}

func (f *FileStorage) Close() error { return nil }
