package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nikolayk812/tourcart/internal/port"
)

// fileStore keeps one JSON file per namespace under a profile directory.
type fileStore struct {
	dir string
}

func NewFileStore(dir string) (port.CartStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(namespace string) string {
	return filepath.Join(s.dir, url.PathEscape(namespace)+".json")
}

func (s *fileStore) Get(ctx context.Context, namespace string) ([]byte, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(s.path(namespace))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}

	return payload, nil
}

// Set replaces the file atomically so a crash never leaves half a cart behind.
func (s *fileStore) Set(ctx context.Context, namespace string, payload []byte) (err error) {
	if namespace == "" {
		return fmt.Errorf("namespace is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.Write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.Sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.path(namespace)); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}
