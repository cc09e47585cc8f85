package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileBackend keeps one <slot>.json file per slot in a directory.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend uses dir, creating it as needed. dir must already be
// expanded; config.Load resolves ~ in state_dir.
func NewFileBackend(dir string) (*FileBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("state dir is empty")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the resolved state directory.
func (f *FileBackend) Dir() string {
	return f.dir
}

func (f *FileBackend) Load(_ context.Context, slot string) ([]byte, error) {
	path, err := f.path(slot)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("read slot: %w", err)
	}
	return blob, nil
}

// Save writes to a temp file and renames it so a crash never leaves a
// truncated slot behind.
func (f *FileBackend) Save(_ context.Context, slot string, blob []byte) error {
	path, err := f.path(slot)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := os.CreateTemp(f.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot: %w", err)
	}
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write slot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

func (f *FileBackend) Delete(_ context.Context, slot string) error {
	path, err := f.path(slot)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) path(slot string) (string, error) {
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return "", fmt.Errorf("invalid slot name %q", slot)
	}
	return filepath.Join(f.dir, slot+".json"), nil
}
