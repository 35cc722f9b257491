package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem is the storage generated sources are written to. Names are
// slash separated and relative to the module root.
type Filesystem interface {
	ReadFile(name string) ([]byte, error)
	// WriteFile creates missing parent directories.
	WriteFile(name string, data []byte) error
	Remove(name string) error
	RemoveAll(name string) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// OSFilesystem is rooted at a module directory on disk.
type OSFilesystem struct {
	Root string
}

var _ Filesystem = OSFilesystem{}

func NewOSFilesystem(root string) OSFilesystem {
	return OSFilesystem{Root: root}
}

func (f OSFilesystem) path(name string) string {
	return filepath.Join(f.Root, filepath.FromSlash(name))
}

func (f OSFilesystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(f.path(name))
}

func (f OSFilesystem) WriteFile(name string, data []byte) error {
	full := f.path(name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", name, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}
	return nil
}

func (f OSFilesystem) Remove(name string) error {
	err := os.Remove(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f OSFilesystem) RemoveAll(name string) error {
	return os.RemoveAll(f.path(name))
}

func (f OSFilesystem) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(f.path(name))
}
