// Package configstore reads and writes module configuration documents.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tailbits/apiforge/confdoc"
)

// Store persists one configuration document per module path.
type Store interface {
	Read(ctx context.Context, modulePath string) (*confdoc.Map, error)
	Write(ctx context.Context, modulePath string, doc *confdoc.Map) error
}

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FileStore keeps the document at <modulePath>/config/module.config.<ext>.
type FileStore struct {
	Format Format
}

var _ Store = (*FileStore)(nil)

func NewFileStore(format Format) *FileStore {
	if format == "" {
		format = FormatYAML
	}
	return &FileStore{Format: format}
}

// Path returns the configuration file of a module.
func (s *FileStore) Path(modulePath string) string {
	return filepath.Join(modulePath, "config", "module.config."+string(s.Format))
}

// Read returns an empty document when the file does not exist yet.
func (s *FileStore) Read(ctx context.Context, modulePath string) (*confdoc.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path(modulePath))
	if errors.Is(err, os.ErrNotExist) {
		return confdoc.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open module config: %w", err)
	}
	defer f.Close()

	switch s.Format {
	case FormatJSON:
		return confdoc.DecodeJSON(f)
	case FormatYAML:
		return confdoc.DecodeYAML(f)
	}
	return nil, fmt.Errorf("unsupported config format %q", s.Format)
}

// Write replaces the file atomically through a temporary sibling.
func (s *FileStore) Write(ctx context.Context, modulePath string, doc *confdoc.Map) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(modulePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".module.config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.encode(tmp, doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode module config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace module config: %w", err)
	}
	return nil
}

func (s *FileStore) encode(w io.Writer, doc *confdoc.Map) error {
	switch s.Format {
	case FormatJSON:
		return confdoc.EncodeJSON(w, doc)
	case FormatYAML:
		return confdoc.EncodeYAML(w, doc)
	}
	return fmt.Errorf("unsupported config format %q", s.Format)
}

// MemoryStore keeps documents in memory. Reads and writes copy, so callers
// never share a tree with the store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]*confdoc.Map
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*confdoc.Map)}
}

func (s *MemoryStore) Read(_ context.Context, modulePath string) (*confdoc.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[modulePath]
	if !ok {
		return confdoc.New(), nil
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Write(_ context.Context, modulePath string, doc *confdoc.Map) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[modulePath] = doc.Clone()
	return nil
}
