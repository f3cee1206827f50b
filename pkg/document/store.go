package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"mofox-ui/pkg/merge"
)

// ErrNoPath is returned by Update on a store without a file.
var ErrNoPath = errors.New("config file path not set")

// Store reads and updates one TOML file on disk. Updates through the same
// Store are serialized.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store for path. An empty path is allowed: Read then
// returns an empty document and Update fails with ErrNoPath.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path, possibly empty.
func (s *Store) Path() string {
	return s.path
}

// Read loads and parses the file.
func (s *Store) Read() (*Document, error) {
	if s.path == "" {
		return Empty(), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return doc, nil
}

// Update merges patch into the file and rewrites it in place. New keys are
// added in patch order. The file is left untouched when parsing, merging or
// encoding fails.
func (s *Store) Update(patch *merge.Object) error {
	if s.path == "" {
		return ErrNoPath
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	src, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := Parse(src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}

	merge.MergeObject(doc.Root(), patch)

	out, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", s.path, err)
	}
	if _, err := f.Write(out); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Truncate(int64(len(out))); err != nil {
		return fmt.Errorf("truncate %s: %w", s.path, err)
	}
	return f.Close()
}
