package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

// Store is a filesystem implementation of docstore.Store rooted at a single directory.
// Writes go through a temp file in the destination directory followed by a rename.
type Store struct {
	root string
}

// NewStore opens a store rooted at root, creating the root directory if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("filesystem docstore requires a root directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	full, clean, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, clean)
		}
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}
	return b, nil
}

func (s *Store) Put(ctx context.Context, p string, data []byte) error {
	full, clean, err := s.resolve(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return fmt.Errorf("%w: root is a directory", docstore.ErrInvalidPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(full)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: parent of %s", docstore.ErrNotFound, clean)
		}
		return fmt.Errorf("failed to create temp file for %s: %w", clean, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", clean, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", clean, err)
	}
	if err := os.Rename(tmpPath, full); err != nil {
		return fmt.Errorf("failed to rename temp file for %s: %w", clean, err)
	}
	success = true
	return nil
}

func (s *Store) Mkdir(ctx context.Context, p string) error {
	full, clean, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Mkdir(full, 0o755); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, clean)
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: parent of %s", docstore.ErrNotFound, clean)
		default:
			return fmt.Errorf("mkdir %s: %w", clean, err)
		}
	}
	return nil
}

func (s *Store) resolve(p string) (full string, clean string, err error) {
	clean, err = docstore.Clean(p)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), clean, nil
}

var _ docstore.Store = (*Store)(nil)
