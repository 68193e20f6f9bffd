package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

// Store is an in-memory implementation of docstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
	dirs map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		docs: make(map[string][]byte),
		dirs: map[string]struct{}{"": {}},
	}
}

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	_ = ctx
	clean, err := docstore.Clean(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.docs[clean]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docstore.ErrNotFound, clean)
	}
	return append([]byte(nil), b...), nil
}

func (s *Store) Put(ctx context.Context, p string, data []byte) error {
	_ = ctx
	clean, err := docstore.Clean(p)
	if err != nil {
		return err
	}
	if clean == "" {
		return fmt.Errorf("%w: root is a directory", docstore.ErrInvalidPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dirs[docstore.Parent(clean)]; !ok {
		return fmt.Errorf("%w: parent of %s", docstore.ErrNotFound, clean)
	}
	if _, ok := s.dirs[clean]; ok {
		return fmt.Errorf("%w: %s is a directory", docstore.ErrInvalidPath, clean)
	}
	s.docs[clean] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Mkdir(ctx context.Context, p string) error {
	_ = ctx
	clean, err := docstore.Clean(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dirs[clean]; ok {
		return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, clean)
	}
	if _, ok := s.docs[clean]; ok {
		return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, clean)
	}
	if _, ok := s.dirs[docstore.Parent(clean)]; !ok {
		return fmt.Errorf("%w: parent of %s", docstore.ErrNotFound, clean)
	}
	s.dirs[clean] = struct{}{}
	return nil
}

var _ docstore.Store = (*Store)(nil)
