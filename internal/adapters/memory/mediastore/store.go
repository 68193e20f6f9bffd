package mediastore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/mediastore"
)

type object struct {
	data        []byte
	contentType string
}

// Store is an in-memory implementation of mediastore.Store.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	clean, err := mediastore.CleanKey(key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", clean, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[clean] = object{data: data, contentType: contentType}
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	clean, err := mediastore.CleanKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[clean]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mediastore.ErrNotFound, clean)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), obj.data...))), nil
}

// ContentType returns the content type recorded for key, or "" when absent.
func (s *Store) ContentType(key string) string {
	clean, err := mediastore.CleanKey(key)
	if err != nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[clean].contentType
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ mediastore.Store = (*Store)(nil)
