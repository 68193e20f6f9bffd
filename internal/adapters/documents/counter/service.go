// Package counter allocates user and trip ordinals from the global counter document.
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/counter"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

// Service serializes every read-increment-write of data-counter.json behind one mutex.
type Service struct {
	mu    sync.Mutex
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Counts(ctx context.Context) (domain.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Service) NextUserOrdinal(ctx context.Context) (int, error) {
	return s.AllocateUser(ctx, nil)
}

func (s *Service) NextTripOrdinal(ctx context.Context) (int, error) {
	return s.AllocateTrip(ctx, nil)
}

func (s *Service) AllocateUser(ctx context.Context, build counter.BuildFunc) (int, error) {
	return s.allocate(ctx, "userNb", func(c *domain.Counter) *int { return &c.UserNb }, build)
}

func (s *Service) AllocateTrip(ctx context.Context, build counter.BuildFunc) (int, error) {
	return s.allocate(ctx, "tripNb", func(c *domain.Counter) *int { return &c.TripNb }, build)
}

func (s *Service) allocate(ctx context.Context, name string, field func(*domain.Counter) *int, build counter.BuildFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	n := field(&c)
	next := *n + 1
	if build != nil {
		if err := build(ctx, next); err != nil {
			if !counter.IsConsumed(err) {
				return 0, err
			}
			*n = next
			// Persist even when ctx is already done.
			if perr := s.write(context.WithoutCancel(ctx), name, c); perr != nil {
				return 0, errors.Join(err, perr)
			}
			return 0, err
		}
	}
	*n = next
	if err := s.write(ctx, name, c); err != nil {
		return 0, err
	}
	return next, nil
}

func (s *Service) write(ctx context.Context, name string, c domain.Counter) error {
	if err := docstore.Write(ctx, s.store, docstore.CounterPath, c); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (s *Service) read(ctx context.Context) (domain.Counter, error) {
	c, err := docstore.Read[domain.Counter](ctx, s.store, docstore.CounterPath)
	if err != nil {
		return domain.Counter{}, fmt.Errorf("read counter: %w", err)
	}
	return c, nil
}

var _ counter.Service = (*Service)(nil)
