// Package triprepo stores each trip as a directory holding trip.json, photos.json and comments.json.
package triprepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/counter"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/triprepo"
)

// maxOrphanSkips bounds how many leftover trip directories one Create steps over.
const maxOrphanSkips = 8

// Repo implements triprepo.Repository on a document store.
// It holds no locks of its own; callers serialize mutations of one trip.
type Repo struct {
	store    docstore.Store
	counters counter.Service
}

func NewRepo(store docstore.Store, counters counter.Service) *Repo {
	return &Repo{store: store, counters: counters}
}

func (r *Repo) Create(ctx context.Context, in triprepo.NewTrip) (domain.Trip, error) {
	for skipped := 0; ; skipped++ {
		t, err := r.allocate(ctx, in)
		if errors.Is(err, docstore.ErrAlreadyExists) && skipped < maxOrphanSkips {
			continue
		}
		return t, err
	}
}

// allocate claims the next trip ordinal and writes the trip's documents. Once the trip directory
// exists the ordinal stays used, even when a later write fails.
func (r *Repo) allocate(ctx context.Context, in triprepo.NewTrip) (domain.Trip, error) {
	var created domain.Trip
	_, err := r.counters.AllocateTrip(ctx, func(ctx context.Context, ordinal int) error {
		t := domain.Trip{
			ID:          domain.NewTripID(ordinal),
			Name:        in.Name,
			Description: in.Description,
			Users:       []domain.UserID{in.Creator},
			DailyInfos:  []domain.DailyInfo{},
		}
		if err := r.store.Mkdir(ctx, docstore.TripDir(t.ID)); err != nil {
			if errors.Is(err, docstore.ErrAlreadyExists) {
				return counter.Consumed(fmt.Errorf("create trip dir: %w", err))
			}
			return fmt.Errorf("create trip dir: %w", err)
		}
		if err := docstore.Write(ctx, r.store, docstore.PhotosPath(t.ID), domain.PhotoCollection{}); err != nil {
			return counter.Consumed(fmt.Errorf("write photos: %w", err))
		}
		if err := docstore.Write(ctx, r.store, docstore.CommentsPath(t.ID), domain.CommentCollection{}); err != nil {
			return counter.Consumed(fmt.Errorf("write comments: %w", err))
		}
		if err := docstore.Write(ctx, r.store, docstore.TripPath(t.ID), t); err != nil {
			return counter.Consumed(fmt.Errorf("write trip: %w", err))
		}
		created = t
		return nil
	})
	if err != nil {
		return domain.Trip{}, err
	}
	return created, nil
}

func (r *Repo) Get(ctx context.Context, id domain.TripID) (domain.Trip, error) {
	t, err := read[domain.Trip](ctx, r.store, id, docstore.TripPath)
	if err != nil {
		return domain.Trip{}, err
	}
	if t.Users == nil {
		t.Users = []domain.UserID{}
	}
	if t.DailyInfos == nil {
		t.DailyInfos = []domain.DailyInfo{}
	}
	return t, nil
}

func (r *Repo) GetPhotos(ctx context.Context, id domain.TripID) (domain.PhotoCollection, error) {
	photos, err := read[domain.PhotoCollection](ctx, r.store, id, docstore.PhotosPath)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = domain.PhotoCollection{}
	}
	return photos, nil
}

func (r *Repo) GetComments(ctx context.Context, id domain.TripID) (domain.CommentCollection, error) {
	comments, err := read[domain.CommentCollection](ctx, r.store, id, docstore.CommentsPath)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = domain.CommentCollection{}
	}
	return comments, nil
}

func (r *Repo) UpdateSummary(ctx context.Context, id domain.TripID, s triprepo.Summary) (domain.Trip, error) {
	t, err := r.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, err
	}
	if s.Name != "" {
		t.Name = s.Name
	}
	if s.Description != "" {
		t.Description = s.Description
	}
	if err := r.Save(ctx, t); err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}

func (r *Repo) Save(ctx context.Context, t domain.Trip) error {
	if err := r.exists(ctx, t.ID); err != nil {
		return err
	}
	return docstore.Write(ctx, r.store, docstore.TripPath(t.ID), t)
}

func (r *Repo) SavePhotos(ctx context.Context, id domain.TripID, photos domain.PhotoCollection) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return docstore.Write(ctx, r.store, docstore.PhotosPath(id), photos)
}

func (r *Repo) SaveComments(ctx context.Context, id domain.TripID, comments domain.CommentCollection) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return docstore.Write(ctx, r.store, docstore.CommentsPath(id), comments)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	c, err := r.counters.Counts(ctx)
	if err != nil {
		return 0, err
	}
	return c.TripNb, nil
}

func (r *Repo) exists(ctx context.Context, id domain.TripID) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %s", triprepo.ErrNotFound, id)
	}
	if _, err := r.store.Get(ctx, docstore.TripPath(id)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", triprepo.ErrNotFound, id)
		}
		return err
	}
	return nil
}

func read[T any](ctx context.Context, store docstore.Store, id domain.TripID, at func(domain.TripID) string) (T, error) {
	var zero T
	if !id.Valid() {
		return zero, fmt.Errorf("%w: %s", triprepo.ErrNotFound, id)
	}
	v, err := docstore.Read[T](ctx, store, at(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s", triprepo.ErrNotFound, id)
		}
		return zero, err
	}
	return v, nil
}

var _ triprepo.Repository = (*Repo)(nil)
