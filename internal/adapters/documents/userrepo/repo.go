// Package userrepo stores users as documents: users/<id>/user.json, users/<id>/authen.json and
// the shared users/users.json email index.
package userrepo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/counter"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/userrepo"
)

// maxOrphanSkips bounds how many leftover directories one Create steps over, for example
// after a crash between creating a directory and persisting the counter.
const maxOrphanSkips = 8

// Repo implements userrepo.Repository on a document store.
type Repo struct {
	// mu serializes registrations so the email index is never read and rewritten concurrently.
	mu       sync.Mutex
	store    docstore.Store
	counters counter.Service
}

func NewRepo(store docstore.Store, counters counter.Service) *Repo {
	return &Repo{store: store, counters: counters}
}

func (r *Repo) Create(ctx context.Context, in userrepo.NewUser) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.readIndex(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if _, ok := index[in.Email]; ok {
		return domain.User{}, userrepo.ErrDuplicateEmail
	}

	for skipped := 0; ; skipped++ {
		u, err := r.allocate(ctx, index, in)
		if errors.Is(err, docstore.ErrAlreadyExists) && skipped < maxOrphanSkips {
			continue
		}
		return u, err
	}
}

// allocate claims the next user ordinal and writes the user's documents. Once the user directory
// exists the ordinal stays used, even when a later write fails.
func (r *Repo) allocate(ctx context.Context, index map[string]domain.UserID, in userrepo.NewUser) (domain.User, error) {
	var created domain.User
	_, err := r.counters.AllocateUser(ctx, func(ctx context.Context, ordinal int) error {
		u := domain.User{
			ID:            domain.NewUserID(ordinal),
			Name:          in.Name,
			Signature:     in.Signature,
			AvatarSrc:     in.AvatarSrc,
			ProfileBkgSrc: in.ProfileBkgSrc,
			Friends:       []domain.UserID{},
			Trips:         []domain.TripID{},
		}
		if err := r.store.Mkdir(ctx, docstore.UserDir(u.ID)); err != nil {
			if errors.Is(err, docstore.ErrAlreadyExists) {
				return counter.Consumed(fmt.Errorf("create user dir: %w", err))
			}
			return fmt.Errorf("create user dir: %w", err)
		}
		if err := docstore.Write(ctx, r.store, docstore.UserPath(u.ID), u); err != nil {
			return counter.Consumed(fmt.Errorf("write user: %w", err))
		}
		creds := domain.Credentials{Email: in.Email, Password: in.PasswordHash}
		if err := docstore.Write(ctx, r.store, docstore.CredentialsPath(u.ID), creds); err != nil {
			return counter.Consumed(fmt.Errorf("write credentials: %w", err))
		}
		index[in.Email] = u.ID
		if err := docstore.Write(ctx, r.store, docstore.UsersIndexPath, index); err != nil {
			delete(index, in.Email)
			return counter.Consumed(fmt.Errorf("write email index: %w", err))
		}
		created = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (r *Repo) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	if !id.Valid() {
		return domain.User{}, fmt.Errorf("%w: %s", userrepo.ErrNotFound, id)
	}
	u, err := docstore.Read[domain.User](ctx, r.store, docstore.UserPath(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return domain.User{}, fmt.Errorf("%w: %s", userrepo.ErrNotFound, id)
		}
		return domain.User{}, err
	}
	if u.Friends == nil {
		u.Friends = []domain.UserID{}
	}
	if u.Trips == nil {
		u.Trips = []domain.TripID{}
	}
	return u, nil
}

func (r *Repo) GetCredentials(ctx context.Context, email string) (*domain.Credentials, domain.UserID, error) {
	index, err := r.readIndex(ctx)
	if err != nil {
		return nil, "", err
	}
	id, ok := index[email]
	if !ok {
		return nil, "", nil
	}
	creds, err := docstore.Read[domain.Credentials](ctx, r.store, docstore.CredentialsPath(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: credentials of %s", userrepo.ErrNotFound, id)
		}
		return nil, "", err
	}
	return &creds, id, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	c, err := r.counters.Counts(ctx)
	if err != nil {
		return 0, err
	}
	return c.UserNb, nil
}

func (r *Repo) readIndex(ctx context.Context) (domain.EmailIndex, error) {
	index, err := docstore.Read[domain.EmailIndex](ctx, r.store, docstore.UsersIndexPath)
	if err != nil {
		return nil, fmt.Errorf("read email index: %w", err)
	}
	if index == nil {
		index = domain.EmailIndex{}
	}
	return index, nil
}

var _ userrepo.Repository = (*Repo)(nil)
