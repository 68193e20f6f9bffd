// Package aggregate joins normalized user, trip, photo and comment documents into the full and
// reduced views returned to clients. Every call reads fresh state from the repositories.
package aggregate

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/itinerary"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/triprepo"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/userrepo"
)

// maxFanOut bounds concurrent repository reads for one embedded list.
const maxFanOut = 8

type Aggregator struct {
	users   userrepo.Repository
	trips   triprepo.Repository
	resolve itinerary.Resolver
}

func New(users userrepo.Repository, trips triprepo.Repository, publicBaseURL string) *Aggregator {
	return &Aggregator{users: users, trips: trips, resolve: Resolver(publicBaseURL)}
}

// Resolver prefixes relative sources with the public base URL. Empty and absolute sources are
// returned unchanged.
func Resolver(publicBaseURL string) itinerary.Resolver {
	prefix := strings.TrimRight(publicBaseURL, "/")
	return func(src string) string {
		if src == "" || strings.Contains(src, "://") {
			return src
		}
		return prefix + "/" + strings.TrimLeft(src, "/")
	}
}

func (a *Aggregator) ReducedUser(ctx context.Context, id domain.UserID) (domain.ReducedUser, error) {
	u, err := a.users.Get(ctx, id)
	if err != nil {
		return domain.ReducedUser{}, apperr.FromStorage(err, "user not found")
	}
	return domain.ReducedUser{
		ID:            u.ID,
		Name:          u.Name,
		Signature:     u.Signature,
		AvatarSrc:     a.resolve(u.AvatarSrc),
		ProfileBkgSrc: a.resolve(u.ProfileBkgSrc),
	}, nil
}

func (a *Aggregator) FullUser(ctx context.Context, id domain.UserID) (domain.FullUser, error) {
	u, err := a.users.Get(ctx, id)
	if err != nil {
		return domain.FullUser{}, apperr.FromStorage(err, "user not found")
	}

	var (
		friends []domain.ReducedUser
		trips   []domain.ReducedTrip
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		friends, err = fanOut(gctx, u.Friends, a.ReducedUser)
		return err
	})
	g.Go(func() error {
		var err error
		trips, err = fanOut(gctx, u.Trips, a.ReducedTrip)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.FullUser{}, err
	}

	return domain.FullUser{
		ID:            u.ID,
		Name:          u.Name,
		Signature:     u.Signature,
		AvatarSrc:     a.resolve(u.AvatarSrc),
		ProfileBkgSrc: a.resolve(u.ProfileBkgSrc),
		Friends:       friends,
		Trips:         trips,
	}, nil
}

func (a *Aggregator) FullTrip(ctx context.Context, id domain.TripID) (domain.FullTrip, error) {
	t, err := a.trips.Get(ctx, id)
	if err != nil {
		return domain.FullTrip{}, apperr.FromStorage(err, "trip not found")
	}
	return a.fullTrip(ctx, t)
}

// FullTripOf builds the full view of an already loaded trip.
func (a *Aggregator) FullTripOf(ctx context.Context, t domain.Trip) (domain.FullTrip, error) {
	return a.fullTrip(ctx, t)
}

func (a *Aggregator) fullTrip(ctx context.Context, t domain.Trip) (domain.FullTrip, error) {
	var (
		users  []domain.ReducedUser
		photos domain.PhotoCollection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = fanOut(gctx, t.Users, a.ReducedUser)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = a.trips.GetPhotos(gctx, t.ID)
		return apperr.FromStorage(err, "trip photos not found")
	})
	if err := g.Wait(); err != nil {
		return domain.FullTrip{}, err
	}

	days, err := itinerary.Project(t.DailyInfos, photos, a.resolve)
	if err != nil {
		log.Error().Err(err).Str("trip_id", string(t.ID)).Msg("itinerary projection failed")
		return domain.FullTrip{}, err
	}

	return domain.FullTrip{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		Users:        users,
		PhotoNb:      t.PhotoNb,
		CoverPhotoID: t.CoverPhotoID,
		DailyInfos:   days,
	}, nil
}

func (a *Aggregator) ReducedTrip(ctx context.Context, id domain.TripID) (domain.ReducedTrip, error) {
	t, err := a.trips.Get(ctx, id)
	if err != nil {
		return domain.ReducedTrip{}, apperr.FromStorage(err, "trip not found")
	}
	if len(t.DailyInfos) == 0 {
		return domain.ReducedTrip{}, &apperr.Error{
			Kind:    apperr.EmptyItinerary,
			Message: "trip has no daily entries",
			Details: map[string]any{"tripId": string(t.ID)},
		}
	}
	begin, end := dateRange(t.DailyInfos)

	users, err := fanOut(ctx, t.Users, a.ReducedUser)
	if err != nil {
		return domain.ReducedTrip{}, err
	}

	var coverSrc string
	if t.CoverPhotoID != "" {
		photos, err := a.trips.GetPhotos(ctx, t.ID)
		if err != nil {
			return domain.ReducedTrip{}, apperr.FromStorage(err, "trip photos not found")
		}
		p, ok := photos[t.CoverPhotoID]
		if !ok {
			return domain.ReducedTrip{}, &apperr.Error{
				Kind:    apperr.DanglingReference,
				Message: "trip cover references a missing photo",
				Details: map[string]any{"photoId": string(t.CoverPhotoID)},
			}
		}
		coverSrc = a.resolve(p.Src)
	}

	return domain.ReducedTrip{
		ID:            t.ID,
		Name:          t.Name,
		Users:         users,
		BeginDate:     begin,
		EndDate:       end,
		CoverPhotoID:  t.CoverPhotoID,
		CoverPhotoSrc: coverSrc,
	}, nil
}

func (a *Aggregator) Photos(ctx context.Context, tripID domain.TripID) (domain.PhotoCollection, error) {
	photos, err := a.trips.GetPhotos(ctx, tripID)
	if err != nil {
		return nil, apperr.FromStorage(err, "trip not found")
	}
	out := make(domain.PhotoCollection, len(photos))
	for id, p := range photos {
		out[id] = itinerary.ResolvePhoto(p, a.resolve)
	}
	return out, nil
}

// PhotoComments returns nil, nil when the photo has no comments.
func (a *Aggregator) PhotoComments(ctx context.Context, tripID domain.TripID, photoID domain.PhotoID) ([]domain.PhotoComment, error) {
	comments, err := a.trips.GetComments(ctx, tripID)
	if err != nil {
		return nil, apperr.FromStorage(err, "trip not found")
	}
	list, ok := comments[photoID]
	if !ok {
		return nil, nil
	}

	authors := make([]domain.UserID, len(list))
	for i, c := range list {
		authors[i] = c.UserID
	}
	users, err := fanOut(ctx, authors, a.ReducedUser)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PhotoComment, len(list))
	for i, c := range list {
		out[i] = domain.PhotoComment{Comment: c, UserName: users[i].Name, UserAvatarSrc: users[i].AvatarSrc}
	}
	return out, nil
}

// dateRange returns the chronological first and last dates. If any date does not parse it
// falls back to the first and last entries by position.
func dateRange(days []domain.DailyInfo) (string, string) {
	first, last := days[0].Date, days[len(days)-1].Date

	minIdx, maxIdx := 0, 0
	minT, err := domain.ParseDate(days[0].Date)
	if err != nil {
		return first, last
	}
	maxT := minT
	for i := 1; i < len(days); i++ {
		t, err := domain.ParseDate(days[i].Date)
		if err != nil {
			return first, last
		}
		if t.Before(minT) {
			minT, minIdx = t, i
		}
		if t.After(maxT) {
			maxT, maxIdx = t, i
		}
	}
	return days[minIdx].Date, days[maxIdx].Date
}

// fanOut fetches ids concurrently and returns results in input order.
func fanOut[I, O any](ctx context.Context, ids []I, fetch func(context.Context, I) (O, error)) ([]O, error) {
	out := make([]O, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			v, err := fetch(gctx, id)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
