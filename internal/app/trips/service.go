package trips

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/aggregate"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/itinerary"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/keylock"
	clockport "github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/triprepo"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/userrepo"
)

// maxCommentLen bounds comment text, in runes.
const maxCommentLen = 2000

type Service struct {
	trips  triprepo.Repository
	users  userrepo.Repository
	views  *aggregate.Aggregator
	ingest *media.Ingestor
	clk    clockport.Clock

	// locks serializes every mutation of one trip's documents.
	locks keylock.Map

	newCommentID func() string
}

func NewService(tripsRepo triprepo.Repository, usersRepo userrepo.Repository, views *aggregate.Aggregator, ingest *media.Ingestor, clk clockport.Clock) *Service {
	return &Service{
		trips:  tripsRepo,
		users:  usersRepo,
		views:  views,
		ingest: ingest,
		clk:    clk,
		newCommentID: func() string {
			return uuid.NewString()
		},
	}
}

// SetNewCommentIDForTest overrides comment ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewCommentIDForTest(fn func() string) {
	if fn != nil {
		s.newCommentID = fn
	}
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.trips.Count(ctx)
	if err != nil {
		return 0, apperr.FromStorage(err, "counter not found")
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id domain.TripID) (domain.FullTrip, error) {
	return s.views.FullTrip(ctx, id)
}

func (s *Service) Photos(ctx context.Context, id domain.TripID) (domain.PhotoCollection, error) {
	return s.views.Photos(ctx, id)
}

func (s *Service) PhotoComments(ctx context.Context, id domain.TripID, photoID domain.PhotoID) ([]domain.PhotoComment, error) {
	return s.views.PhotoComments(ctx, id, photoID)
}

// IsUserInTrip reads the trip on every call.
func (s *Service) IsUserInTrip(ctx context.Context, id domain.TripID, user domain.UserID) (bool, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return false, apperr.FromStorage(err, "trip not found")
	}
	return t.HasMember(user), nil
}

// Create starts a trip whose only member is creator. The creator's own trip list is not changed.
func (s *Service) Create(ctx context.Context, creator domain.UserID, in CreateTripInput) (domain.FullTrip, error) {
	if _, err := s.users.Get(ctx, creator); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.FullTrip{}, &apperr.Error{
				Kind:    apperr.UnknownUser,
				Message: "creator does not exist",
				Details: map[string]any{"userId": string(creator)},
			}
		}
		return domain.FullTrip{}, apperr.FromStorage(err, "user not found")
	}

	t, err := s.trips.Create(ctx, triprepo.NewTrip{
		Creator:     creator,
		Name:        domain.NormalizeHumanName(in.Name),
		Description: strings.TrimSpace(in.Description),
	})
	if err != nil {
		return domain.FullTrip{}, apperr.FromStorage(err, "trip storage missing")
	}

	log.Info().Str("trip_id", string(t.ID)).Str("user_id", string(creator)).Msg("trip created")
	return s.views.FullTripOf(ctx, t)
}

func (s *Service) UpdateSummary(ctx context.Context, id domain.TripID, patch SummaryPatch, requester domain.UserID) (domain.FullTrip, error) {
	var summary triprepo.Summary
	if patch.Name.IsSpecified() {
		if patch.Name.IsNull() {
			return domain.FullTrip{}, apperr.Invalid("name", "cannot be null")
		}
		summary.Name = domain.NormalizeHumanName(patch.Name.MustGet())
	}
	if patch.Description.IsSpecified() {
		if patch.Description.IsNull() {
			return domain.FullTrip{}, apperr.Invalid("description", "cannot be null")
		}
		summary.Description = strings.TrimSpace(patch.Description.MustGet())
	}

	unlock := s.locks.Lock(string(id))
	defer unlock()

	if _, err := s.requireMember(ctx, id, requester); err != nil {
		return domain.FullTrip{}, err
	}
	t, err := s.trips.UpdateSummary(ctx, id, summary)
	if err != nil {
		return domain.FullTrip{}, apperr.FromStorage(err, "trip not found")
	}
	return s.views.FullTripOf(ctx, t)
}

// IngestAndCommitPhotos stores uploads as new photos of the trip and commits them for owner.
// Membership is checked before any asset is written.
func (s *Service) IngestAndCommitPhotos(ctx context.Context, id domain.TripID, uploads []media.Upload, owner domain.UserID) (CommitResult, error) {
	if len(uploads) == 0 {
		return CommitResult{}, apperr.Invalid("files", "at least one file is required")
	}

	unlock := s.locks.Lock(string(id))
	defer unlock()

	t, err := s.requireMember(ctx, id, owner)
	if err != nil {
		return CommitResult{}, err
	}
	photos, err := s.ingest.Ingest(ctx, id, t.PhotoNb, uploads)
	if err != nil {
		return CommitResult{}, err
	}
	return s.commitLocked(ctx, id, photos, owner)
}

// CommitPhotos merges already ingested photos into the trip for owner, who must be a member.
func (s *Service) CommitPhotos(ctx context.Context, id domain.TripID, photos []domain.Photo, owner domain.UserID) (CommitResult, error) {
	unlock := s.locks.Lock(string(id))
	defer unlock()
	return s.commitLocked(ctx, id, photos, owner)
}

func (s *Service) commitLocked(ctx context.Context, id domain.TripID, photos []domain.Photo, owner domain.UserID) (CommitResult, error) {
	t, err := s.requireMember(ctx, id, owner)
	if err != nil {
		return CommitResult{}, err
	}
	coll, err := s.trips.GetPhotos(ctx, id)
	if err != nil {
		return CommitResult{}, apperr.FromStorage(err, "trip photos not found")
	}

	seen := make(map[domain.PhotoID]bool, len(photos))
	for _, p := range photos {
		if !p.ID.Valid() {
			return CommitResult{}, apperr.Invalid("photoId", "malformed photo id")
		}
		if _, dup := coll[p.ID]; dup || seen[p.ID] {
			return CommitResult{}, &apperr.Error{
				Kind:    apperr.InvalidInput,
				Message: "photo already committed",
				Details: map[string]any{"photoId": string(p.ID)},
			}
		}
		seen[p.ID] = true
	}

	owned := make([]domain.Photo, len(photos))
	for i, p := range photos {
		p.Owner = owner
		owned[i] = p
		coll[p.ID] = p
		t.PhotoNb++
		if t.CoverPhotoID == "" {
			t.CoverPhotoID = p.ID
		}
	}
	t.DailyInfos = itinerary.FoldAll(t.DailyInfos, owned)

	// Photos first so the trip document never references a photo that is not stored.
	if err := s.trips.SavePhotos(ctx, id, coll); err != nil {
		return CommitResult{}, apperr.FromStorage(err, "trip not found")
	}
	if err := s.trips.Save(ctx, t); err != nil {
		return CommitResult{}, apperr.FromStorage(err, "trip not found")
	}

	log.Info().
		Str("trip_id", string(id)).
		Str("user_id", string(owner)).
		Int("photos", len(photos)).
		Int("photo_nb", t.PhotoNb).
		Msg("photos committed")

	full, err := s.views.FullTrip(ctx, id)
	if err != nil {
		return CommitResult{}, err
	}
	resolved, err := s.views.Photos(ctx, id)
	if err != nil {
		return CommitResult{}, err
	}
	return CommitResult{Trip: full, Photos: resolved}, nil
}

// AddPhotoComment appends a comment by user, who must exist and be a member, to an existing photo.
func (s *Service) AddPhotoComment(ctx context.Context, id domain.TripID, photoID domain.PhotoID, user domain.UserID, text string) ([]domain.PhotoComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Invalid("text", "must be non-empty")
	}
	if len([]rune(text)) > maxCommentLen {
		return nil, apperr.Invalid("text", "is too long")
	}

	if _, err := s.users.Get(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, &apperr.Error{
				Kind:    apperr.UnknownUser,
				Message: "commenter does not exist",
				Details: map[string]any{"userId": string(user)},
			}
		}
		return nil, apperr.FromStorage(err, "user not found")
	}

	unlock := s.locks.Lock(string(id))
	defer unlock()

	if _, err := s.requireMember(ctx, id, user); err != nil {
		return nil, err
	}
	photos, err := s.trips.GetPhotos(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, "trip photos not found")
	}
	if _, ok := photos[photoID]; !ok {
		return nil, &apperr.Error{
			Kind:    apperr.NotFound,
			Message: "photo not found",
			Details: map[string]any{"photoId": string(photoID)},
		}
	}

	comments, err := s.trips.GetComments(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, "trip comments not found")
	}
	comments[photoID] = append(comments[photoID], domain.Comment{
		ID:        s.newCommentID(),
		UserID:    user,
		Text:      text,
		CreatedAt: s.clk.Now().UTC().Format(time.RFC3339),
	})
	if err := s.trips.SaveComments(ctx, id, comments); err != nil {
		return nil, apperr.FromStorage(err, "trip not found")
	}
	return s.views.PhotoComments(ctx, id, photoID)
}

func (s *Service) requireMember(ctx context.Context, id domain.TripID, user domain.UserID) (domain.Trip, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, apperr.FromStorage(err, "trip not found")
	}
	if !t.HasMember(user) {
		return domain.Trip{}, &apperr.Error{
			Kind:    apperr.NotAuthorized,
			Message: "user is not a member of this trip",
			Details: map[string]any{"tripId": string(id)},
		}
	}
	return t, nil
}
