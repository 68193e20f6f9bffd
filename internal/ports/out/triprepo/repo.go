package triprepo

import (
	"context"
	"errors"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// ErrNotFound indicates the trip, or one of its documents, does not exist.
var ErrNotFound = errors.New("trip not found")

// NewTrip is the input to Create.
type NewTrip struct {
	Creator     domain.UserID
	Name        string
	Description string
}

// Summary carries the editable trip fields. Empty fields leave the stored value unchanged.
type Summary struct {
	Name        string
	Description string
}

// Repository provides access to the trip document and its sibling collections.
// It does not validate the creator; callers check the user repository first.
type Repository interface {
	// Create allocates the next trip id, creates the trip directory, and writes empty photo and
	// comment collections followed by the trip document with membership [creator].
	Create(ctx context.Context, in NewTrip) (domain.Trip, error)

	Get(ctx context.Context, id domain.TripID) (domain.Trip, error)
	GetPhotos(ctx context.Context, id domain.TripID) (domain.PhotoCollection, error)
	GetComments(ctx context.Context, id domain.TripID) (domain.CommentCollection, error)

	// UpdateSummary merges the non-empty fields of s into the stored trip.
	UpdateSummary(ctx context.Context, id domain.TripID, s Summary) (domain.Trip, error)

	Save(ctx context.Context, t domain.Trip) error
	SavePhotos(ctx context.Context, id domain.TripID, photos domain.PhotoCollection) error
	SaveComments(ctx context.Context, id domain.TripID, comments domain.CommentCollection) error

	Count(ctx context.Context) (int, error)
}
