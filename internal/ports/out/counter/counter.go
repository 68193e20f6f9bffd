package counter

import (
	"context"
	"errors"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// BuildFunc constructs and persists the entity gated by ordinal. The counter is advanced when
// it returns nil, or when it returns an error wrapped with Consumed.
type BuildFunc func(ctx context.Context, ordinal int) error

// Service allocates sequential ordinals from the global counter document.
//
// Allocations are serialized: at most one Allocate* call runs its BuildFunc at a time,
// so two callers never observe the same ordinal.
type Service interface {
	// Counts returns the current counter document.
	Counts(ctx context.Context) (domain.Counter, error)

	// NextUserOrdinal reserves userNb+1 and persists the increment.
	NextUserOrdinal(ctx context.Context) (int, error)
	// NextTripOrdinal reserves tripNb+1 and persists the increment.
	NextTripOrdinal(ctx context.Context) (int, error)

	// AllocateUser runs build with userNb+1 and persists the increment once the ordinal is used.
	AllocateUser(ctx context.Context, build BuildFunc) (int, error)
	// AllocateTrip runs build with tripNb+1 and persists the increment once the ordinal is used.
	AllocateTrip(ctx context.Context, build BuildFunc) (int, error)
}

type consumedError struct{ err error }

func (e *consumedError) Error() string { return e.err.Error() }
func (e *consumedError) Unwrap() error { return e.err }

// Consumed marks a build failure that happened after the ordinal was claimed on storage,
// typically once the entity directory exists. The ordinal is never handed out again.
func Consumed(err error) error {
	if err == nil {
		return nil
	}
	return &consumedError{err: err}
}

// IsConsumed reports whether err was marked with Consumed.
func IsConsumed(err error) bool {
	var c *consumedError
	return errors.As(err, &c)
}
