package apperr

import (
	"context"
	"errors"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/imageprobe"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/triprepo"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/userrepo"
)

// FromStorage classifies an adapter error. notFound is the client message used when the
// error is a not-found sentinel. Errors that are already *Error pass through unchanged.
func FromStorage(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(Timeout, "storage timed out", err)
	case errors.Is(err, userrepo.ErrNotFound),
		errors.Is(err, triprepo.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, mediastore.ErrNotFound):
		return Wrap(NotFound, notFound, err)
	case errors.Is(err, userrepo.ErrDuplicateEmail):
		return Wrap(DuplicateEmail, "email already registered", err)
	case errors.Is(err, docstore.ErrCorrupt):
		return Wrap(Corrupt, "stored document is corrupt", err)
	case errors.Is(err, imageprobe.ErrDecode):
		return Wrap(ImageDecodeError, "image could not be decoded", err)
	default:
		return Wrap(IOError, "storage failure", err)
	}
}
