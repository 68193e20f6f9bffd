package httpapi

import (
	"context"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

type requesterKey struct{}

func WithRequester(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, requesterKey{}, id)
}

func RequesterFromContext(ctx context.Context) (domain.UserID, bool) {
	v, ok := ctx.Value(requesterKey{}).(domain.UserID)
	return v, ok && v != ""
}
