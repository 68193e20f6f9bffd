package httpapi

import (
	"net/http"
	"strings"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// RequesterHeader names the calling user. It stands in for real authentication.
const RequesterHeader = "X-User-Id"

// NewRequesterMiddleware stores the user named by X-User-Id in the request context.
//
// Requests without the header pass through anonymously; handlers that need a requester reject
// them. A malformed id is rejected here.
func NewRequesterMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(RequesterHeader))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id := domain.UserID(raw)
			if !id.Valid() {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "malformed "+RequesterHeader+" header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), id)))
		})
	}
}
