package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	// MediaDir, when set, is served read-only under /media/.
	MediaDir string
	// RequesterMiddleware overrides the X-User-Id shim.
	RequesterMiddleware func(http.Handler) http.Handler
}

// NewRouter constructs the API HTTP router with default options.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(opts.MediaDir))))
	}

	requester := opts.RequesterMiddleware
	if requester == nil {
		requester = NewRequesterMiddleware()
	}

	r.Group(func(r chi.Router) {
		r.Use(requester)

		r.Get("/statistic/user-nb", s.GetUserCount)
		r.Get("/statistic/trip-nb", s.GetTripCount)

		r.Post("/users", s.CreateUser)
		r.Get("/users/{userId}", s.GetUser)
		r.Post("/login", s.LoginUser)

		r.Post("/trips", s.CreateTrip)
		r.Route("/trips/{tripId}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/summary", s.UpdateTripSummary)
			r.Get("/photos", s.GetTripPhotos)
			r.Post("/photos", s.UploadTripPhotos)
			r.Get("/photos/{photoId}/comments", s.GetPhotoComments)
			r.Post("/photos/{photoId}/comments", s.AddPhotoComment)
		})
	})
	return r
}
