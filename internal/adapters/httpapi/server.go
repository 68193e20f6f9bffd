package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/users"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// DefaultMaxUploadBytes bounds a photo upload request when the server is not configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

// Server implements the HTTP handlers on top of the application services.
type Server struct {
	Users *users.Service
	Trips *trips.Service

	MaxUploadBytes int64
}

func NewServer(usersSvc *users.Service, tripsSvc *trips.Service) *Server {
	return &Server{
		Users:          usersSvc,
		Trips:          tripsSvc,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

type createUserBody struct {
	Name      string              `json:"name"`
	Email     openapi_types.Email `json:"email"`
	Password  string              `json:"password"`
	Signature string              `json:"signature,omitempty"`
}

type loginBody struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

type createTripBody struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type commentBody struct {
	Text string `json:"text"`
}

func (s *Server) GetUserCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.Users.Count(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, map[string]int{"userNb": n})
}

func (s *Server) GetTripCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.Trips.Count(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, map[string]int{"tripNb": n})
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "userId")
	if !ok {
		return
	}
	u, err := s.Users.Get(r.Context(), domain.UserID(id))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, u)
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	u, err := s.Users.Create(r.Context(), users.CreateUserInput{
		Name:      body.Name,
		Email:     string(body.Email),
		Password:  body.Password,
		Signature: body.Signature,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusCreated, u)
}

func (s *Server) LoginUser(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	u, err := s.Users.Login(r.Context(), string(body.Email), body.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, u)
}

func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	var body createTripBody
	if !decodeBody(w, r, &body, true) {
		return
	}
	t, err := s.Trips.Create(r.Context(), requester, trips.CreateTripInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusCreated, t)
}

func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}
	t, err := s.Trips.Get(r.Context(), domain.TripID(id))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, t)
}

func (s *Server) UpdateTripSummary(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}
	var patch trips.SummaryPatch
	if !decodeBody(w, r, &patch, false) {
		return
	}
	t, err := s.Trips.UpdateSummary(r.Context(), domain.TripID(id), patch, requester)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, t)
}

func (s *Server) GetTripPhotos(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}
	photos, err := s.Trips.Photos(r.Context(), domain.TripID(id))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusOK, photos)
}

// UploadTripPhotos takes every part named "files" of a multipart body as one photo, in order.
func (s *Server) UploadTripPhotos(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	id, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if r.ContentLength > limit {
		writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds the size limit", map[string]any{"limit": limit})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds the size limit", map[string]any{"limit": limit})
			return
		}
		writeError(w, r, http.StatusUnprocessableEntity, string(apperr.InvalidInput), "expected a multipart form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	uploads := make([]media.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, fileUpload(fh))
	}

	res, err := s.Trips.IngestAndCommitPhotos(r.Context(), domain.TripID(id), uploads, requester)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusCreated, res)
}

func (s *Server) GetPhotoComments(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}
	photoID, ok := pathParam(w, r, "photoId")
	if !ok {
		return
	}
	list, err := s.Trips.PhotoComments(r.Context(), domain.TripID(tripID), domain.PhotoID(photoID))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.PhotoComment{}
	}
	writePayload(w, http.StatusOK, list)
}

func (s *Server) AddPhotoComment(w http.ResponseWriter, r *http.Request) {
	requester, ok := requireRequester(w, r)
	if !ok {
		return
	}
	tripID, ok := pathParam(w, r, "tripId")
	if !ok {
		return
	}
	photoID, ok := pathParam(w, r, "photoId")
	if !ok {
		return
	}
	var body commentBody
	if !decodeBody(w, r, &body, false) {
		return
	}
	list, err := s.Trips.AddPhotoComment(r.Context(), domain.TripID(tripID), domain.PhotoID(photoID), requester, body.Text)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writePayload(w, http.StatusCreated, list)
}

func fileUpload(fh *multipart.FileHeader) media.Upload {
	return media.Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func requireRequester(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, ok := RequesterFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+RequesterHeader+" header", nil)
		return "", false
	}
	return id, true
}

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid path parameter "+name, nil)
		return "", false
	}
	return v, true
}

// decodeBody decodes a JSON request body into dst. With optional set, an empty body is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, r, http.StatusUnprocessableEntity, string(apperr.InvalidInput), "invalid request body", map[string]any{"body": err.Error()})
		return false
	}
	return true
}
