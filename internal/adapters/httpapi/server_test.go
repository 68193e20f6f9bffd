package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/counter"
	doctriprepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/triprepo"
	docuserrepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/userrepo"
	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/imaging"
	memclock "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/clock"
	memdocstore "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/docstore"
	memmedia "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/aggregate"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/users"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/password"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

type response struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
	Error   struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *Server) {
	t.Helper()

	store := memdocstore.NewStore()
	if err := docstore.Bootstrap(context.Background(), store); err != nil {
		t.Fatalf("Bootstrap err=%v", err)
	}
	counters := counter.NewService(store)
	userRepo := docuserrepo.NewRepo(store, counters)
	tripRepo := doctriprepo.NewRepo(store, counters)
	views := aggregate.New(userRepo, tripRepo, "")
	clk := memclock.NewManualClock(time.Date(2024, time.July, 3, 9, 5, 0, 0, time.UTC))
	ingest := media.NewIngestor(memmedia.NewStore(), imaging.NewProber(), clk)

	api := NewServer(
		users.NewService(userRepo, views, password.Hasher{Cost: bcrypt.MinCost}, users.Defaults{AvatarSrc: "assets/a.png"}),
		trips.NewService(tripRepo, userRepo, views, ingest, clk),
	)
	return NewRouter(api), api
}

func do(t *testing.T, h http.Handler, method, path, requester string, body []byte, contentType string) (int, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requester != "" {
		req.Header.Set(RequesterHeader, requester)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode err=%v body=%s", method, path, err, rr.Body.String())
	}
	return rr.Code, resp
}

func doJSON(t *testing.T, h http.Handler, method, path, requester, body string) (int, response) {
	t.Helper()
	return do(t, h, method, path, requester, []byte(body), "application/json")
}

func multipartPNG(t *testing.T, n int) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := 0; i < n; i++ {
		fw, err := mw.CreateFormFile("files", "p.png")
		if err != nil {
			t.Fatalf("CreateFormFile err=%v", err)
		}
		if err := png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 6, 4))); err != nil {
			t.Fatalf("png.Encode err=%v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz=%d %q", rr.Code, rr.Body.String())
	}
}

func TestRouter_UserLifecycle(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	code, resp := doJSON(t, h, http.MethodPost, "/users", "", `{"name":" Ann  Lee ","email":"Ann@X.com","password":"pw"}`)
	if code != http.StatusCreated || !resp.Success {
		t.Fatalf("create user=%d %+v", code, resp)
	}
	var u domain.FullUser
	if err := json.Unmarshal(resp.Payload, &u); err != nil {
		t.Fatalf("decode user err=%v", err)
	}
	if u.ID != "user_1" || u.Name != "Ann Lee" {
		t.Fatalf("user=%+v", u)
	}

	code, resp = doJSON(t, h, http.MethodPost, "/users", "", `{"name":"Other","email":"ann@x.com","password":"pw"}`)
	if code != http.StatusConflict || resp.Error.Code != "DUPLICATE_EMAIL" {
		t.Fatalf("duplicate=%d %+v", code, resp)
	}

	code, resp = doJSON(t, h, http.MethodPost, "/users", "", `{"name":"Bad","email":"not-an-email","password":"pw"}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("bad email=%d %+v", code, resp)
	}

	code, resp = doJSON(t, h, http.MethodPost, "/login", "", `{"email":"ann@x.com","password":"pw"}`)
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("login=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodPost, "/login", "", `{"email":"ann@x.com","password":"nope"}`)
	if code != http.StatusUnauthorized || resp.Error.Code != "BAD_CREDENTIALS" {
		t.Fatalf("bad login=%d %+v", code, resp)
	}

	code, resp = doJSON(t, h, http.MethodGet, "/users/user_1", "", "")
	if code != http.StatusOK {
		t.Fatalf("get user=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodGet, "/users/user_7", "", "")
	if code != http.StatusNotFound || resp.Error.RequestID == "" {
		t.Fatalf("missing user=%d %+v", code, resp)
	}
	if strings.Contains(resp.Error.Message, "user.json") {
		t.Fatalf("storage path leaked: %q", resp.Error.Message)
	}

	code, resp = doJSON(t, h, http.MethodGet, "/statistic/user-nb", "", "")
	if code != http.StatusOK || string(resp.Payload) != `{"userNb":1}` {
		t.Fatalf("user count=%d %s", code, resp.Payload)
	}
}

func TestRouter_TripFlow(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	doJSON(t, h, http.MethodPost, "/users", "", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	doJSON(t, h, http.MethodPost, "/users", "", `{"name":"Bob","email":"b@x.com","password":"pw"}`)

	code, resp := doJSON(t, h, http.MethodPost, "/trips", "", ``)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous create=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodPost, "/trips", "user_1", ``)
	if code != http.StatusCreated {
		t.Fatalf("create trip=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodPost, "/trips", "user_9", `{"name":"Ghost"}`)
	if code != http.StatusNotFound || resp.Error.Code != "UNKNOWN_USER" {
		t.Fatalf("unknown creator=%d %+v", code, resp)
	}

	code, resp = doJSON(t, h, http.MethodPatch, "/trips/trip_1/summary", "user_1", `{"name":"Coast","description":"Highway 1"}`)
	if code != http.StatusOK {
		t.Fatalf("patch=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodPatch, "/trips/trip_1/summary", "user_1", `{"name":null}`)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("null name=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodPatch, "/trips/trip_1/summary", "user_2", `{"name":"Mine"}`)
	if code != http.StatusForbidden {
		t.Fatalf("non-member patch=%d %+v", code, resp)
	}

	body, ct := multipartPNG(t, 2)
	code, resp = do(t, h, http.MethodPost, "/trips/trip_1/photos", "user_2", body, ct)
	if code != http.StatusForbidden {
		t.Fatalf("non-member upload=%d %+v", code, resp)
	}
	code, resp = do(t, h, http.MethodPost, "/trips/trip_1/photos", "user_1", body, ct)
	if code != http.StatusCreated {
		t.Fatalf("upload=%d %+v", code, resp)
	}
	var res trips.CommitResult
	if err := json.Unmarshal(resp.Payload, &res); err != nil {
		t.Fatalf("decode commit err=%v", err)
	}
	if res.Trip.PhotoNb != 2 || res.Trip.Name != "Coast" || len(res.Photos) != 2 {
		t.Fatalf("commit=%+v", res)
	}
	if p := res.Photos["photo_1_2"]; p.Width != 6 || p.Height != 4 || p.Owner != "user_1" {
		t.Fatalf("photo_1_2=%+v", p)
	}

	code, resp = doJSON(t, h, http.MethodGet, "/trips/trip_1/photos/photo_1_1/comments", "", "")
	if code != http.StatusOK || string(resp.Payload) != `[]` {
		t.Fatalf("empty comments=%d %s", code, resp.Payload)
	}
	code, resp = doJSON(t, h, http.MethodPost, "/trips/trip_1/photos/photo_1_1/comments", "user_1", `{"text":"nice"}`)
	if code != http.StatusCreated {
		t.Fatalf("comment=%d %+v", code, resp)
	}
	var comments []domain.PhotoComment
	if err := json.Unmarshal(resp.Payload, &comments); err != nil {
		t.Fatalf("decode comments err=%v", err)
	}
	if len(comments) != 1 || comments[0].Text != "nice" || comments[0].UserName != "Ann" {
		t.Fatalf("comments=%+v", comments)
	}

	code, resp = doJSON(t, h, http.MethodGet, "/trips/trip_1", "", "")
	if code != http.StatusOK {
		t.Fatalf("get trip=%d %+v", code, resp)
	}
	code, resp = doJSON(t, h, http.MethodGet, "/trips/trip_5", "", "")
	if code != http.StatusNotFound {
		t.Fatalf("missing trip=%d %+v", code, resp)
	}

	code, resp = doJSON(t, h, http.MethodGet, "/statistic/trip-nb", "", "")
	if code != http.StatusOK || string(resp.Payload) != `{"tripNb":1}` {
		t.Fatalf("trip count=%d %s", code, resp.Payload)
	}

	// Creating the trip does not list it on the creator's profile.
	code, resp = doJSON(t, h, http.MethodGet, "/users/user_1", "", "")
	var u domain.FullUser
	if err := json.Unmarshal(resp.Payload, &u); err != nil || code != http.StatusOK {
		t.Fatalf("get user=%d err=%v", code, err)
	}
	if len(u.Trips) != 0 {
		t.Fatalf("user trips=%v, want none", u.Trips)
	}
}

func TestRouter_UploadLimits(t *testing.T) {
	t.Parallel()
	h, api := newTestRouter(t)
	doJSON(t, h, http.MethodPost, "/users", "", `{"name":"Ann","email":"a@x.com","password":"pw"}`)
	doJSON(t, h, http.MethodPost, "/trips", "user_1", ``)

	empty, ct := multipartPNG(t, 0)
	code, resp := do(t, h, http.MethodPost, "/trips/trip_1/photos", "user_1", empty, ct)
	if code != http.StatusUnprocessableEntity || resp.Error.Code != "INVALID_INPUT" {
		t.Fatalf("no files=%d %+v", code, resp)
	}

	code, resp = do(t, h, http.MethodPost, "/trips/trip_1/photos", "user_1", []byte("plain"), "text/plain")
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("not multipart=%d %+v", code, resp)
	}

	api.MaxUploadBytes = 64
	body, ct := multipartPNG(t, 3)
	code, resp = do(t, h, http.MethodPost, "/trips/trip_1/photos", "user_1", body, ct)
	if code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized=%d %+v", code, resp)
	}
}

func TestRequesterMiddleware_RejectsMalformedID(t *testing.T) {
	t.Parallel()
	h, _ := newTestRouter(t)

	code, resp := doJSON(t, h, http.MethodPost, "/trips", "admin", ``)
	if code != http.StatusUnauthorized || resp.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("malformed requester=%d %+v", code, resp)
	}
}
