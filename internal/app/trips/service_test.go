package trips_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oapi-codegen/nullable"
	"golang.org/x/crypto/bcrypt"

	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/counter"
	doctriprepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/triprepo"
	docuserrepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/userrepo"
	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/imaging"
	memclock "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/clock"
	memdocstore "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/docstore"
	memmedia "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/aggregate"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/users"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/password"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

type harness struct {
	store *memdocstore.Store
	media *memmedia.Store
	repo  *doctriprepo.Repo
	users *users.Service
	trips *trips.Service
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := memdocstore.NewStore()
	if err := docstore.Bootstrap(context.Background(), store); err != nil {
		t.Fatalf("Bootstrap err=%v", err)
	}
	counters := counter.NewService(store)
	userRepo := docuserrepo.NewRepo(store, counters)
	tripRepo := doctriprepo.NewRepo(store, counters)
	views := aggregate.New(userRepo, tripRepo, "http://api.test")
	mediaStore := memmedia.NewStore()
	clk := memclock.NewManualClock(time.Date(2024, time.July, 3, 14, 30, 0, 0, time.UTC))

	ingest := media.NewIngestor(mediaStore, imaging.NewProber(), clk)
	svc := trips.NewService(tripRepo, userRepo, views, ingest, clk)
	var n atomic.Int64
	svc.SetNewCommentIDForTest(func() string {
		return fmt.Sprintf("c%d", n.Add(1))
	})

	return harness{
		store: store,
		media: mediaStore,
		repo:  tripRepo,
		users: users.NewService(userRepo, views, password.Hasher{Cost: bcrypt.MinCost}, users.Defaults{
			AvatarSrc:     "/assets/default_avatar.png",
			ProfileBkgSrc: "/assets/default_profile_bkg.png",
		}),
		trips: svc,
	}
}

func (h harness) user(t *testing.T, name, email string) domain.UserID {
	t.Helper()
	u, err := h.users.Create(context.Background(), users.CreateUserInput{Name: name, Email: email, Password: "p"})
	if err != nil {
		t.Fatalf("create user err=%v", err)
	}
	return u.ID
}

func (h harness) counter(t *testing.T) domain.Counter {
	t.Helper()
	c, err := docstore.Read[domain.Counter](context.Background(), h.store, docstore.CounterPath)
	if err != nil {
		t.Fatalf("read counter err=%v", err)
	}
	return c
}

func pngUpload(t *testing.T, name string, w, h int) media.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode err=%v", err)
	}
	return media.BytesUpload(name, buf.Bytes())
}

func TestService_EndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	if c := h.counter(t); c != (domain.Counter{}) {
		t.Fatalf("initial counter=%+v", c)
	}

	ann, err := h.users.Create(ctx, users.CreateUserInput{Name: "Ann", Email: "a@x.com", Password: "p"})
	if err != nil {
		t.Fatalf("create user err=%v", err)
	}
	if ann.ID != "user_1" {
		t.Fatalf("user id=%q", ann.ID)
	}
	if c := h.counter(t); c != (domain.Counter{UserNb: 1, TripNb: 0}) {
		t.Fatalf("counter after user=%+v", c)
	}

	trip, err := h.trips.Create(ctx, ann.ID, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}
	if trip.ID != "trip_1" || trip.PhotoNb != 0 || len(trip.Users) != 1 || trip.Users[0].ID != "user_1" {
		t.Fatalf("trip=%+v", trip)
	}
	if c := h.counter(t); c.TripNb != 1 {
		t.Fatalf("counter after trip=%+v", c)
	}

	res, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{pngUpload(t, "a.png", 4, 3)}, ann.ID)
	if err != nil {
		t.Fatalf("ingest err=%v", err)
	}
	p, ok := res.Photos["photo_1_1"]
	if !ok {
		t.Fatalf("photos=%v, want photo_1_1", res.Photos)
	}
	if p.Owner != ann.ID || p.Width != 4 || p.Height != 3 || p.Loc != media.PlaceholderLoc || p.Date != "2024-7-3" || p.Time != "14:30" {
		t.Fatalf("photo=%+v", p)
	}
	if p.Src != "http://api.test/trips/trip_1/photo_1_1.png" {
		t.Fatalf("src=%q", p.Src)
	}

	got, err := h.trips.Get(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get trip err=%v", err)
	}
	if got.PhotoNb != 1 || len(got.DailyInfos) != 1 {
		t.Fatalf("trip=%+v", got)
	}
	if got.CoverPhotoID != "photo_1_1" {
		t.Fatalf("coverPhotoId=%q", got.CoverPhotoID)
	}
	cover := got.DailyInfos[0].Locs[0].Covers[0]
	if cover.PhotoID != "photo_1_1" || cover.Src != p.Src {
		t.Fatalf("cover=%+v", cover)
	}

	rc, err := h.media.Open(ctx, "trips/trip_1/photo_1_1.png")
	if err != nil {
		t.Fatalf("asset missing err=%v", err)
	}
	_ = rc.Close()
}

func TestService_CommitPhotosGrowsCollection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{Name: "Coast"})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	first, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{pngUpload(t, "a.png", 2, 2)}, ann)
	if err != nil {
		t.Fatalf("first commit err=%v", err)
	}

	batch := []domain.Photo{
		{ID: "photo_1_2", Loc: "Big Sur", Date: "2024-7-4", Time: "8:0", Src: "trips/trip_1/photo_1_2.png"},
		{ID: "photo_1_3", Loc: "Big Sur", Date: "2024-7-4", Time: "8:5", Src: "trips/trip_1/photo_1_3.png"},
	}
	res, err := h.trips.CommitPhotos(ctx, trip.ID, batch, ann)
	if err != nil {
		t.Fatalf("CommitPhotos err=%v", err)
	}
	if res.Trip.PhotoNb != first.Trip.PhotoNb+len(batch) {
		t.Fatalf("photoNb=%d, want %d", res.Trip.PhotoNb, first.Trip.PhotoNb+len(batch))
	}
	for id := range first.Photos {
		if _, ok := res.Photos[id]; !ok {
			t.Fatalf("existing photo %s dropped", id)
		}
	}
	for _, p := range batch {
		got, ok := res.Photos[p.ID]
		if !ok || got.Owner != ann {
			t.Fatalf("photo %s=%+v", p.ID, got)
		}
	}

	// Same date and location: only the first of the batch becomes a cover.
	if len(res.Trip.DailyInfos) != 2 {
		t.Fatalf("dailyInfos=%d, want 2", len(res.Trip.DailyInfos))
	}
	covers := res.Trip.DailyInfos[1].Locs[0].Covers
	if len(covers) != 1 || covers[0].PhotoID != "photo_1_2" {
		t.Fatalf("covers=%+v", covers)
	}

	if _, err := h.trips.CommitPhotos(ctx, trip.ID, batch[:1], ann); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("recommit err=%v, want InvalidInput", err)
	}
}

func TestService_NonMemberCannotCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	bob := h.user(t, "Bob", "b@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	_, err = h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{pngUpload(t, "a.png", 2, 2)}, bob)
	if !errors.Is(err, apperr.NotAuthorized) {
		t.Fatalf("ingest err=%v, want NotAuthorized", err)
	}
	_, err = h.trips.CommitPhotos(ctx, trip.ID, []domain.Photo{{ID: "photo_1_1", Date: "2024-7-3", Loc: "x"}}, bob)
	if !errors.Is(err, apperr.NotAuthorized) {
		t.Fatalf("commit err=%v, want NotAuthorized", err)
	}

	stored, err := h.repo.Get(ctx, trip.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if stored.PhotoNb != 0 || len(stored.DailyInfos) != 0 {
		t.Fatalf("trip changed: %+v", stored)
	}
	photos, err := h.repo.GetPhotos(ctx, trip.ID)
	if err != nil || len(photos) != 0 {
		t.Fatalf("photos=%v err=%v, want empty", photos, err)
	}
	if h.media.Len() != 0 {
		t.Fatalf("assets written for non-member: %d", h.media.Len())
	}
}

func TestService_IngestErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	if _, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, nil, ann); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("no files err=%v", err)
	}
	if _, err := h.trips.IngestAndCommitPhotos(ctx, "trip_9", []media.Upload{pngUpload(t, "a.png", 1, 1)}, ann); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("missing trip err=%v", err)
	}
	bad := media.BytesUpload("notes.txt", []byte("not an image"))
	if _, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{bad}, ann); !errors.Is(err, apperr.ImageDecodeError) {
		t.Fatalf("bad image err=%v", err)
	}
	stored, _ := h.repo.Get(ctx, trip.ID)
	if stored.PhotoNb != 0 {
		t.Fatalf("photoNb=%d after failed ingest", stored.PhotoNb)
	}
}

func TestService_ConcurrentUploadsGetDistinctIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	const n = 8
	up := pngUpload(t, "a.png", 1, 1)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{up}, ann); err != nil {
				t.Errorf("ingest err=%v", err)
			}
		}()
	}
	wg.Wait()

	photos, err := h.trips.Photos(ctx, trip.ID)
	if err != nil {
		t.Fatalf("Photos err=%v", err)
	}
	if len(photos) != n {
		t.Fatalf("photos=%d, want %d", len(photos), n)
	}
	got, err := h.trips.Get(ctx, trip.ID)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got.PhotoNb != n {
		t.Fatalf("photoNb=%d, want %d", got.PhotoNb, n)
	}
}

func TestService_CreateUnknownUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.trips.Create(context.Background(), "user_5", trips.CreateTripInput{})
	if !errors.Is(err, apperr.UnknownUser) {
		t.Fatalf("err=%v, want UnknownUser", err)
	}
	if c := h.counter(t); c.TripNb != 0 {
		t.Fatalf("tripNb=%d after failed create", c.TripNb)
	}
}

func TestService_UpdateSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	bob := h.user(t, "Bob", "b@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{Name: "Coast", Description: "Highway 1"})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	got, err := h.trips.UpdateSummary(ctx, trip.ID, trips.SummaryPatch{Name: nullable.NewNullableWithValue("  Big   Sur ")}, ann)
	if err != nil {
		t.Fatalf("UpdateSummary err=%v", err)
	}
	if got.Name != "Big Sur" || got.Description != "Highway 1" {
		t.Fatalf("trip=%+v", got)
	}

	got, err = h.trips.UpdateSummary(ctx, trip.ID, trips.SummaryPatch{Name: nullable.NewNullableWithValue(""), Description: nullable.NewNullableWithValue("Camping")}, ann)
	if err != nil {
		t.Fatalf("UpdateSummary err=%v", err)
	}
	if got.Name != "Big Sur" || got.Description != "Camping" {
		t.Fatalf("empty name should be ignored, trip=%+v", got)
	}

	if _, err := h.trips.UpdateSummary(ctx, trip.ID, trips.SummaryPatch{Name: nullable.NewNullNullable[string]()}, ann); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("null name err=%v", err)
	}
	if _, err := h.trips.UpdateSummary(ctx, trip.ID, trips.SummaryPatch{Description: nullable.NewNullableWithValue("x")}, bob); !errors.Is(err, apperr.NotAuthorized) {
		t.Fatalf("non-member err=%v", err)
	}
}

func TestService_IsUserInTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	bob := h.user(t, "Bob", "b@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}

	if ok, err := h.trips.IsUserInTrip(ctx, trip.ID, ann); err != nil || !ok {
		t.Fatalf("creator member=%v err=%v", ok, err)
	}
	if ok, err := h.trips.IsUserInTrip(ctx, trip.ID, bob); err != nil || ok {
		t.Fatalf("bob member=%v err=%v", ok, err)
	}

	// Membership changes are visible immediately.
	stored, _ := h.repo.Get(ctx, trip.ID)
	stored.Users = append(stored.Users, bob)
	if err := h.repo.Save(ctx, stored); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if ok, err := h.trips.IsUserInTrip(ctx, trip.ID, bob); err != nil || !ok {
		t.Fatalf("bob member after save=%v err=%v", ok, err)
	}
	if _, err := h.trips.IsUserInTrip(ctx, "trip_9", ann); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("missing trip err=%v", err)
	}
}

func TestService_PhotoComments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	bob := h.user(t, "Bob", "b@x.com")
	trip, err := h.trips.Create(ctx, ann, trips.CreateTripInput{})
	if err != nil {
		t.Fatalf("create trip err=%v", err)
	}
	if _, err := h.trips.IngestAndCommitPhotos(ctx, trip.ID, []media.Upload{pngUpload(t, "a.png", 1, 1)}, ann); err != nil {
		t.Fatalf("ingest err=%v", err)
	}

	if got, err := h.trips.PhotoComments(ctx, trip.ID, "photo_1_1"); err != nil || got != nil {
		t.Fatalf("comments=%v err=%v, want nil", got, err)
	}

	got, err := h.trips.AddPhotoComment(ctx, trip.ID, "photo_1_1", ann, "  sunset  ")
	if err != nil {
		t.Fatalf("AddPhotoComment err=%v", err)
	}
	if len(got) != 1 || got[0].Text != "sunset" || got[0].UserName != "Ann" || got[0].ID != "c1" {
		t.Fatalf("comments=%+v", got)
	}
	if got[0].CreatedAt != "2024-07-03T14:30:00Z" {
		t.Fatalf("createdAt=%q", got[0].CreatedAt)
	}
	if got[0].UserAvatarSrc != "http://api.test/assets/default_avatar.png" {
		t.Fatalf("avatar=%q", got[0].UserAvatarSrc)
	}

	if _, err := h.trips.AddPhotoComment(ctx, trip.ID, "photo_1_1", bob, "hi"); !errors.Is(err, apperr.NotAuthorized) {
		t.Fatalf("non-member err=%v", err)
	}
	if _, err := h.trips.AddPhotoComment(ctx, trip.ID, "photo_1_1", "user_9", "hi"); !errors.Is(err, apperr.UnknownUser) {
		t.Fatalf("unknown user err=%v", err)
	}
	if _, err := h.trips.AddPhotoComment(ctx, trip.ID, "photo_1_7", ann, "hi"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("missing photo err=%v", err)
	}
	if _, err := h.trips.AddPhotoComment(ctx, trip.ID, "photo_1_1", ann, "   "); !errors.Is(err, apperr.InvalidInput) {
		t.Fatalf("empty text err=%v", err)
	}
}

func TestService_Counts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	ann := h.user(t, "Ann", "a@x.com")
	for i := 0; i < 3; i++ {
		if _, err := h.trips.Create(ctx, ann, trips.CreateTripInput{}); err != nil {
			t.Fatalf("create trip err=%v", err)
		}
	}
	if n, err := h.trips.Count(ctx); err != nil || n != 3 {
		t.Fatalf("Count=%d err=%v", n, err)
	}
}
