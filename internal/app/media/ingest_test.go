package media_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/imaging"
	memclock "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/clock"
	memmedia "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode err=%v", err)
	}
	return buf.Bytes()
}

func newIngestor(store *memmedia.Store) *media.Ingestor {
	clk := memclock.NewManualClock(time.Date(2024, time.July, 3, 9, 5, 0, 0, time.UTC))
	return media.NewIngestor(store, imaging.NewProber(), clk)
}

func TestIngest_AssignsSequentialIDsAndPlaceholders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memmedia.NewStore()

	photos, err := newIngestor(store).Ingest(ctx, "trip_4", 2, []media.Upload{
		media.BytesUpload("a.png", pngBytes(t, 8, 6)),
		media.BytesUpload("b.png", pngBytes(t, 3, 5)),
	})
	if err != nil {
		t.Fatalf("Ingest err=%v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photos=%d, want 2", len(photos))
	}

	want := []domain.Photo{
		{ID: "photo_4_3", Loc: media.PlaceholderLoc, Date: "2024-7-3", Time: "9:5", Width: 8, Height: 6, Src: "trips/trip_4/photo_4_3.png"},
		{ID: "photo_4_4", Loc: media.PlaceholderLoc, Date: "2024-7-3", Time: "9:5", Width: 3, Height: 5, Src: "trips/trip_4/photo_4_4.png"},
	}
	for i := range want {
		if photos[i] != want[i] {
			t.Fatalf("photo[%d]=%+v, want %+v", i, photos[i], want[i])
		}
	}

	rc, err := store.Open(ctx, "trips/trip_4/photo_4_3.png")
	if err != nil {
		t.Fatalf("Open asset err=%v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, pngBytes(t, 8, 6)) {
		t.Fatalf("stored asset differs from upload")
	}
	if ct := store.ContentType("trips/trip_4/photo_4_3.png"); ct != "image/png" {
		t.Fatalf("content type=%q", ct)
	}
}

func TestIngest_UndecodableImage(t *testing.T) {
	t.Parallel()

	_, err := newIngestor(memmedia.NewStore()).Ingest(context.Background(), "trip_1", 0, []media.Upload{
		media.BytesUpload("notes.txt", []byte("hello")),
	})
	if !errors.Is(err, apperr.ImageDecodeError) {
		t.Fatalf("err=%v, want ImageDecodeError", err)
	}
}

func TestIngest_UnreadableUpload(t *testing.T) {
	t.Parallel()

	broken := media.Upload{Name: "x.png", Open: func() (io.ReadCloser, error) { return nil, errors.New("gone") }}
	_, err := newIngestor(memmedia.NewStore()).Ingest(context.Background(), "trip_1", 0, []media.Upload{broken})
	if !errors.Is(err, apperr.IOError) {
		t.Fatalf("err=%v, want IOError", err)
	}
}

func TestIngest_Thumbnails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memmedia.NewStore()

	ing := newIngestor(store).WithThumbnails(imaging.NewThumbnailer(), 4)
	photos, err := ing.Ingest(ctx, "trip_1", 0, []media.Upload{media.BytesUpload("a.png", pngBytes(t, 16, 8))})
	if err != nil {
		t.Fatalf("Ingest err=%v", err)
	}
	if photos[0].ThumbSrc != "trips/trip_1/photo_1_1_thumb.png" {
		t.Fatalf("thumbSrc=%q", photos[0].ThumbSrc)
	}
	rc, err := store.Open(ctx, photos[0].ThumbSrc)
	if err != nil {
		t.Fatalf("Open thumbnail err=%v", err)
	}
	defer rc.Close()
	cfg, err := png.DecodeConfig(rc)
	if err != nil {
		t.Fatalf("decode thumbnail err=%v", err)
	}
	if cfg.Width != 4 || cfg.Height != 2 {
		t.Fatalf("thumbnail=%dx%d, want 4x2", cfg.Width, cfg.Height)
	}
}
