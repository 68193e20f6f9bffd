package contracttest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	docstoreport "github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	mediastoreport "github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/mediastore"
)

type CleanupFunc = func()

type DocumentStoreFactory func(t *testing.T) (docstoreport.Store, CleanupFunc)
type MediaStoreFactory func(t *testing.T) (mediastoreport.Store, CleanupFunc)

// RunDocumentStore exercises the docstore.Store contract shared by every backend.
func RunDocumentStore(t *testing.T, newStore DocumentStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	// Missing documents.
	if _, err := store.Get(ctx, "missing.json"); !errors.Is(err, docstoreport.ErrNotFound) {
		t.Fatalf("Get missing: err=%v, want ErrNotFound", err)
	}

	// Put requires the parent directory.
	if err := store.Put(ctx, "trips/trip_1/trip.json", []byte(`{}`)); !errors.Is(err, docstoreport.ErrNotFound) {
		t.Fatalf("Put without parent: err=%v, want ErrNotFound", err)
	}
	if err := store.Mkdir(ctx, "trips/trip_1"); !errors.Is(err, docstoreport.ErrNotFound) {
		t.Fatalf("Mkdir without parent: err=%v, want ErrNotFound", err)
	}

	// Directory re-creation is an error.
	if err := store.Mkdir(ctx, "trips"); err != nil {
		t.Fatalf("Mkdir trips: %v", err)
	}
	if err := store.Mkdir(ctx, "trips"); !errors.Is(err, docstoreport.ErrAlreadyExists) {
		t.Fatalf("Mkdir twice: err=%v, want ErrAlreadyExists", err)
	}
	if err := store.Mkdir(ctx, "/trips/trip_1"); err != nil {
		t.Fatalf("Mkdir trip_1: %v", err)
	}

	// Overwrite semantics.
	if err := store.Put(ctx, "trips/trip_1/trip.json", []byte(`{"id":"trip_1","photoNb":0}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "/trips/trip_1/trip.json", []byte(`{"id":"trip_1","photoNb":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := docstoreport.Read[domain.Trip](ctx, store, "trips/trip_1/trip.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.ID != "trip_1" || got.PhotoNb != 2 {
		t.Fatalf("Read=%+v, want overwritten trip", got)
	}

	// Corrupt content.
	if err := store.Put(ctx, "trips/trip_1/photos.json", []byte(`{not json`)); err != nil {
		t.Fatalf("Put corrupt: %v", err)
	}
	if _, err := docstoreport.Read[domain.PhotoCollection](ctx, store, "trips/trip_1/photos.json"); !errors.Is(err, docstoreport.ErrCorrupt) {
		t.Fatalf("Read corrupt: err=%v, want ErrCorrupt", err)
	}

	// Paths escaping the root are rejected.
	if _, err := store.Get(ctx, "../outside.json"); !errors.Is(err, docstoreport.ErrInvalidPath) {
		t.Fatalf("Get escape: err=%v, want ErrInvalidPath", err)
	}

	// Bootstrap is idempotent and leaves existing content alone.
	if err := docstoreport.Bootstrap(ctx, store); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if err := docstoreport.Write(ctx, store, docstoreport.CounterPath, domain.Counter{UserNb: 3, TripNb: 1}); err != nil {
		t.Fatalf("Write counter: %v", err)
	}
	if err := docstoreport.Bootstrap(ctx, store); err != nil {
		t.Fatalf("Bootstrap again: %v", err)
	}
	c, err := docstoreport.Read[domain.Counter](ctx, store, docstoreport.CounterPath)
	if err != nil {
		t.Fatalf("Read counter: %v", err)
	}
	if c.UserNb != 3 || c.TripNb != 1 {
		t.Fatalf("counter=%+v, want preserved {3 1}", c)
	}
	idx, err := docstoreport.Read[domain.EmailIndex](ctx, store, docstoreport.UsersIndexPath)
	if err != nil {
		t.Fatalf("Read users index: %v", err)
	}
	if len(idx) != 0 {
		t.Fatalf("users index=%v, want empty", idx)
	}
}

// RunMediaStore exercises the mediastore.Store contract.
func RunMediaStore(t *testing.T, newStore MediaStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := store.Open(ctx, "trips/trip_1/photo_1_1.png"); !errors.Is(err, mediastoreport.ErrNotFound) {
		t.Fatalf("Open missing: err=%v, want ErrNotFound", err)
	}

	payload := []byte("\x89PNG fake payload")
	if err := store.Put(ctx, "trips/trip_1/photo_1_1.png", bytes.NewReader(payload), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := store.Open(ctx, "trips/trip_1/photo_1_1.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("content=%q, want %q", got, payload)
	}

	if err := store.Put(ctx, "../escape.png", bytes.NewReader(payload), "image/png"); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
}
