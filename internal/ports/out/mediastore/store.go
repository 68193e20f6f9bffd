package mediastore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates no asset exists under the key.
var ErrNotFound = errors.New("media asset not found")

// Store persists binary assets under root-relative, slash-separated keys
// (e.g. trips/trip_1/photo_1_1.png).
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
