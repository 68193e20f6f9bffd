// Package timeout bounds every document I/O and image probe with a deadline.
package timeout

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/imageprobe"
)

// DocumentStore wraps a docstore.Store so each call runs under its own deadline.
// The deadline is propagated through ctx; backends that block (filesystem, postgres) honor it.
type DocumentStore struct {
	inner docstore.Store
	limit time.Duration
}

func NewDocumentStore(inner docstore.Store, limit time.Duration) docstore.Store {
	if limit <= 0 {
		return inner
	}
	return &DocumentStore{inner: inner, limit: limit}
}

func (s *DocumentStore) Get(ctx context.Context, p string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.limit)
	defer cancel()
	b, err := s.inner.Get(ctx, p)
	return b, deadline(ctx, err, "read", p)
}

func (s *DocumentStore) Put(ctx context.Context, p string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.limit)
	defer cancel()
	return deadline(ctx, s.inner.Put(ctx, p, data), "write", p)
}

func (s *DocumentStore) Mkdir(ctx context.Context, p string) error {
	ctx, cancel := context.WithTimeout(ctx, s.limit)
	defer cancel()
	return deadline(ctx, s.inner.Mkdir(ctx, p), "mkdir", p)
}

// deadline makes sure an expired deadline is visible in the chain even when the backend
// reports a different error (pgx, for instance, may return a network error).
func deadline(ctx context.Context, err error, op, p string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s %s: %w (%v)", op, p, context.DeadlineExceeded, err)
	}
	return err
}

// Prober wraps an imageprobe.Prober. Decoding does not observe ctx, so the probe runs in a
// goroutine and the caller stops waiting once the deadline passes.
type Prober struct {
	inner imageprobe.Prober
	limit time.Duration
}

func NewProber(inner imageprobe.Prober, limit time.Duration) imageprobe.Prober {
	if limit <= 0 {
		return inner
	}
	return &Prober{inner: inner, limit: limit}
}

type probeResult struct {
	dim imageprobe.Dimensions
	err error
}

func (p *Prober) Probe(ctx context.Context, r io.Reader) (imageprobe.Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, p.limit)
	defer cancel()

	done := make(chan probeResult, 1)
	go func() {
		d, err := p.inner.Probe(ctx, r)
		done <- probeResult{dim: d, err: err}
	}()

	select {
	case res := <-done:
		return res.dim, res.err
	case <-ctx.Done():
		return imageprobe.Dimensions{}, fmt.Errorf("probe image: %w", ctx.Err())
	}
}

var (
	_ docstore.Store    = (*DocumentStore)(nil)
	_ imageprobe.Prober = (*Prober)(nil)
)
