// Package media persists uploaded photo assets and derives their initial metadata.
package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/imageprobe"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/mediastore"
)

// PlaceholderLoc is the location given to every ingested photo until real metadata exists.
const PlaceholderLoc = "Local device"

// Upload is one uploaded file. Open may be called more than once.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// BytesUpload wraps in-memory content as an Upload.
func BytesUpload(name string, data []byte) Upload {
	return Upload{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

type Ingestor struct {
	store    mediastore.Store
	prober   imageprobe.Prober
	clock    clock.Clock
	thumbs   imageprobe.Thumbnailer
	thumbMax int
}

func NewIngestor(store mediastore.Store, prober imageprobe.Prober, clk clock.Clock) *Ingestor {
	return &Ingestor{store: store, prober: prober, clock: clk}
}

// WithThumbnails enables a <photoId>_thumb.png rendition bounded by maxDim. maxDim <= 0 disables it.
func (i *Ingestor) WithThumbnails(t imageprobe.Thumbnailer, maxDim int) *Ingestor {
	i.thumbs = t
	i.thumbMax = maxDim
	return i
}

// Ingest stores uploads in order as photos startOrdinal+1, startOrdinal+2, ... of trip.
// Returned photos have no owner; they are not yet part of the trip.
func (i *Ingestor) Ingest(ctx context.Context, trip domain.TripID, startOrdinal int, uploads []Upload) ([]domain.Photo, error) {
	now := i.clock.Now()
	out := make([]domain.Photo, 0, len(uploads))
	ordinal := startOrdinal

	for _, up := range uploads {
		ordinal++
		id, err := domain.NewPhotoID(trip, ordinal)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidInput, "invalid trip id", err)
		}
		key := docstore.PhotoAssetKey(trip, id)

		if err := i.persist(ctx, up, key); err != nil {
			return nil, err
		}
		dim, err := i.probe(ctx, up)
		if err != nil {
			return nil, err
		}

		p := domain.Photo{
			ID:     id,
			Loc:    PlaceholderLoc,
			Date:   domain.FormatDate(now),
			Time:   domain.FormatTime(now),
			Width:  dim.Width,
			Height: dim.Height,
			Src:    key,
		}
		if thumb, ok := i.thumbnail(ctx, trip, id, up); ok {
			p.ThumbSrc = thumb
		}

		log.Debug().
			Str("trip_id", string(trip)).
			Str("photo_id", string(id)).
			Str("upload", up.Name).
			Int("width", dim.Width).
			Int("height", dim.Height).
			Msg("photo ingested")
		out = append(out, p)
	}
	return out, nil
}

func (i *Ingestor) persist(ctx context.Context, up Upload, key string) error {
	rc, err := up.Open()
	if err != nil {
		return apperr.Wrap(apperr.IOError, "could not read upload", err)
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	head, _ := br.Peek(512)
	if err := i.store.Put(ctx, key, br, http.DetectContentType(head)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Wrap(apperr.Timeout, "storing photo timed out", err)
		}
		return apperr.Wrap(apperr.IOError, "could not store photo", err)
	}
	return nil
}

func (i *Ingestor) probe(ctx context.Context, up Upload) (imageprobe.Dimensions, error) {
	rc, err := up.Open()
	if err != nil {
		return imageprobe.Dimensions{}, apperr.Wrap(apperr.IOError, "could not read upload", err)
	}
	defer rc.Close()

	dim, err := i.prober.Probe(ctx, rc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return imageprobe.Dimensions{}, apperr.Wrap(apperr.Timeout, "image probe timed out", err)
		}
		return imageprobe.Dimensions{}, &apperr.Error{
			Kind:    apperr.ImageDecodeError,
			Message: "image could not be decoded",
			Details: map[string]any{"file": up.Name},
			Err:     err,
		}
	}
	return dim, nil
}

// thumbnail failures are logged and leave the photo without a thumbnail.
func (i *Ingestor) thumbnail(ctx context.Context, trip domain.TripID, id domain.PhotoID, up Upload) (string, bool) {
	if i.thumbs == nil || i.thumbMax <= 0 {
		return "", false
	}
	rc, err := up.Open()
	if err != nil {
		log.Warn().Err(err).Str("photo_id", string(id)).Msg("thumbnail skipped")
		return "", false
	}
	defer rc.Close()

	var buf bytes.Buffer
	if err := i.thumbs.Thumbnail(ctx, rc, i.thumbMax, &buf); err != nil {
		log.Warn().Err(err).Str("photo_id", string(id)).Msg("thumbnail skipped")
		return "", false
	}
	key := docstore.ThumbnailAssetKey(trip, id)
	if err := i.store.Put(ctx, key, &buf, "image/png"); err != nil {
		log.Warn().Err(fmt.Errorf("store thumbnail: %w", err)).Str("photo_id", string(id)).Msg("thumbnail skipped")
		return "", false
	}
	return key, true
}
