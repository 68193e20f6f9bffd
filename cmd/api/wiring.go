package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/counter"
	doctriprepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/triprepo"
	docuserrepo "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/documents/userrepo"
	fsdocstore "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/filesystem/docstore"
	fsmedia "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/filesystem/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/imaging"
	memdocstore "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/docstore"
	memmedia "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/memory/mediastore"
	postgres "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/postgres"
	pgdocstore "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/postgres/docstore"
	s3media "github.com/Overland-East-Bay/trip-journal-api/internal/adapters/s3/mediastore"
	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/timeout"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/aggregate"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/media"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/trips"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/users"
	platformclock "github.com/Overland-East-Bay/trip-journal-api/internal/platform/clock"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/config"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/password"
	docstoreport "github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
	mediastoreport "github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/mediastore"
)

// app holds the wired services and whatever must be released on exit.
type app struct {
	documents docstoreport.Store
	users     *users.Service
	trips     *trips.Service

	// mediaDir is set when assets live on the local filesystem and can be served directly.
	mediaDir string

	cleanup []func()
}

func (a *app) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{}

	docs, err := openDocuments(ctx, cfg.Storage, a)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.documents = timeout.NewDocumentStore(docs, cfg.Storage.Timeout)

	assets, err := openMedia(ctx, cfg.Media, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc, err := cfg.PhotoLocation()
	if err != nil {
		a.Close()
		return nil, err
	}
	clk := platformclock.NewSystemClock(loc)
	counters := counter.NewService(a.documents)
	userRepo := docuserrepo.NewRepo(a.documents, counters)
	tripRepo := doctriprepo.NewRepo(a.documents, counters)
	views := aggregate.New(userRepo, tripRepo, cfg.PublicBaseURL)

	ingest := media.NewIngestor(assets, timeout.NewProber(imaging.NewProber(), cfg.Media.ProbeTimeout), clk).
		WithThumbnails(imaging.NewThumbnailer(), cfg.Media.ThumbnailMaxDim)

	a.users = users.NewService(userRepo, views, password.Hasher{}, users.Defaults{
		AvatarSrc:     cfg.Defaults.AvatarSrc,
		ProfileBkgSrc: cfg.Defaults.ProfileBkgSrc,
	})
	a.trips = trips.NewService(tripRepo, userRepo, views, ingest, clk)
	return a, nil
}

func openDocuments(ctx context.Context, cfg config.StorageConfig, a *app) (docstoreport.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		log.Warn().Msg("memory document store: data is lost on exit")
		return memdocstore.NewStore(), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		a.cleanup = append(a.cleanup, pool.Close)
		store := pgdocstore.NewStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	default:
		store, err := fsdocstore.NewStore(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("open document root: %w", err)
		}
		return store, nil
	}
}

func openMedia(ctx context.Context, cfg config.MediaConfig, a *app) (mediastoreport.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return memmedia.NewStore(), nil
	case "s3":
		store, err := s3media.New(ctx, s3media.Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 media store: %w", err)
		}
		return store, nil
	default:
		store, err := fsmedia.NewStore(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("open media root: %w", err)
		}
		a.mediaDir = store.Root()
		return store, nil
	}
}
