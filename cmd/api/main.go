package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Overland-East-Bay/trip-journal-api/internal/adapters/httpapi"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/config"
	"github.com/Overland-East-Bay/trip-journal-api/internal/platform/logging"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/docstore"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "trip-journal-api",
	Short:        "Trip journal HTTP backend",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := docstore.Bootstrap(ctx, a.documents); err != nil {
			return fmt.Errorf("bootstrap storage: %w", err)
		}

		api := httpapi.NewServer(a.users, a.trips)
		api.MaxUploadBytes = cfg.Media.MaxUploadBytes
		handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{MediaDir: a.mediaDir})

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().
				Str("port", cfg.Port).
				Str("storage", cfg.Storage.Backend).
				Str("media", cfg.Media.Backend).
				Msg("api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the initial document layout (and the postgres schema) if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := docstore.Bootstrap(ctx, a.documents); err != nil {
			return fmt.Errorf("bootstrap storage: %w", err)
		}
		log.Info().Str("storage", cfg.Storage.Backend).Msg("storage initialized")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
