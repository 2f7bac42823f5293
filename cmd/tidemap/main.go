package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/bbernstein/tidemap/internal/config"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/handler"
	"github.com/bbernstein/tidemap/internal/storage"
	"github.com/bbernstein/tidemap/internal/tide"
	"github.com/bbernstein/tidemap/pkg/http/client"
	"github.com/rs/zerolog/log"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// newServer wires the session server from configuration. The returned
// cleanup releases the storage backend.
func newServer(ctx context.Context, cfg *config.Config) (*handler.Server, func(), error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	apiClient := client.New(client.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
	})
	mapsClient := client.New(client.Options{
		BaseURL: cfg.MapsBaseURL,
		Timeout: cfg.HTTPTimeout,
	})

	srv, err := handler.New(handler.Deps{
		Config:   cfg,
		Cache:    config.GetCacheConfig(),
		Storage:  store,
		Tide:     tide.NewClient(apiClient),
		Provider: geocode.NewGoogleProvider(mapsClient, cfg.MapsAPIKey),
		Searcher: geocode.NewSearcher(cfg.NominatimServer),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing handler: %w", err)
	}

	cleanup := func() {
		srv.Close()
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close storage")
			}
		}
	}
	return srv, cleanup, nil
}

func run(ctx context.Context) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	cfg.InitializeLogging()

	srv, cleanup, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("storage", cfg.Storage.Backend).Msg("Listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
