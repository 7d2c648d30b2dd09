package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultConfigPath = "config.yml"

func main() {
	path := os.Getenv("GOMOKU_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := LoadConfig(path)
	logger := newLogger(loggerConfig(cfg, err), os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("failed to load config")
	}
	configStore.Update(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("backend stopped")
	}
	logger.Info().Msg("backend stopped")
}

// loggerConfig falls back to defaults so a broken config can still be
// reported through the logger.
func loggerConfig(cfg Config, err error) Config {
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

func run(cfg Config, logger zerolog.Logger) error {
	controller, err := NewGameController(DefaultGameSettings(), logger)
	if err != nil {
		return err
	}
	defer controller.Close()

	hub := NewHub()
	overlayHub := NewOverlayHub()
	controller.SetOverlayPublisher(func(decision AIDecision) {
		overlayHub.Publish(overlayFromDecision(decision))
	})

	srv := &server{
		controller: controller,
		hub:        hub,
		overlayHub: overlayHub,
		logger:     logger.With().Str("component", "http").Logger(),
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		overlayHub.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		runGameLoop(ctx, cfg.TickInterval, srv)
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("backend listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown failed")
			return httpServer.Close()
		}
		return nil
	})
	return g.Wait()
}

// runGameLoop ticks the controller and pushes every state change to the
// renderers.
func runGameLoop(ctx context.Context, interval time.Duration, srv *server) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := srv.controller.HistorySize()
			if srv.controller.Tick() {
				srv.publishLatest(srv.controller.HistorySize() > before)
			}
		}
	}
}
