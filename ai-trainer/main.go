package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type arenaConfig struct {
	BoardSize    int     `env:"ARENA_BOARD_SIZE" env-default:"15" env-description:"board side"`
	DepthA       int     `env:"ARENA_DEPTH_A" env-default:"1" env-description:"search depth of the first contender"`
	DepthB       int     `env:"ARENA_DEPTH_B" env-default:"2" env-description:"search depth of the second contender"`
	Games        int     `env:"ARENA_GAMES" env-default:"10" env-description:"games to play, colours alternate"`
	Parallel     int     `env:"ARENA_PARALLEL" env-default:"2" env-description:"games played concurrently"`
	OpeningPlies int     `env:"ARENA_OPENING_PLIES" env-default:"2" env-description:"seeded stones placed before the engines take over"`
	Seed         uint64  `env:"ARENA_SEED" env-default:"1" env-description:"seed for openings and engine fallbacks"`
	EloK         float64 `env:"ARENA_ELO_K" env-default:"20"`
	InitialElo   float64 `env:"ARENA_INITIAL_ELO" env-default:"1500"`
	APIAddr      string  `env:"ARENA_API_ADDR" env-description:"status API address, empty disables it"`
	LogLevel     string  `env:"ARENA_LOG_LEVEL" env-default:"info"`
}

var errInvalidArenaConfig = errors.New("invalid arena config")

func loadArenaConfig() (arenaConfig, error) {
	var cfg arenaConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return arenaConfig{}, fmt.Errorf("read arena config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c arenaConfig) Validate() error {
	switch {
	case c.BoardSize < 5:
		return fmt.Errorf("%w: board size %d is below 5", errInvalidArenaConfig, c.BoardSize)
	case c.DepthA < 1 || c.DepthB < 1:
		return fmt.Errorf("%w: depths must be at least 1", errInvalidArenaConfig)
	case c.Games < 1:
		return fmt.Errorf("%w: at least one game is required", errInvalidArenaConfig)
	case c.OpeningPlies < 0 || c.OpeningPlies > c.BoardSize*c.BoardSize/2:
		return fmt.Errorf("%w: opening plies %d out of range", errInvalidArenaConfig, c.OpeningPlies)
	case c.EloK <= 0:
		return fmt.Errorf("%w: elo k must be positive", errInvalidArenaConfig)
	}
	return nil
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("component", "arena").Logger()

	cfg, err := loadArenaConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("arena stopped")
	}
}

func run(ctx context.Context, cfg arenaConfig, logger zerolog.Logger) error {
	a := newArena(cfg, logger)
	logger.Info().
		Int("board_size", cfg.BoardSize).
		Int("depth_a", cfg.DepthA).
		Int("depth_b", cfg.DepthB).
		Int("games", cfg.Games).
		Int("parallel", cfg.Parallel).
		Msg("arena starting")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		standings, err := a.Run(ctx)
		if err != nil {
			return err
		}
		for _, s := range standings {
			logger.Info().
				Str("id", s.ID).
				Float64("elo", s.Elo).
				Int("wins", s.Wins).
				Int("losses", s.Losses).
				Int("draws", s.Draws).
				Float64("mean_search_ms", s.MeanSearchMs).
				Msg("standing")
		}
		return nil
	})

	if cfg.APIAddr != "" {
		server := &http.Server{
			Addr:              cfg.APIAddr,
			Handler:           newStatusRouter(ctx, a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.APIAddr).Msg("status api listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}

// newStatusRouter serves arena progress. POST /api/arena/start plays another
// round of games with the ratings carried over.
func newStatusRouter(ctx context.Context, a *arena) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/arena/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": a.getStatus().Running})
	})
	r.Get("/api/arena/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.getStatus())
	})
	r.Post("/api/arena/start", func(w http.ResponseWriter, r *http.Request) {
		if a.getStatus().Running {
			writeJSON(w, http.StatusConflict, map[string]string{"error": errArenaRunning.Error()})
			return
		}
		go func() {
			if _, err := a.Run(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("arena round failed")
			}
		}()
		writeJSON(w, http.StatusAccepted, a.getStatus())
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
