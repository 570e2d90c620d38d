package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/service/learning"
	"github.com/heartmarshall/myenglish-session/internal/transport/middleware"
	"github.com/heartmarshall/myenglish-session/internal/transport/rest"
)

// eventKeepalive is the idle interval between SSE comments.
const eventKeepalive = 15 * time.Second

// Run is the application entry point. It loads configuration, opens the
// configured stores, restores any persisted session, and serves the HTTP
// API until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("speech", cfg.Speech.Provider),
	)

	deckID, err := uuid.Parse(cfg.Session.DeckID)
	if err != nil {
		return fmt.Errorf("parse deck id: %w", err)
	}

	clock := clockwork.NewRealClock()

	storage, err := OpenStorage(ctx, logger, cfg.Storage, clock)
	if err != nil {
		return err
	}
	defer storage.Close()

	voice, err := newNarrator(logger, cfg.Speech, clock)
	if err != nil {
		return err
	}

	// --- Engine ---
	engine := learning.New(logger, deckID, storage.Deck, storage.Snapshots, voice, clock,
		newRand(cfg.Session.Seed, clock), engineConfig(cfg.Session, cfg.Speech))
	defer engine.Close()
	engine.OnComplete(logResult(logger))

	restored, err := engine.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	logger.Info("engine ready", slog.Bool("restored", restored))

	// --- HTTP ---
	limiter := middleware.NewRateLimiter(clock, time.Minute)
	defer limiter.Stop()

	handler := rest.NewRouter(rest.Handlers{
		Session: rest.NewSessionHandler(engine, clock, eventKeepalive, logger),
		Cards:   rest.NewCardHandler(engine, logger),
		Health:  rest.NewHealthHandler(storage, engine, BuildVersion()),
	},
		middleware.Chain(
			middleware.RequestID,
			middleware.Logger(logger),
			middleware.Recovery(logger),
			middleware.CORS(cfg.CORS),
		),
		limiter.Limit(cfg.Server.RateLimit),
	)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Janitor.Enabled {
		janitor := NewJanitor(storage.Snapshots, clock, cfg.Janitor.Interval, cfg.Janitor.Retention, logger)
		if err := janitor.Start(ctx); err != nil {
			return err
		}
		defer janitor.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Streaming clients only leave once the engine closes their subscriptions.
		engine.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("application stopped")
	return nil
}
