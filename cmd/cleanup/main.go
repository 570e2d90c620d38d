// Command cleanup removes persisted session snapshots not written within
// the configured janitor retention. It is intended to be invoked by an
// external cron job when the in-process janitor is disabled.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/app"
	"github.com/heartmarshall/myenglish-session/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	clock := clockwork.NewRealClock()

	storage, err := app.OpenStorage(ctx, logger, cfg.Storage, clock)
	if err != nil {
		logger.Error("open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	janitor := app.NewJanitor(storage.Snapshots, clock, cfg.Janitor.Interval, cfg.Janitor.Retention, logger)

	deleted, err := janitor.Sweep(ctx)
	if err != nil {
		logger.Error("snapshot cleanup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("snapshot cleanup completed", slog.Int64("deleted", deleted))
}
