package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/adapter/memory"
	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres"
	pgcard "github.com/heartmarshall/myenglish-session/internal/adapter/postgres/card"
	pgsnapshot "github.com/heartmarshall/myenglish-session/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/myenglish-session/internal/adapter/sqlite"
	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// DeckStore is the card persistence shared by the server and the commands.
type DeckStore interface {
	ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	DeleteCard(ctx context.Context, deckID, cardID uuid.UUID) error
}

// SnapshotStore is the key-value store holding persisted sessions.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	DeleteOlderThan(ctx context.Context, t time.Time) (int64, error)
}

// Storage bundles the stores of the configured driver.
type Storage struct {
	Deck      DeckStore
	Snapshots SnapshotStore

	ping  func(ctx context.Context) error
	close func()
}

// Ping verifies the backing database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backing database.
func (s *Storage) Close() {
	s.close()
}

// OpenStorage connects the stores selected by cfg.Driver.
func OpenStorage(ctx context.Context, logger *slog.Logger, cfg config.StorageConfig, clock clockwork.Clock) (*Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &Storage{
			Deck:      memory.NewDeckStore(),
			Snapshots: memory.NewSnapshotStore(clock),
			ping:      func(context.Context) error { return nil },
			close:     func() {},
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, logger, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Storage{
			Deck:      sqlite.NewDeckStore(db),
			Snapshots: sqlite.NewSnapshotStore(db, clock),
			ping:      db.Ping,
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("close sqlite", slog.String("error", err.Error()))
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, logger, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, logger, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return &Storage{
			Deck:      pgcard.New(pool),
			Snapshots: pgsnapshot.New(pool, clock),
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
