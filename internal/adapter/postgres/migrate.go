package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/myenglish-session/migrations"
)

// Migrate applies every pending goose migration embedded in the binary.
func Migrate(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	// goose requires *sql.DB; the wrapper shares the pool's connections.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return MigrateDB(ctx, log, db, migrations.FS)
}

// MigrateDB applies the migrations found in fsys to db.
// goose.NewProvider handles $$-delimited PL/pgSQL bodies correctly, unlike
// the legacy goose.Up which splits on semicolons.
func MigrateDB(ctx context.Context, log *slog.Logger, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}

	return nil
}
