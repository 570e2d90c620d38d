// Command import-deck adds front/back pairs from a CSV, TSV or XLSX file to
// a deck in the configured store. Pairs already in the deck are skipped.
//
// Flags:
//
//	--file         path to the .csv, .tsv/.txt or .xlsx file (required)
//	--deck         deck id (default: session.deck_id from config)
//	--sheet        XLSX sheet name (default: first sheet)
//	--skip-header  drop the first row
//	--dry-run      read and deduplicate without writing
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/app"
	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/deckimport"
)

func main() {
	fileFlag := flag.String("file", "", "path to the file to import")
	deckFlag := flag.String("deck", "", "deck id (default: session.deck_id)")
	sheetFlag := flag.String("sheet", "", "XLSX sheet name (default: first sheet)")
	skipHeaderFlag := flag.Bool("skip-header", false, "drop the first row")
	dryRunFlag := flag.Bool("dry-run", false, "read and deduplicate without writing")
	flag.Parse()

	if *fileFlag == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	deck := cfg.Session.DeckID
	if *deckFlag != "" {
		deck = *deckFlag
	}
	deckID, err := uuid.Parse(deck)
	if err != nil {
		logger.Error("invalid deck id", slog.String("deck", deck), slog.String("error", err.Error()))
		os.Exit(1)
	}

	rows, err := deckimport.ReadFile(*fileFlag, deckimport.Options{
		Sheet:      *sheetFlag,
		SkipHeader: *skipHeaderFlag,
	})
	if err != nil {
		logger.Error("read file", slog.String("file", *fileFlag), slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	clock := clockwork.NewRealClock()

	storage, err := app.OpenStorage(ctx, logger, cfg.Storage, clock)
	if err != nil {
		logger.Error("open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	res, err := deckimport.NewImporter(storage.Deck, clock, logger).Import(ctx, deckID, rows, *dryRunFlag)
	storage.Close()
	if err != nil {
		logger.Error("import failed", slog.Int("created", res.Created), slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import finished",
		slog.String("deck_id", deckID.String()),
		slog.Int("read", res.Read),
		slog.Int("created", res.Created),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("blank", res.Blank),
	)
}
