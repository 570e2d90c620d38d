package deckimport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// deckStore is the card persistence the importer writes to.
type deckStore interface {
	ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (domain.Card, error)
}

// bulkCreator is used instead of CreateCard when the store supports it.
type bulkCreator interface {
	CreateCards(ctx context.Context, cards []domain.Card) (int, error)
}

// Result summarizes an import.
type Result struct {
	Read       int
	Created    int
	Duplicates int
	Blank      int
}

// Importer adds rows to a deck, skipping pairs the deck already holds.
type Importer struct {
	deck  deckStore
	clock clockwork.Clock
	log   *slog.Logger
}

// NewImporter creates an Importer writing to deck.
func NewImporter(deck deckStore, clock clockwork.Clock, logger *slog.Logger) *Importer {
	return &Importer{deck: deck, clock: clock, log: logger.With("service", "deckimport")}
}

// Import creates a card for every row whose normalized front/back pair is
// neither blank nor already present in the deck or earlier in rows.
// With dryRun set nothing is written.
func (im *Importer) Import(ctx context.Context, deckID uuid.UUID, rows []Row, dryRun bool) (Result, error) {
	existing, err := im.deck.ListCards(ctx, deckID)
	if err != nil {
		return Result{}, fmt.Errorf("list cards: %w", err)
	}

	seen := make(map[string]struct{}, len(existing)+len(rows))
	for _, c := range existing {
		seen[pairKey(c.FrontText, c.BackText)] = struct{}{}
	}

	res := Result{Read: len(rows)}
	now := im.clock.Now()
	cards := make([]domain.Card, 0, len(rows))

	for i, row := range rows {
		if row.Front == "" && row.Back == "" {
			res.Blank++
			continue
		}
		key := pairKey(row.Front, row.Back)
		if _, dup := seen[key]; dup {
			im.log.DebugContext(ctx, "duplicate row skipped", slog.Int("line", row.Line))
			res.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		// Distinct timestamps keep the file order in creation-ordered listings.
		created := now.Add(time.Duration(i) * time.Microsecond)
		cards = append(cards, domain.Card{
			ID:        uuid.New(),
			DeckID:    deckID,
			FrontText: row.Front,
			BackText:  row.Back,
			CreatedAt: created,
			UpdatedAt: created,
		})
	}

	if dryRun || len(cards) == 0 {
		im.log.InfoContext(ctx, "import planned",
			slog.Int("read", res.Read),
			slog.Int("new", len(cards)),
			slog.Bool("dry_run", dryRun),
		)
		return res, nil
	}

	res.Created, err = im.write(ctx, cards)
	if err != nil {
		return res, err
	}

	im.log.InfoContext(ctx, "import completed",
		slog.Int("read", res.Read),
		slog.Int("created", res.Created),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("blank", res.Blank),
	)
	return res, nil
}

func (im *Importer) write(ctx context.Context, cards []domain.Card) (int, error) {
	if bulk, ok := im.deck.(bulkCreator); ok {
		n, err := bulk.CreateCards(ctx, cards)
		if err != nil {
			return 0, fmt.Errorf("create cards: %w", err)
		}
		return n, nil
	}

	for i, c := range cards {
		if _, err := im.deck.CreateCard(ctx, c); err != nil {
			return i, fmt.Errorf("create card %q: %w", c.FrontText, err)
		}
	}
	return len(cards), nil
}
