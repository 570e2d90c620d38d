package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// SeedCard inserts a card into deckID with fresh ids and texts.
func SeedCard(t *testing.T, pool *pgxpool.Pool, deckID uuid.UUID) domain.Card {
	t.Helper()

	suffix := uuid.New().String()[:8]
	now := time.Now().UTC().Truncate(time.Microsecond)
	card := domain.Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		FrontText: "front-" + suffix,
		BackText:  "back-" + suffix,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO cards (id, deck_id, front_text, back_text, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		card.ID, card.DeckID, card.FrontText, card.BackText, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCard insert: %v", err)
	}

	return card
}
