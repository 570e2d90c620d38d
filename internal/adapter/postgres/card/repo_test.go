package card_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres/card"
	"github.com/heartmarshall/myenglish-session/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/myenglish-session/internal/domain"
)

func newCard(deckID uuid.UUID, front string, created time.Time) domain.Card {
	return domain.Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		FrontText: front,
		BackText:  front + "-back",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestRepo_CRUD(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := card.New(pool)
	ctx := context.Background()
	deckID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first, err := repo.CreateCard(ctx, newCard(deckID, "hola", base))
	require.NoError(t, err)
	second, err := repo.CreateCard(ctx, newCard(deckID, "adios", base.Add(time.Second)))
	require.NoError(t, err)
	testhelper.SeedCard(t, pool, uuid.New())

	cards, err := repo.ListCards(ctx, deckID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, first, cards[0])
	assert.Equal(t, second.ID, cards[1].ID)

	asked := base.Add(time.Minute)
	first.RecordIncorrect(asked)
	first.FrontText = "hola!"
	updated, err := repo.UpdateCard(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.IncorrectCount)
	assert.True(t, updated.NeedsReview)
	require.NotNil(t, updated.LastAskedAt)
	assert.True(t, asked.Equal(*updated.LastAskedAt))
	assert.Equal(t, "hola!", updated.FrontText)

	require.NoError(t, repo.DeleteCard(ctx, deckID, second.ID))
	cards, err = repo.ListCards(ctx, deckID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, first.ID, cards[0].ID)
}

func TestRepo_Errors(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := card.New(pool)
	ctx := context.Background()
	deckID := uuid.New()

	c, err := repo.CreateCard(ctx, newCard(deckID, "uno", time.Now().UTC()))
	require.NoError(t, err)

	_, err = repo.CreateCard(ctx, c)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	other := c
	other.DeckID = uuid.New()
	_, err = repo.UpdateCard(ctx, other)
	assert.ErrorIs(t, err, domain.ErrNotFound, "cards are scoped to their deck")

	assert.ErrorIs(t, repo.DeleteCard(ctx, deckID, uuid.New()), domain.ErrNotFound)

	bad := c
	bad.CorrectCount = -1
	_, err = repo.UpdateCard(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cards, err := repo.ListCards(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestRepo_CreateCards(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := card.New(pool)
	ctx := context.Background()
	deckID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	batch := make([]domain.Card, 0, 3)
	for i, front := range []string{"a", "b", "c"} {
		batch = append(batch, newCard(deckID, front, now.Add(time.Duration(i)*time.Millisecond)))
	}

	n, err := repo.CreateCards(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cards, err := repo.ListCards(ctx, deckID)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestRepo_CreateCards_AllOrNothing(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	repo := card.New(pool)
	ctx := context.Background()
	deckID := uuid.New()
	now := time.Now().UTC()

	existing, err := repo.CreateCard(ctx, newCard(deckID, "taken", now))
	require.NoError(t, err)

	_, err = repo.CreateCards(ctx, []domain.Card{newCard(deckID, "fresh", now), existing})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	cards, err := repo.ListCards(ctx, deckID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}
