package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

func TestDeck_EditCurrentCardKeepsPresentation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	v := h.start()
	h.tick()
	before := h.engine.View().Presentation

	card, err := h.engine.EditCard(h.ctx, EditCardInput{CardID: v.CurrentCard.ID, FrontText: "new front", BackText: "new back"})
	require.NoError(t, err)
	assert.Equal(t, "new front", card.FrontText)

	after := h.engine.View()
	assert.Equal(t, "new front", after.CurrentCard.FrontText)
	assert.Equal(t, "new back", after.CurrentCard.BackText)
	assert.Equal(t, before, after.Presentation)
	assert.Equal(t, "new back", h.deck.get(v.CurrentCard.ID).BackText)

	// The countdown keeps running and reveals the edited text.
	for range before.Countdown {
		h.tick()
	}
	text, _ := h.lastSpoken()
	assert.Equal(t, "new back", text)
}

func TestDeck_EditQueuedCard(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	h.start()
	queued := sessionOf(h.engine).Queue[1].ID

	_, err := h.engine.EditCard(h.ctx, EditCardInput{CardID: queued, FrontText: "f", BackText: "b"})
	require.NoError(t, err)

	s := sessionOf(h.engine)
	i := s.QueueIndex(queued)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "f", s.Queue[i].FrontText)
	assert.Equal(t, "b", s.Queue[i].BackText)
}

func TestDeck_EditWithoutSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 2)
	id := h.deck.cards[0].ID

	_, err := h.engine.EditCard(h.ctx, EditCardInput{CardID: id, FrontText: "x", BackText: "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", h.deck.get(id).FrontText)
	assert.False(t, h.kv.has(SnapshotKey(h.deckID)), "an idle engine persists nothing")
}

func TestDeck_EditErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 2)

	_, err := h.engine.EditCard(h.ctx, EditCardInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.engine.EditCard(h.ctx, EditCardInput{CardID: uuid.New(), FrontText: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	h.start()
	boom := errors.New("read-only")
	h.decks.UpdateCardFunc = func(ctx context.Context, card domain.Card) (domain.Card, error) {
		return domain.Card{}, boom
	}
	cur := h.engine.View().CurrentCard
	_, err = h.engine.EditCard(h.ctx, EditCardInput{CardID: cur.ID, FrontText: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, cur.FrontText, h.engine.View().CurrentCard.FrontText, "failed edit leaves the session alone")
}

func TestDeck_DeleteLastCardRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	v := h.start()
	before := sessionOf(h.engine)

	err := h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: v.CurrentCard.ID})

	assert.ErrorIs(t, err, domain.ErrLastCard)
	assert.Empty(t, h.decks.DeleteCardCalls())
	after := sessionOf(h.engine)
	assert.Equal(t, before.CurrentCard.ID, after.CurrentCard.ID)
	assert.Equal(t, before.TotalAsked, after.TotalAsked)
	assert.Equal(t, before.Presentation, after.Presentation)
	assert.Equal(t, v.Seq, h.engine.View().Seq)
}

func TestDeck_DeleteLastCardRejectedWithoutSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	err := h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: h.deck.cards[0].ID})
	assert.ErrorIs(t, err, domain.ErrLastCard)
}

func TestDeck_DeleteCurrentAdvances(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	v := h.start()
	h.tick()
	deleted := v.CurrentCard.ID
	next := sessionOf(h.engine).Queue[0].ID

	require.NoError(t, h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: deleted}))

	after := h.engine.View()
	assert.Equal(t, next, after.CurrentCard.ID)
	assert.Equal(t, 2, after.DeckSize)
	assert.Equal(t, 1, after.TotalAsked, "deleted card no longer counts as asked")
	assert.Equal(t, domain.ManualPhaseCountingDown, after.Presentation.ManualPhase)
	assert.Equal(t, h.cfg.CountdownTicks, after.Presentation.Countdown, "fresh card restarts the countdown")

	s := sessionOf(h.engine)
	assert.False(t, s.SeenCards.Has(deleted))
	assert.NotContains(t, queueIDs(s), deleted)
}

func TestDeck_DeleteCurrentWithEmptyQueueResets(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 2)
	h.start()
	h.answer(true)
	h.settle()
	last := h.engine.View().CurrentCard.ID
	require.Empty(t, sessionOf(h.engine).Queue)

	require.NoError(t, h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: last}))

	v := h.engine.View()
	assert.False(t, v.Active)
	assert.False(t, v.Completed, "no completion is forced")
	assert.Nil(t, v.CurrentCard)
	assert.Empty(t, h.completions())
	assert.False(t, h.kv.has(SnapshotKey(h.deckID)))
}

func TestDeck_DeleteQueuedCard(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	v := h.start()
	queued := sessionOf(h.engine).Queue[0].ID

	require.NoError(t, h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: queued}))

	s := sessionOf(h.engine)
	assert.Equal(t, v.CurrentCard.ID, s.CurrentCard.ID)
	assert.NotContains(t, queueIDs(s), queued)
	assert.Len(t, s.Queue, 1)
}

func TestDeck_DeleteAnsweredCardKeepsCompletionReachable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	v := h.start()
	answered := v.CurrentCard.ID
	h.answer(true)
	h.settle()

	require.NoError(t, h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: answered}))
	s := sessionOf(h.engine)
	assert.False(t, s.AnsweredCorrectly.Has(answered))
	assert.Equal(t, 1, s.TotalAsked)

	h.answer(true)
	h.settle()
	got := h.answer(true)
	assert.True(t, got.Completed)
	assert.Equal(t, 2, got.Result.TotalCards)
}

func TestDeck_DeleteCurrentWhileSettling(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 3)
	v := h.start()
	h.answer(false)

	require.NoError(t, h.engine.DeleteCard(h.ctx, DeleteCardInput{CardID: v.CurrentCard.ID}))
	after := h.engine.View()
	assert.NotEqual(t, v.CurrentCard.ID, after.CurrentCard.ID)

	// The stale settle timer must not advance again.
	seq := after.Seq
	h.clk.Advance(h.cfg.SettleDelay)
	assert.Never(t, func() bool { return h.engine.View().Seq != seq }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDeck_AddCardDuringSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)
	h.start()

	card, err := h.engine.AddCard(h.ctx, AddCardInput{FrontText: "neu", BackText: "new"})
	require.NoError(t, err)
	assert.Equal(t, h.deckID, card.DeckID)
	assert.NotEqual(t, uuid.Nil, card.ID)

	v := h.engine.View()
	assert.Equal(t, 2, v.DeckSize)
	assert.Equal(t, 1, v.QueueLength)

	got := h.answer(true)
	assert.False(t, got.Completed, "the added card is still owed an answer")
	h.settle()
	assert.Equal(t, card.ID, h.engine.View().CurrentCard.ID)
	assert.True(t, h.answer(true).Completed)
}

func TestDeck_AddCardWithoutSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 1)

	_, err := h.engine.AddCard(h.ctx, AddCardInput{FrontText: "a", BackText: "b"})
	require.NoError(t, err)

	assert.Equal(t, 2, h.engine.View().DeckSize)
	cards, err := h.engine.ListCards(h.ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}
