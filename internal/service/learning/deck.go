package learning

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// ListCards returns the deck as stored.
func (e *Engine) ListCards(ctx context.Context) ([]domain.Card, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return nil, ErrClosed
	}

	cards, err := e.listDeck(ctx)
	if err != nil {
		return nil, err
	}
	if !e.sess.Active {
		e.cards = cards
	}

	out := make([]domain.Card, len(cards))
	for i := range cards {
		out[i] = cards[i].Clone()
	}
	return out, nil
}

// EditCard replaces a card's text. The current card and its queued copies
// are patched in place; the presentation phase is left alone.
func (e *Engine) EditCard(ctx context.Context, input EditCardInput) (domain.Card, error) {
	if err := input.Validate(); err != nil {
		return domain.Card{}, err
	}

	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.Card{}, ErrClosed
	}

	card, err := e.findCardLocked(ctx, input.CardID)
	if err != nil {
		return domain.Card{}, err
	}
	card.FrontText = input.FrontText
	card.BackText = input.BackText
	card.UpdatedAt = e.now()

	updated, err := e.deck.UpdateCard(ctx, card)
	if err != nil {
		return domain.Card{}, fmt.Errorf("update card: %w", err)
	}

	e.patchTextLocked(input.CardID, input.FrontText, input.BackText)

	e.log.InfoContext(ctx, "card edited", slog.String("card_id", input.CardID.String()))

	e.persistLocked(ctx)
	e.publishLocked()
	return updated, nil
}

// DeleteCard removes a card from the deck and from the running session.
// Deleting the last card of the deck is rejected with the state unchanged.
func (e *Engine) DeleteCard(ctx context.Context, input DeleteCardInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return ErrClosed
	}

	if !e.sess.Active {
		if err := e.refreshDeckLocked(ctx); err != nil {
			return err
		}
	}
	if _, err := e.findCardLocked(ctx, input.CardID); err != nil {
		return err
	}
	if len(e.cards) <= 1 {
		return domain.ErrLastCard
	}

	if err := e.deck.DeleteCard(ctx, e.deckID, input.CardID); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}

	e.log.InfoContext(ctx, "card deleted", slog.String("card_id", input.CardID.String()))

	if i := e.cardIndexLocked(input.CardID); i >= 0 {
		e.cards = slices.Delete(e.cards, i, i+1)
	}

	if !e.sess.Active {
		e.publishLocked()
		return nil
	}

	e.sess.Queue = slices.DeleteFunc(e.sess.Queue, func(c domain.Card) bool { return c.ID == input.CardID })
	e.sess.AnsweredCorrectly.Remove(input.CardID)
	if e.sess.SeenCards.Remove(input.CardID) {
		e.sess.TotalAsked--
	}

	if e.sess.CurrentCard != nil && e.sess.CurrentCard.ID == input.CardID {
		e.sess.CurrentCard = nil
		if len(e.sess.Queue) == 0 {
			e.log.InfoContext(ctx, "current card was the last one queued, resetting session")
			e.resetLocked(ctx)
			return nil
		}
		e.advanceLocked(ctx)
	}

	e.persistLocked(ctx)
	e.publishLocked()
	return nil
}

// AddCard creates a card in the deck. While a session is active the card is
// also queued so the pass can still complete.
func (e *Engine) AddCard(ctx context.Context, input AddCardInput) (domain.Card, error) {
	if err := input.Validate(); err != nil {
		return domain.Card{}, err
	}

	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.Card{}, ErrClosed
	}

	now := e.now()
	created, err := e.deck.CreateCard(ctx, domain.Card{
		ID:        uuid.New(),
		DeckID:    e.deckID,
		FrontText: input.FrontText,
		BackText:  input.BackText,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Card{}, fmt.Errorf("create card: %w", err)
	}

	e.log.InfoContext(ctx, "card added", slog.String("card_id", created.ID.String()))

	if e.sess.Active {
		e.cards = append(e.cards, created.Normalized())
		e.sess.Queue = append(e.sess.Queue, created.Normalized())
		e.persistLocked(ctx)
	} else if err := e.refreshDeckLocked(ctx); err != nil {
		e.log.WarnContext(ctx, "failed to reload deck", slog.String("error", err.Error()))
	}

	e.publishLocked()
	return created, nil
}

// findCardLocked looks a card up in the loaded deck, reloading it from the
// store when the card is not there.
func (e *Engine) findCardLocked(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	if i := e.cardIndexLocked(id); i >= 0 {
		return e.cards[i].Clone(), nil
	}

	cards, err := e.listDeck(ctx)
	if err != nil {
		return domain.Card{}, err
	}
	if !e.sess.Active {
		e.cards = cards
	}
	for i := range cards {
		if cards[i].ID == id {
			return cards[i].Clone(), nil
		}
	}
	return domain.Card{}, domain.ErrNotFound
}

func (e *Engine) refreshDeckLocked(ctx context.Context) error {
	cards, err := e.listDeck(ctx)
	if err != nil {
		return err
	}
	e.cards = cards
	return nil
}

func (e *Engine) patchTextLocked(id uuid.UUID, front, back string) {
	if i := e.cardIndexLocked(id); i >= 0 {
		e.cards[i].FrontText = front
		e.cards[i].BackText = back
	}
	if c := e.sess.CurrentCard; c != nil && c.ID == id {
		c.FrontText = front
		c.BackText = back
	}
	for i := range e.sess.Queue {
		if e.sess.Queue[i].ID == id {
			e.sess.Queue[i].FrontText = front
			e.sess.Queue[i].BackText = back
		}
	}
}
