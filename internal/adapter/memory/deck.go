// Package memory implements in-process deck and snapshot stores. State is
// lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// DeckStore keeps cards per deck in insertion order.
type DeckStore struct {
	mu    sync.RWMutex
	decks map[uuid.UUID][]domain.Card
}

// NewDeckStore creates an empty DeckStore.
func NewDeckStore() *DeckStore {
	return &DeckStore{
		decks: make(map[uuid.UUID][]domain.Card),
	}
}

// ListCards returns copies of the deck's cards in insertion order.
func (s *DeckStore) ListCards(_ context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards := s.decks[deckID]
	out := make([]domain.Card, len(cards))
	for i := range cards {
		out[i] = cards[i].Clone()
	}
	return out, nil
}

// CreateCard appends a card to its deck.
// Returns domain.ErrAlreadyExists if a card with the same id is stored.
func (s *DeckStore) CreateCard(_ context.Context, card domain.Card) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(card.DeckID, card.ID) >= 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", card.ID, domain.ErrAlreadyExists)
	}
	s.decks[card.DeckID] = append(s.decks[card.DeckID], card.Clone())
	return card, nil
}

// UpdateCard replaces a stored card.
// Returns domain.ErrNotFound if the card is not in its deck.
func (s *DeckStore) UpdateCard(_ context.Context, card domain.Card) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(card.DeckID, card.ID)
	if i < 0 {
		return domain.Card{}, fmt.Errorf("card %s: %w", card.ID, domain.ErrNotFound)
	}
	s.decks[card.DeckID][i] = card.Clone()
	return card, nil
}

// DeleteCard removes a card from a deck.
// Returns domain.ErrNotFound if the card is not in the deck.
func (s *DeckStore) DeleteCard(_ context.Context, deckID, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(deckID, cardID)
	if i < 0 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}
	cards := s.decks[deckID]
	s.decks[deckID] = append(cards[:i:i], cards[i+1:]...)
	return nil
}

func (s *DeckStore) indexLocked(deckID, cardID uuid.UUID) int {
	for i, c := range s.decks[deckID] {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
