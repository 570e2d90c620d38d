package learning

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

var _ deckStore = &deckStoreMock{}

type deckStoreMock struct {
	CreateCardFunc func(ctx context.Context, card domain.Card) (domain.Card, error)
	DeleteCardFunc func(ctx context.Context, deckID uuid.UUID, cardID uuid.UUID) error
	ListCardsFunc  func(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	UpdateCardFunc func(ctx context.Context, card domain.Card) (domain.Card, error)

	calls struct {
		CreateCard []struct {
			Ctx  context.Context
			Card domain.Card
		}
		DeleteCard []struct {
			Ctx    context.Context
			DeckID uuid.UUID
			CardID uuid.UUID
		}
		ListCards []struct {
			Ctx    context.Context
			DeckID uuid.UUID
		}
		UpdateCard []struct {
			Ctx  context.Context
			Card domain.Card
		}
	}
	lockCreateCard sync.RWMutex
	lockDeleteCard sync.RWMutex
	lockListCards  sync.RWMutex
	lockUpdateCard sync.RWMutex
}

func (mock *deckStoreMock) CreateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	if mock.CreateCardFunc == nil {
		panic("deckStoreMock.CreateCardFunc: method is nil but deckStore.CreateCard was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Card domain.Card
	}{Ctx: ctx, Card: card}
	mock.lockCreateCard.Lock()
	mock.calls.CreateCard = append(mock.calls.CreateCard, callInfo)
	mock.lockCreateCard.Unlock()
	return mock.CreateCardFunc(ctx, card)
}

func (mock *deckStoreMock) CreateCardCalls() []struct {
	Ctx  context.Context
	Card domain.Card
} {
	mock.lockCreateCard.RLock()
	calls := mock.calls.CreateCard
	mock.lockCreateCard.RUnlock()
	return calls
}

func (mock *deckStoreMock) DeleteCard(ctx context.Context, deckID uuid.UUID, cardID uuid.UUID) error {
	if mock.DeleteCardFunc == nil {
		panic("deckStoreMock.DeleteCardFunc: method is nil but deckStore.DeleteCard was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		DeckID uuid.UUID
		CardID uuid.UUID
	}{Ctx: ctx, DeckID: deckID, CardID: cardID}
	mock.lockDeleteCard.Lock()
	mock.calls.DeleteCard = append(mock.calls.DeleteCard, callInfo)
	mock.lockDeleteCard.Unlock()
	return mock.DeleteCardFunc(ctx, deckID, cardID)
}

func (mock *deckStoreMock) DeleteCardCalls() []struct {
	Ctx    context.Context
	DeckID uuid.UUID
	CardID uuid.UUID
} {
	mock.lockDeleteCard.RLock()
	calls := mock.calls.DeleteCard
	mock.lockDeleteCard.RUnlock()
	return calls
}

func (mock *deckStoreMock) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	if mock.ListCardsFunc == nil {
		panic("deckStoreMock.ListCardsFunc: method is nil but deckStore.ListCards was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		DeckID uuid.UUID
	}{Ctx: ctx, DeckID: deckID}
	mock.lockListCards.Lock()
	mock.calls.ListCards = append(mock.calls.ListCards, callInfo)
	mock.lockListCards.Unlock()
	return mock.ListCardsFunc(ctx, deckID)
}

func (mock *deckStoreMock) ListCardsCalls() []struct {
	Ctx    context.Context
	DeckID uuid.UUID
} {
	mock.lockListCards.RLock()
	calls := mock.calls.ListCards
	mock.lockListCards.RUnlock()
	return calls
}

func (mock *deckStoreMock) UpdateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	if mock.UpdateCardFunc == nil {
		panic("deckStoreMock.UpdateCardFunc: method is nil but deckStore.UpdateCard was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Card domain.Card
	}{Ctx: ctx, Card: card}
	mock.lockUpdateCard.Lock()
	mock.calls.UpdateCard = append(mock.calls.UpdateCard, callInfo)
	mock.lockUpdateCard.Unlock()
	return mock.UpdateCardFunc(ctx, card)
}

func (mock *deckStoreMock) UpdateCardCalls() []struct {
	Ctx  context.Context
	Card domain.Card
} {
	mock.lockUpdateCard.RLock()
	calls := mock.calls.UpdateCard
	mock.lockUpdateCard.RUnlock()
	return calls
}
