package learning

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// Start begins a new pass over the deck. An active session, including a
// running auto-play, is torn down and replaced.
func (e *Engine) Start(ctx context.Context) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.SessionView{}, ErrClosed
	}

	cards, err := e.loadDeck(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}

	e.teardownLocked()
	e.startSessionLocked(ctx, cards)
	return e.viewLocked(), nil
}

// Reset returns the engine to the pre-session state from any state and
// removes the persisted snapshot.
func (e *Engine) Reset(ctx context.Context) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.SessionView{}, ErrClosed
	}

	e.resetLocked(ctx)
	return e.viewLocked(), nil
}

// RecordAnswer applies the outcome for the current card. A correct answer
// that finishes the deck completes the session at once; otherwise the next
// card follows after the settle delay.
func (e *Engine) RecordAnswer(ctx context.Context, correct bool) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.SessionView{}, ErrClosed
	}
	if e.auto != nil {
		return domain.SessionView{}, domain.ErrAutoPlayRunning
	}
	if e.sess.CurrentCard == nil || !e.sess.Active {
		return domain.SessionView{}, domain.ErrNoCurrentCard
	}
	if e.settleSeq != 0 {
		return domain.SessionView{}, domain.ErrAnswerPending
	}

	e.stopCountdownLocked()
	e.applyAnswerLocked(ctx, correct)

	if correct && e.checkCompletionLocked(ctx) {
		e.publishLocked()
		return e.viewLocked(), nil
	}

	e.sess.Presentation.ManualPhase = domain.ManualPhaseIdle
	e.sess.Presentation.Countdown = 0
	e.armSettleLocked()

	e.persistLocked(ctx)
	e.publishLocked()
	return e.viewLocked(), nil
}

func (e *Engine) loadDeck(ctx context.Context) ([]domain.Card, error) {
	cards, err := e.listDeck(ctx)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, domain.ErrEmptyDeck
	}
	return cards, nil
}

// startSessionLocked installs a fresh shuffled session and presents its
// first card. Callers tear down the previous session first.
func (e *Engine) startSessionLocked(ctx context.Context, cards []domain.Card) {
	e.cards = cards

	queue := make([]domain.Card, len(cards))
	for i := range cards {
		queue[i] = cards[i].Clone()
	}
	shuffle(e.rng, queue)

	e.sess = domain.Session{
		ID:                uuid.New(),
		DeckID:            e.deckID,
		Active:            true,
		Queue:             queue,
		AnsweredCorrectly: domain.NewIDSet(),
		SeenCards:         domain.NewIDSet(),
		StartedAt:         e.now(),
		Presentation:      domain.IdlePresentation(),
	}

	e.log.InfoContext(ctx, "session started",
		slog.String("session_id", e.sess.ID.String()),
		slog.Int("cards", len(cards)),
	)

	e.advanceLocked(ctx)
	e.persistLocked(ctx)
	e.publishLocked()
}

func (e *Engine) resetLocked(ctx context.Context) {
	e.teardownLocked()
	e.sess = domain.NewIdleSession(e.deckID)
	e.removeSnapshotLocked(ctx)
	e.publishLocked()
}

// applyAnswerLocked updates the current card's statistics, re-enqueues it
// on a miss and writes the card back to the deck store.
func (e *Engine) applyAnswerLocked(ctx context.Context, correct bool) {
	now := e.now()
	card := e.sess.CurrentCard

	if correct {
		card.RecordCorrect(now)
		e.sess.AnsweredCorrectly.Add(card.ID)
	} else {
		card.RecordIncorrect(now)
		e.sess.Queue = append(e.sess.Queue, card.Clone())
	}

	if i := e.cardIndexLocked(card.ID); i >= 0 {
		e.cards[i] = card.Clone()
	}

	wctx, cancel := e.detached(ctx)
	defer cancel()
	if _, err := e.deck.UpdateCard(wctx, card.Clone()); err != nil {
		e.log.WarnContext(ctx, "failed to store answer stats",
			slog.String("card_id", card.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// advanceLocked moves the head of the queue into the current card and
// presents it. An empty queue either completes the session or is refilled
// with the cards that are still owed a correct answer.
func (e *Engine) advanceLocked(ctx context.Context) {
	if len(e.sess.Queue) == 0 {
		if e.checkCompletionLocked(ctx) {
			return
		}
		e.refillLocked(ctx)
		if len(e.sess.Queue) == 0 {
			e.resetLocked(ctx)
			return
		}
	}

	head := e.sess.Queue[0]
	e.sess.Queue = e.sess.Queue[1:]
	e.sess.CurrentCard = &head
	if e.sess.SeenCards.Add(head.ID) {
		e.sess.TotalAsked++
	}

	e.presentCurrentLocked()
}

func (e *Engine) refillLocked(ctx context.Context) {
	for i := range e.cards {
		if !e.sess.AnsweredCorrectly.Has(e.cards[i].ID) {
			e.sess.Queue = append(e.sess.Queue, e.cards[i].Clone())
		}
	}
	shuffle(e.rng, e.sess.Queue)

	e.log.WarnContext(ctx, "queue drained before completion, reshuffled unanswered cards",
		slog.Int("cards", len(e.sess.Queue)),
	)
}

// checkCompletionLocked finishes the pass once every deck card has been
// answered correctly. The result is delivered by unlock.
func (e *Engine) checkCompletionLocked(ctx context.Context) bool {
	if !e.sess.Active || e.sess.Completed || e.sess.AnsweredCorrectly.Len() != len(e.cards) {
		return false
	}

	e.teardownLocked()

	now := e.now()
	result := domain.SessionResult{
		SessionID:      e.sess.ID,
		DeckID:         e.deckID,
		TotalCards:     len(e.cards),
		CorrectAnswers: e.sess.AnsweredCorrectly.Len(),
		Accuracy:       e.sess.Accuracy(),
		StartedAt:      e.sess.StartedAt,
		FinishedAt:     now,
		Duration:       now.Sub(e.sess.StartedAt),
	}

	e.sess.Completed = true
	e.sess.Active = false
	e.sess.CurrentCard = nil
	e.sess.Queue = nil
	e.sess.Presentation = domain.IdlePresentation()
	e.sess.Result = &result
	e.pending = &result

	e.removeSnapshotLocked(ctx)

	e.log.InfoContext(ctx, "session completed",
		slog.String("session_id", result.SessionID.String()),
		slog.Int("cards", result.TotalCards),
		slog.Int("asked", e.sess.TotalAsked),
		slog.Float64("accuracy", result.Accuracy),
		slog.Duration("duration", result.Duration),
	)
	return true
}

// shuffle permutes cards in place with Fisher–Yates.
func shuffle(rng *rand.Rand, cards []domain.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
