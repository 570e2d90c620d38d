package learning

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

const snapshotKeyPrefix = "learning_session:"

// SnapshotKey returns the store key of the session persisted for deckID.
func SnapshotKey(deckID uuid.UUID) string {
	return snapshotKeyPrefix + deckID.String()
}

// persistLocked writes the active session to the snapshot store. Failures
// are logged; the session carries on in memory.
func (e *Engine) persistLocked(ctx context.Context) {
	if !e.sess.Active {
		return
	}

	data, err := json.Marshal(e.sess.Snapshot(e.now()))
	if err != nil {
		e.log.WarnContext(ctx, "failed to encode session snapshot", slog.String("error", err.Error()))
		return
	}

	wctx, cancel := e.detached(ctx)
	defer cancel()
	if err := e.snapshots.Set(wctx, SnapshotKey(e.deckID), data); err != nil {
		e.log.WarnContext(ctx, "failed to persist session", slog.String("error", err.Error()))
	}
}

func (e *Engine) removeSnapshotLocked(ctx context.Context) {
	wctx, cancel := e.detached(ctx)
	defer cancel()
	if err := e.snapshots.Remove(wctx, SnapshotKey(e.deckID)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		e.log.WarnContext(ctx, "failed to remove session snapshot", slog.String("error", err.Error()))
	}
}

// Restore loads a persisted unfinished session and resumes it according to
// the configured resume policy. It reports whether a session was restored.
// Unreadable snapshots are logged and treated as absent.
func (e *Engine) Restore(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return false, ErrClosed
	}

	snap, ok := e.readSnapshot(ctx)
	if !ok {
		return false, nil
	}

	cards, err := e.listDeck(ctx)
	if err != nil {
		return false, err
	}
	if len(cards) == 0 {
		e.log.WarnContext(ctx, "deck is empty, discarding persisted session")
		e.removeSnapshotLocked(ctx)
		return false, nil
	}

	e.teardownLocked()
	e.cards = cards
	e.sess = snap.Session()
	e.reconcileLocked(ctx)

	e.log.InfoContext(ctx, "session restored",
		slog.String("session_id", e.sess.ID.String()),
		slog.String("mode", e.sess.Presentation.Mode.String()),
		slog.Int("queue", len(e.sess.Queue)),
		slog.String("policy", e.cfg.ResumePolicy.String()),
	)

	e.resumeLocked(ctx)
	e.publishLocked()
	return true, nil
}

// reconcileLocked fits a restored session to the deck as it is now. Cards
// deleted while the session was stored are dropped as DeleteCard would drop
// them; cards added meanwhile are queued.
func (e *Engine) reconcileLocked(ctx context.Context) {
	deck := make(map[uuid.UUID]domain.Card, len(e.cards))
	for _, c := range e.cards {
		deck[c.ID] = c
	}
	refresh := func(c *domain.Card) bool {
		fresh, ok := deck[c.ID]
		if !ok {
			return false
		}
		c.FrontText = fresh.FrontText
		c.BackText = fresh.BackText
		c.CorrectCount = fresh.CorrectCount
		c.IncorrectCount = fresh.IncorrectCount
		c.NeedsReview = fresh.NeedsReview
		c.LastAskedAt = fresh.Clone().LastAskedAt
		return true
	}

	dropped := 0
	queue := e.sess.Queue[:0]
	for _, c := range e.sess.Queue {
		if refresh(&c) {
			queue = append(queue, c)
		} else {
			dropped++
		}
	}
	e.sess.Queue = queue

	if c := e.sess.CurrentCard; c != nil && !refresh(c) {
		e.sess.CurrentCard = nil
		dropped++
	}

	for _, id := range e.sess.AnsweredCorrectly.IDs() {
		if _, ok := deck[id]; !ok {
			e.sess.AnsweredCorrectly.Remove(id)
		}
	}
	for _, id := range e.sess.SeenCards.IDs() {
		if _, ok := deck[id]; !ok && e.sess.SeenCards.Remove(id) {
			e.sess.TotalAsked--
		}
	}

	added := 0
	for _, c := range e.cards {
		if e.sess.AnsweredCorrectly.Has(c.ID) || e.sess.QueueIndex(c.ID) >= 0 {
			continue
		}
		if cur := e.sess.CurrentCard; cur != nil && cur.ID == c.ID {
			continue
		}
		e.sess.Queue = append(e.sess.Queue, c.Clone())
		added++
	}

	if dropped > 0 || added > 0 {
		e.log.InfoContext(ctx, "restored session reconciled with deck",
			slog.Int("dropped", dropped),
			slog.Int("added", added),
		)
	}
}

func (e *Engine) readSnapshot(ctx context.Context) (domain.SessionSnapshot, bool) {
	var snap domain.SessionSnapshot

	data, err := e.snapshots.Get(ctx, SnapshotKey(e.deckID))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.log.WarnContext(ctx, "failed to read session snapshot", slog.String("error", err.Error()))
		}
		return snap, false
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		e.log.WarnContext(ctx, "corrupt session snapshot ignored", slog.String("error", err.Error()))
		return snap, false
	}
	if snap.Version != domain.SnapshotVersion || snap.DeckID != e.deckID {
		e.log.WarnContext(ctx, "incompatible session snapshot ignored", slog.Int("version", snap.Version))
		return snap, false
	}
	if !snap.Active || snap.Completed {
		return snap, false
	}
	return snap, true
}

// resumeLocked re-arms whatever drove the restored card.
func (e *Engine) resumeLocked(ctx context.Context) {
	if e.sess.CurrentCard == nil {
		e.advanceLocked(ctx)
		e.persistLocked(ctx)
		return
	}

	p := e.sess.Presentation
	pending := p.Mode == domain.PresentationModeManual && p.ManualPhase == domain.ManualPhaseIdle

	if e.cfg.ResumePolicy == domain.ResumePolicyManual {
		if pending {
			e.advanceLocked(ctx)
			if !e.sess.Active {
				return
			}
			e.stopTimersLocked()
		}
		e.sess.Presentation = domain.Presentation{
			Mode:        domain.PresentationModeManual,
			ManualPhase: domain.ManualPhaseRevealed,
			Revealed:    true,
		}
		e.persistLocked(ctx)
		return
	}

	switch {
	case p.Mode == domain.PresentationModeAutoPlay:
		phase := p.AutoPhase
		if !phase.IsValid() {
			phase = domain.AutoPhaseSource
		}
		e.beginAutoLocked()
		e.sess.Presentation = domain.Presentation{
			Mode:      domain.PresentationModeAutoPlay,
			AutoPhase: phase,
			Revealed:  phase != domain.AutoPhaseSource,
		}
		e.persistLocked(ctx)
		e.launchAutoLocked()
	case p.ManualPhase == domain.ManualPhaseCountingDown:
		if p.Countdown <= 0 {
			e.revealLocked(ctx)
			return
		}
		e.armCountdownLocked()
	case pending:
		e.advanceLocked(ctx)
		e.persistLocked(ctx)
	default:
		e.sess.Presentation.Revealed = true
	}
}
