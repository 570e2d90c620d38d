package learning

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/domain"
	"github.com/heartmarshall/myenglish-session/internal/speech"
)

// autoRun is one auto-play run. cardCancel aborts the cycle of the current
// card so the run restarts at SOURCE for whatever card is current next.
type autoRun struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cardCancel context.CancelFunc
	gen        uint64
}

func (r *autoRun) stop() {
	r.restartCard()
	r.cancel()
}

func (r *autoRun) restartCard() {
	if r.cardCancel != nil {
		r.cardCancel()
		r.cardCancel = nil
	}
}

// phaseRun holds the timers of one auto-play phase.
type phaseRun struct {
	cardID  uuid.UUID
	phase   domain.AutoPhase
	length  time.Duration
	started time.Time
	floor   clockwork.Timer
	ticker  clockwork.Ticker
	spoken  <-chan struct{}
}

func (p *phaseRun) stop() {
	p.floor.Stop()
	p.ticker.Stop()
}

// StartAutoPlay hands the session to the auto-play cycle, starting a new
// session first when none is active. It is a no-op while already running.
func (e *Engine) StartAutoPlay(ctx context.Context) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	switch {
	case e.closed:
		return domain.SessionView{}, ErrClosed
	case e.auto != nil:
		return e.viewLocked(), nil
	case e.sess.Completed:
		return domain.SessionView{}, domain.ErrSessionCompleted
	}

	if !e.sess.Active {
		cards, err := e.loadDeck(ctx)
		if err != nil {
			return domain.SessionView{}, err
		}
		e.teardownLocked()
		e.beginAutoLocked()
		e.startSessionLocked(ctx, cards)
	} else {
		answered := e.sess.Presentation.Mode == domain.PresentationModeManual &&
			e.sess.Presentation.ManualPhase == domain.ManualPhaseIdle
		e.stopTimersLocked()
		e.stopNarrationLocked()
		e.beginAutoLocked()
		if answered {
			e.advanceLocked(ctx)
		} else {
			e.presentCurrentLocked()
		}
		e.persistLocked(ctx)
		e.publishLocked()
	}

	if e.auto != nil {
		e.log.InfoContext(ctx, "auto-play started", slog.String("session_id", e.sess.ID.String()))
		e.launchAutoLocked()
	}
	return e.viewLocked(), nil
}

// StopAutoPlay cancels the run and every pending phase timer, then leaves
// the current card revealed in manual mode. It is idempotent.
func (e *Engine) StopAutoPlay(ctx context.Context) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	if e.closed {
		return domain.SessionView{}, ErrClosed
	}
	if e.auto == nil {
		return e.viewLocked(), nil
	}

	e.gen++
	e.auto.stop()
	e.auto = nil
	e.stopNarrationLocked()

	if e.sess.Active && e.sess.CurrentCard != nil {
		e.sess.Presentation = domain.Presentation{
			Mode:        domain.PresentationModeManual,
			ManualPhase: domain.ManualPhaseRevealed,
			Revealed:    true,
		}
	}

	e.log.InfoContext(ctx, "auto-play stopped", slog.String("session_id", e.sess.ID.String()))

	e.persistLocked(ctx)
	e.publishLocked()
	return e.viewLocked(), nil
}

func (e *Engine) beginAutoLocked() {
	e.gen++
	ctx, cancel := context.WithCancel(e.ctx)
	e.auto = &autoRun{ctx: ctx, cancel: cancel, gen: e.gen}
}

// launchAutoLocked starts the run goroutine. A completion it produces is
// delivered after the goroutine leaves wg, so the callback may Close.
func (e *Engine) launchAutoLocked() {
	run := e.auto
	e.wg.Add(1)
	go func() {
		c := e.runAutoPlay(run)
		e.wg.Done()
		c.deliver()
	}()
}

func (e *Engine) runValidLocked(run *autoRun) bool {
	return !e.closed && e.auto == run && e.gen == run.gen
}

// runAutoPlay cycles cards until the session completes or the run is
// cancelled. Every mutation re-checks the run under the lock. It returns
// the completion raised by the last card, if any.
func (e *Engine) runAutoPlay(run *autoRun) completion {
	for {
		e.mu.Lock()
		if !e.runValidLocked(run) || e.sess.CurrentCard == nil {
			e.mu.Unlock()
			return completion{}
		}
		cardID := e.sess.CurrentCard.ID
		from := e.sess.Presentation.AutoPhase
		cardCtx, cancel := context.WithCancel(run.ctx)
		run.cardCancel = cancel
		e.mu.Unlock()

		finished := e.playCard(cardCtx, run, cardID, from)
		cancel()
		if !finished {
			continue
		}

		e.mu.Lock()
		if e.runValidLocked(run) && e.sess.CurrentCard != nil && e.sess.CurrentCard.ID == cardID {
			e.applyAnswerLocked(run.ctx, true)
			if !e.checkCompletionLocked(run.ctx) {
				e.advanceLocked(run.ctx)
				e.persistLocked(run.ctx)
			}
			e.publishLocked()
		}
		c := e.takeCompletionLocked()
		e.mu.Unlock()
		if c.result != nil {
			return c
		}
	}
}

// playCard runs the phases of one card starting at from. It reports false
// when the run was stopped or the card changed underneath it.
func (e *Engine) playCard(ctx context.Context, run *autoRun, cardID uuid.UUID, from domain.AutoPhase) bool {
	for _, phase := range phasesFrom(from) {
		e.mu.Lock()
		if !e.runValidLocked(run) || ctx.Err() != nil ||
			e.sess.CurrentCard == nil || e.sess.CurrentCard.ID != cardID {
			e.mu.Unlock()
			return false
		}
		p := e.beginPhaseLocked(ctx, phase)
		e.mu.Unlock()

		ok := e.awaitPhase(ctx, run, p)
		p.stop()
		if !ok {
			return false
		}
	}
	return true
}

// beginPhaseLocked arms the floor, the progress ticker and the narration of
// phase, then publishes it.
func (e *Engine) beginPhaseLocked(ctx context.Context, phase domain.AutoPhase) *phaseRun {
	card := e.sess.CurrentCard
	e.sess.Presentation = domain.Presentation{
		Mode:      domain.PresentationModeAutoPlay,
		AutoPhase: phase,
		Revealed:  phase != domain.AutoPhaseSource,
	}

	var (
		length time.Duration
		text   string
		voice  speech.Voice
	)
	switch phase {
	case domain.AutoPhaseSource:
		length, text, voice = e.cfg.SourceFloor, card.FrontText, e.cfg.SourceVoice
	case domain.AutoPhaseTargetFirst:
		length, text, voice = e.cfg.TargetFloor, card.BackText, e.cfg.TargetVoice
	default:
		length, text, voice = e.cfg.RepeatFloor, card.BackText, e.cfg.TargetVoice
	}

	e.log.DebugContext(ctx, "auto-play phase",
		slog.String("card_id", card.ID.String()),
		slog.String("phase", phase.String()),
	)

	p := &phaseRun{
		cardID:  card.ID,
		phase:   phase,
		length:  length,
		started: e.clock.Now(),
	}
	p.floor = e.clock.NewTimer(length)
	p.ticker = e.clock.NewTicker(e.cfg.ProgressInterval)
	p.spoken = e.narrateLocked(ctx, text, voice, e.cfg.SpeechTimeout)

	e.persistLocked(ctx)
	e.publishLocked()
	return p
}

// awaitPhase blocks until both the narration has settled and the floor has
// elapsed, reporting progress on every tick.
func (e *Engine) awaitPhase(ctx context.Context, run *autoRun, p *phaseRun) bool {
	spoken := p.spoken
	floorDone := false

	for spoken != nil || !floorDone {
		select {
		case <-ctx.Done():
			return false
		case <-p.ticker.Chan():
			e.reportProgress(run, p)
		case <-spoken:
			spoken = nil
		case <-p.floor.Chan():
			floorDone = true
		}
	}
	return ctx.Err() == nil
}

// reportProgress publishes the phase progress. Progress is not persisted.
func (e *Engine) reportProgress(run *autoRun, p *phaseRun) {
	e.mu.Lock()
	defer e.unlock()

	pr := e.sess.Presentation
	if !e.runValidLocked(run) || e.sess.CurrentCard == nil || e.sess.CurrentCard.ID != p.cardID ||
		pr.Mode != domain.PresentationModeAutoPlay || pr.AutoPhase != p.phase {
		return
	}

	progress := min(float64(e.clock.Since(p.started))/float64(p.length), 1)
	if progress == pr.Progress {
		return
	}
	e.sess.Presentation.Progress = progress
	e.publishLocked()
}

func phasesFrom(from domain.AutoPhase) []domain.AutoPhase {
	for i, p := range domain.AutoPhases {
		if p == from {
			return domain.AutoPhases[i:]
		}
	}
	return domain.AutoPhases
}
