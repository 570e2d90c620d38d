package learning

import (
	"context"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// ManualReveal shows the back of the current card before the countdown
// runs out. Revealing an already revealed card is a no-op.
func (e *Engine) ManualReveal(ctx context.Context) (domain.SessionView, error) {
	e.mu.Lock()
	defer e.unlock()

	if err := e.manualGuardLocked(); err != nil {
		return domain.SessionView{}, err
	}

	switch e.sess.Presentation.ManualPhase {
	case domain.ManualPhaseRevealed:
		return e.viewLocked(), nil
	case domain.ManualPhaseIdle:
		return domain.SessionView{}, domain.ErrAnswerPending
	}

	e.revealLocked(ctx)
	return e.viewLocked(), nil
}

// RepeatNarration speaks the visible side of the current card again.
func (e *Engine) RepeatNarration(ctx context.Context) error {
	e.mu.Lock()
	defer e.unlock()

	if err := e.manualGuardLocked(); err != nil {
		return err
	}

	card := e.sess.CurrentCard
	if e.sess.Presentation.Revealed {
		e.narrateLocked(e.ctx, card.BackText, e.cfg.TargetVoice, e.cfg.SpeechTimeout)
	} else {
		e.narrateLocked(e.ctx, card.FrontText, e.cfg.SourceVoice, e.cfg.SpeechTimeout)
	}
	return nil
}

func (e *Engine) manualGuardLocked() error {
	switch {
	case e.closed:
		return ErrClosed
	case e.auto != nil:
		return domain.ErrAutoPlayRunning
	case !e.sess.Active || e.sess.CurrentCard == nil:
		return domain.ErrNoCurrentCard
	}
	return nil
}

// presentCurrentLocked resets the presentation for a freshly dequeued card
// in whichever mode is driving the session.
func (e *Engine) presentCurrentLocked() {
	e.stopTimersLocked()
	e.stopNarrationLocked()

	if e.auto != nil {
		e.sess.Presentation = domain.Presentation{
			Mode:      domain.PresentationModeAutoPlay,
			AutoPhase: domain.AutoPhaseSource,
		}
		e.auto.restartCard()
		return
	}

	e.sess.Presentation = domain.Presentation{
		Mode:        domain.PresentationModeManual,
		ManualPhase: domain.ManualPhaseCountingDown,
		Countdown:   e.cfg.CountdownTicks,
	}
	e.armCountdownLocked()
}

// armCountdownLocked schedules the next countdown tick, replacing any
// previously armed one.
func (e *Engine) armCountdownLocked() {
	e.stopCountdownLocked()
	seq := e.nextTimerSeq()
	e.countdownSeq = seq
	e.countdown = e.clock.AfterFunc(e.cfg.TickInterval, func() { e.tick(seq) })
}

func (e *Engine) tick(seq uint64) {
	e.mu.Lock()
	defer e.unlock()

	if seq != e.countdownSeq || e.sess.Presentation.ManualPhase != domain.ManualPhaseCountingDown {
		return
	}
	e.countdown = nil
	e.countdownSeq = 0

	e.sess.Presentation.Countdown--
	if e.sess.Presentation.Countdown <= 0 {
		e.revealLocked(e.ctx)
		return
	}

	e.armCountdownLocked()
	e.persistLocked(e.ctx)
	e.publishLocked()
}

// revealLocked flips the current card and narrates its back once.
func (e *Engine) revealLocked(ctx context.Context) {
	e.stopCountdownLocked()
	e.sess.Presentation = domain.Presentation{
		Mode:        domain.PresentationModeManual,
		ManualPhase: domain.ManualPhaseRevealed,
		Revealed:    true,
	}
	e.narrateLocked(e.ctx, e.sess.CurrentCard.BackText, e.cfg.TargetVoice, e.cfg.SpeechTimeout)
	e.persistLocked(ctx)
	e.publishLocked()
}

func (e *Engine) armSettleLocked() {
	e.stopSettleLocked()
	seq := e.nextTimerSeq()
	e.settleSeq = seq
	e.settle = e.clock.AfterFunc(e.cfg.SettleDelay, func() { e.settled(seq) })
}

func (e *Engine) settled(seq uint64) {
	e.mu.Lock()
	defer e.unlock()

	if seq != e.settleSeq {
		return
	}
	e.settle = nil
	e.settleSeq = 0

	e.advanceLocked(e.ctx)
	if e.sess.Active {
		e.persistLocked(e.ctx)
	}
	e.publishLocked()
}
