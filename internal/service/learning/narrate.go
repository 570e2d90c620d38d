package learning

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/speech"
)

// narrateLocked stops whatever is being spoken and starts text. The returned
// channel closes when the utterance finishes or fails, when ctx ends or when
// safety elapses. A non-positive safety waits on the utterance alone.
// Failures are logged and never returned.
func (e *Engine) narrateLocked(ctx context.Context, text string, voice speech.Voice, safety time.Duration) <-chan struct{} {
	e.stopNarrationLocked()

	nctx, cancel := context.WithCancel(ctx)
	e.narrCancel = cancel

	u := e.voice.Speak(nctx, text, voice)

	var (
		timer   clockwork.Timer
		timeout <-chan time.Time
	)
	if safety > 0 {
		timer = e.clock.NewTimer(safety)
		timeout = timer.Chan()
		e.narrTimer = timer
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if timer != nil {
			defer timer.Stop()
		}

		select {
		case err := <-u.Done():
			if err != nil {
				e.log.WarnContext(nctx, "narration failed",
					slog.String("language", voice.Language),
					slog.String("error", err.Error()),
				)
			}
		case <-timeout:
			e.log.WarnContext(nctx, "narration did not finish in time, continuing",
				slog.String("language", voice.Language),
				slog.Duration("timeout", safety),
			)
		case <-nctx.Done():
		}
	}()
	return done
}

// stopNarrationLocked cancels the in-flight narration and silences the speaker.
func (e *Engine) stopNarrationLocked() {
	if e.narrCancel != nil {
		e.narrCancel()
		e.narrCancel = nil
	}
	if e.narrTimer != nil {
		e.narrTimer.Stop()
		e.narrTimer = nil
	}
	e.voice.Stop()
}
