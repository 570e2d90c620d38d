// Package paced simulates narration. Each utterance lasts as long as the text
// would take to read aloud at the configured pace, measured on the injected
// clock, and the text is written to the log instead of an audio device.
package paced

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/speech"
)

// minUtterance is the shortest narration of a non-empty text.
const minUtterance = 300 * time.Millisecond

// Speaker narrates one text at a time.
type Speaker struct {
	log   *slog.Logger
	clock clockwork.Clock
	wpm   int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Speaker reading wordsPerMinute words at speed 1.
func New(logger *slog.Logger, clock clockwork.Clock, wordsPerMinute int) *Speaker {
	return &Speaker{
		log:   logger.With("adapter", "paced_speech"),
		clock: clock,
		wpm:   wordsPerMinute,
	}
}

// Duration returns how long text takes at wordsPerMinute scaled by the
// voice speed.
func Duration(text string, voice speech.Voice, wordsPerMinute int) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 || wordsPerMinute <= 0 {
		return 0
	}

	speed := voice.Speed
	if speed <= 0 {
		speed = 1
	}

	d := time.Duration(float64(words) * float64(time.Minute) / float64(wordsPerMinute) / speed)
	return max(d, minUtterance)
}

// Speak interrupts the current utterance and starts text. The utterance
// finishes when its duration elapses, or early and without error when it is
// stopped or ctx ends.
func (s *Speaker) Speak(ctx context.Context, text string, voice speech.Voice) *speech.Utterance {
	u := speech.NewUtterance()
	d := Duration(text, voice, s.wpm)

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.log.InfoContext(ctx, "speaking",
		slog.String("text", text),
		slog.String("voice", voice.Name),
		slog.String("language", voice.Language),
		slog.Duration("duration", d),
	)

	if d == 0 {
		cancel()
		u.Finish(nil)
		return u
	}

	timer := s.clock.NewTimer(d)
	u.MarkStarted()

	go func() {
		defer timer.Stop()
		defer cancel()

		select {
		case <-timer.Chan():
		case <-ctx.Done():
		}
		u.Finish(nil)
	}()

	return u
}

// Stop cuts the current utterance short.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
