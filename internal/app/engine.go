package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/adapter/speech/openai"
	"github.com/heartmarshall/myenglish-session/internal/adapter/speech/paced"
	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/domain"
	"github.com/heartmarshall/myenglish-session/internal/service/learning"
	"github.com/heartmarshall/myenglish-session/internal/speech"
)

// narrator is what the engine needs from a speech backend.
type narrator interface {
	Speak(ctx context.Context, text string, voice speech.Voice) *speech.Utterance
	Stop()
}

// newNarrator builds the speech backend selected by cfg.Provider.
func newNarrator(logger *slog.Logger, cfg config.SpeechConfig, clock clockwork.Clock) (narrator, error) {
	switch cfg.Provider {
	case config.SpeechOpenAI:
		s, err := openai.New(logger, cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("openai speech: %w", err)
		}
		return s, nil
	case config.SpeechPaced:
		return paced.New(logger, clock, cfg.WordsPerMinute), nil
	}
	return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
}

// engineConfig overlays the configured timings and voices on the defaults.
func engineConfig(session config.SessionConfig, sp config.SpeechConfig) learning.Config {
	cfg := learning.DefaultConfig()

	cfg.CountdownTicks = session.CountdownTicks
	cfg.TickInterval = session.TickInterval
	cfg.SettleDelay = session.SettleDelay
	cfg.SourceFloor = session.SourceFloor
	cfg.TargetFloor = session.TargetFloor
	cfg.RepeatFloor = session.RepeatFloor
	cfg.ProgressInterval = session.ProgressInterval
	cfg.SpeechTimeout = session.SpeechTimeout
	cfg.PersistTimeout = session.PersistTimeout
	cfg.ResumePolicy = domain.ResumePolicy(session.ResumePolicy)

	cfg.SourceVoice = overlayVoice(cfg.SourceVoice, sp.Source)
	cfg.TargetVoice = overlayVoice(cfg.TargetVoice, sp.Target)
	return cfg
}

func overlayVoice(v speech.Voice, c config.VoiceConfig) speech.Voice {
	if c.Name != "" {
		v.Name = c.Name
	}
	if c.Language != "" {
		v.Language = c.Language
	}
	if c.Speed > 0 {
		v.Speed = c.Speed
	}
	return v
}

// newRand seeds the shuffle source. A zero seed is taken from the clock.
func newRand(seed uint64, clock clockwork.Clock) *rand.Rand {
	if seed == 0 {
		seed = uint64(clock.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// logResult reports a finished pass.
func logResult(logger *slog.Logger) func(domain.SessionResult) {
	return func(res domain.SessionResult) {
		logger.Info("session completed",
			slog.String("session_id", res.SessionID.String()),
			slog.Int("cards", res.TotalCards),
			slog.Int("correct", res.CorrectAnswers),
			slog.Float64("accuracy", res.Accuracy),
			slog.Duration("duration", res.Duration.Round(time.Second)),
		)
	}
}
