// Package openai narrates texts with OpenAI text-to-speech. Audio is cached on
// disk and played through an external command such as ffplay or mpv.
package openai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/speech"
)

const defaultVoice = goopenai.VoiceAlloy

// synthesizer is the subset of the OpenAI client used for narration.
type synthesizer interface {
	CreateSpeech(ctx context.Context, request goopenai.CreateSpeechRequest) (goopenai.RawResponse, error)
}

// Speaker synthesizes, caches and plays narration. One utterance plays at a time.
type Speaker struct {
	log      *slog.Logger
	client   synthesizer
	model    goopenai.SpeechModel
	cacheDir string
	player   []string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Speaker from cfg. The cache directory is created if missing.
func New(logger *slog.Logger, cfg config.OpenAIConfig) (*Speaker, error) {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newSpeaker(logger, goopenai.NewClientWithConfig(clientCfg), cfg)
}

func newSpeaker(logger *slog.Logger, client synthesizer, cfg config.OpenAIConfig) (*Speaker, error) {
	player := strings.Fields(cfg.Player)
	if len(player) == 0 {
		return nil, errors.New("openai speech: player command is empty")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("openai speech: create cache dir: %w", err)
	}

	return &Speaker{
		log:      logger.With("adapter", "openai_speech"),
		client:   client,
		model:    goopenai.SpeechModel(cfg.Model),
		cacheDir: cfg.CacheDir,
		player:   player,
	}, nil
}

// Speak interrupts the current utterance, then synthesizes (or loads) the
// audio for text and plays it. Started fires when the player launches.
// A stopped utterance finishes without error.
func (s *Speaker) Speak(ctx context.Context, text string, voice speech.Voice) *speech.Utterance {
	u := speech.NewUtterance()

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		u.Finish(s.play(ctx, u, text, voice))
	}()

	return u
}

// Stop kills the player of the current utterance.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Speaker) play(ctx context.Context, u *speech.Utterance, text string, voice speech.Voice) error {
	path, err := s.audio(ctx, text, voice)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	args := append(append([]string{}, s.player[1:]...), path)
	cmd := exec.CommandContext(ctx, s.player[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	u.MarkStarted()

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("player: %w", err)
	}
	return nil
}

// audio returns the path of the cached mp3 for text, synthesizing it first
// when absent.
func (s *Speaker) audio(ctx context.Context, text string, voice speech.Voice) (string, error) {
	req := s.request(text, voice)
	path := filepath.Join(s.cacheDir, cacheKey(req)+".mp3")

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	resp, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	tmp, err := os.CreateTemp(s.cacheDir, "tts-*.part")
	if err != nil {
		return "", fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store cache file: %w", err)
	}

	s.log.DebugContext(ctx, "speech synthesized",
		slog.String("voice", string(req.Voice)),
		slog.Int("chars", len(text)),
	)
	return path, nil
}

func (s *Speaker) request(text string, voice speech.Voice) goopenai.CreateSpeechRequest {
	name := goopenai.SpeechVoice(strings.ToLower(voice.Name))
	if name == "" {
		name = defaultVoice
	}
	speed := voice.Speed
	if speed <= 0 {
		speed = 1
	}

	return goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          name,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
		Speed:          speed,
	}
}

func cacheKey(req goopenai.CreateSpeechRequest) string {
	h := sha256.New()
	for _, part := range []string{
		string(req.Model),
		string(req.Voice),
		strconv.FormatFloat(req.Speed, 'f', 2, 64),
		req.Input,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
