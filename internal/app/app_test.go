package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/myenglish-session/internal/adapter/memory"
	"github.com/heartmarshall/myenglish-session/internal/adapter/speech/paced"
	"github.com/heartmarshall/myenglish-session/internal/config"
	"github.com/heartmarshall/myenglish-session/internal/domain"
	"github.com/heartmarshall/myenglish-session/internal/speech"
)

var discard = slog.New(slog.DiscardHandler)

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

func TestOpenStorage_Drivers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.StorageConfig
	}{
		{"memory", config.StorageConfig{Driver: config.DriverMemory}},
		{"sqlite", config.StorageConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "s.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			st, err := OpenStorage(ctx, discard, tt.cfg, clockwork.NewFakeClock())
			require.NoError(t, err)
			defer st.Close()

			require.NoError(t, st.Ping(ctx))

			deckID := uuid.New()
			_, err = st.Deck.CreateCard(ctx, domain.Card{ID: uuid.New(), DeckID: deckID, FrontText: "a", BackText: "b"})
			require.NoError(t, err)
			cards, err := st.Deck.ListCards(ctx, deckID)
			require.NoError(t, err)
			assert.Len(t, cards, 1)

			require.NoError(t, st.Snapshots.Set(ctx, "k", []byte("v")))
			got, err := st.Snapshots.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), got)
		})
	}
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenStorage(context.Background(), discard, config.StorageConfig{Driver: "mongo"}, clockwork.NewFakeClock())
	assert.ErrorContains(t, err, "unknown storage driver")
}

// ---------------------------------------------------------------------------
// Engine wiring
// ---------------------------------------------------------------------------

func TestEngineConfig_Overlay(t *testing.T) {
	t.Parallel()

	session := config.SessionConfig{
		CountdownTicks:   3,
		TickInterval:     500 * time.Millisecond,
		SettleDelay:      time.Second,
		SourceFloor:      2 * time.Second,
		TargetFloor:      3 * time.Second,
		RepeatFloor:      4 * time.Second,
		ProgressInterval: 50 * time.Millisecond,
		SpeechTimeout:    10 * time.Second,
		PersistTimeout:   time.Second,
		ResumePolicy:     "manual",
	}
	sp := config.SpeechConfig{
		Source: config.VoiceConfig{Name: "nova", Speed: 1.25},
		Target: config.VoiceConfig{Language: "de-DE"},
	}

	cfg := engineConfig(session, sp)

	assert.Equal(t, 3, cfg.CountdownTicks)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 4*time.Second, cfg.RepeatFloor)
	assert.Equal(t, domain.ResumePolicyManual, cfg.ResumePolicy)
	assert.Equal(t, speech.Voice{Name: "nova", Language: "en-US", Speed: 1.25}, cfg.SourceVoice)
	assert.Equal(t, speech.Voice{Language: "de-DE", Speed: 1}, cfg.TargetVoice)
}

func TestNewRand_FixedSeedIsDeterministic(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClock()
	a, b := newRand(42, clk), newRand(42, clk)
	for range 10 {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNewNarrator(t *testing.T) {
	t.Parallel()

	n, err := newNarrator(discard, config.SpeechConfig{Provider: config.SpeechPaced, WordsPerMinute: 150}, clockwork.NewFakeClock())
	require.NoError(t, err)
	assert.IsType(t, &paced.Speaker{}, n)

	_, err = newNarrator(discard, config.SpeechConfig{Provider: "espeak"}, clockwork.NewFakeClock())
	assert.ErrorContains(t, err, "unknown speech provider")
}

// ---------------------------------------------------------------------------
// Janitor
// ---------------------------------------------------------------------------

func TestJanitor_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memory.NewSnapshotStore(clk)

	require.NoError(t, store.Set(ctx, "old", []byte("1")))
	clk.Advance(48 * time.Hour)
	require.NoError(t, store.Set(ctx, "fresh", []byte("2")))
	clk.Advance(time.Hour)

	j := NewJanitor(store, clk, time.Hour, 24*time.Hour, discard)

	deleted, err := j.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)

	deleted, err = j.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestJanitor_StartStop(t *testing.T) {
	t.Parallel()

	clk := clockwork.NewFakeClock()
	j := NewJanitor(memory.NewSnapshotStore(clk), clk, time.Hour, time.Hour, discard)

	require.NoError(t, j.Start(context.Background()))
	j.Stop()
}

func TestBuildVersion(t *testing.T) {
	v := BuildVersion()
	assert.Contains(t, v, Version)
	assert.Contains(t, v, "commit: ")
}
