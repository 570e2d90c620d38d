package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/domain"
	"github.com/heartmarshall/myenglish-session/internal/speech"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type deckStore interface {
	ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	DeleteCard(ctx context.Context, deckID, cardID uuid.UUID) error
}

type snapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

type speaker interface {
	Speak(ctx context.Context, text string, voice speech.Voice) *speech.Utterance
	Stop()
}

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("learning engine closed")

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds the engine timings and voices.
type Config struct {
	CountdownTicks   int
	TickInterval     time.Duration
	SettleDelay      time.Duration
	SourceFloor      time.Duration
	TargetFloor      time.Duration
	RepeatFloor      time.Duration
	ProgressInterval time.Duration
	SpeechTimeout    time.Duration
	PersistTimeout   time.Duration
	ResumePolicy     domain.ResumePolicy
	SourceVoice      speech.Voice
	TargetVoice      speech.Voice
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		CountdownTicks:   5,
		TickInterval:     time.Second,
		SettleDelay:      600 * time.Millisecond,
		SourceFloor:      8 * time.Second,
		TargetFloor:      8 * time.Second,
		RepeatFloor:      5 * time.Second,
		ProgressInterval: 100 * time.Millisecond,
		SpeechTimeout:    20 * time.Second,
		PersistTimeout:   2 * time.Second,
		ResumePolicy:     domain.ResumePolicyResume,
		SourceVoice:      speech.Voice{Language: "en-US", Speed: 1},
		TargetVoice:      speech.Voice{Language: "ru-RU", Speed: 1},
	}
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine drives one learning session over a single deck. All state lives in
// sess and is mutated under mu only. Timer callbacks and the auto-play
// goroutine carry the token that was current when they were armed and do
// nothing once it has moved on.
type Engine struct {
	deckID    uuid.UUID
	deck      deckStore
	snapshots snapshotStore
	voice     speaker
	clock     clockwork.Clock
	rng       *rand.Rand
	log       *slog.Logger
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	cards  []domain.Card
	sess   domain.Session

	// gen is the operation token of the session and of the auto-play run.
	gen uint64
	// timerSeq issues tokens for the countdown and settle timers; a timer
	// callback is valid only while its token is the armed one.
	timerSeq     uint64
	countdown    clockwork.Timer
	countdownSeq uint64
	settle       clockwork.Timer
	settleSeq    uint64

	auto       *autoRun
	narrCancel context.CancelFunc
	narrTimer  clockwork.Timer

	seq        uint64
	subs       map[int]chan domain.SessionView
	nextSub    int
	onComplete func(domain.SessionResult)
	pending    *domain.SessionResult
}

// New creates an engine bound to deckID. It does not touch the stores;
// call Restore to pick up a persisted session.
func New(
	log *slog.Logger,
	deckID uuid.UUID,
	deck deckStore,
	snapshots snapshotStore,
	voice speaker,
	clock clockwork.Clock,
	rng *rand.Rand,
	cfg Config,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		deckID:    deckID,
		deck:      deck,
		snapshots: snapshots,
		voice:     voice,
		clock:     clock,
		rng:       rng,
		log:       log.With("service", "learning", "deck_id", deckID.String()),
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		sess:      domain.NewIdleSession(deckID),
		subs:      make(map[int]chan domain.SessionView),
	}
}

// DeckID returns the deck the engine is bound to.
func (e *Engine) DeckID() uuid.UUID { return e.deckID }

// OnComplete registers the callback invoked once per finished pass.
func (e *Engine) OnComplete(fn func(domain.SessionResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// View returns the current read-only state.
func (e *Engine) View() domain.SessionView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Subscribe returns a channel that receives every published view. Slow
// subscribers only see the latest view. The returned func unsubscribes.
func (e *Engine) Subscribe(buffer int) (<-chan domain.SessionView, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan domain.SessionView, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	ch <- e.viewLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if sub, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(sub)
			}
		})
	}
}

// Close tears down every timer and the auto-play run, stops narration and
// closes all subscriptions. It waits for the auto-play goroutine to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.teardownLocked()
	e.cancel()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// unlock releases mu and then delivers a completion result raised while it
// was held, so the callback may call back into the engine.
func (e *Engine) unlock() {
	c := e.takeCompletionLocked()
	e.mu.Unlock()
	c.deliver()
}

// completion is a finished pass waiting for its callback.
type completion struct {
	result *domain.SessionResult
	fn     func(domain.SessionResult)
}

func (c completion) deliver() {
	if c.result != nil && c.fn != nil {
		c.fn(*c.result)
	}
}

func (e *Engine) takeCompletionLocked() completion {
	c := completion{result: e.pending, fn: e.onComplete}
	e.pending = nil
	return c
}

// teardownLocked cancels every timer, the auto-play run and narration.
func (e *Engine) teardownLocked() {
	e.gen++
	e.stopTimersLocked()
	if e.auto != nil {
		e.auto.stop()
		e.auto = nil
	}
	e.stopNarrationLocked()
}

func (e *Engine) stopTimersLocked() {
	e.stopCountdownLocked()
	e.stopSettleLocked()
}

func (e *Engine) stopCountdownLocked() {
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
	e.countdownSeq = 0
}

func (e *Engine) stopSettleLocked() {
	if e.settle != nil {
		e.settle.Stop()
		e.settle = nil
	}
	e.settleSeq = 0
}

func (e *Engine) nextTimerSeq() uint64 {
	e.timerSeq++
	return e.timerSeq
}

func (e *Engine) viewLocked() domain.SessionView {
	v := domain.SessionView{
		Seq:               e.seq,
		SessionID:         e.sess.ID,
		DeckID:            e.deckID,
		Active:            e.sess.Active,
		Completed:         e.sess.Completed,
		AutoPlaying:       e.auto != nil,
		DeckSize:          len(e.cards),
		QueueLength:       len(e.sess.Queue),
		AnsweredCorrectly: e.sess.AnsweredCorrectly.Len(),
		TotalAsked:        e.sess.TotalAsked,
		Presentation:      e.sess.Presentation,
	}
	if e.sess.Active {
		v.Remaining = len(e.cards) - e.sess.AnsweredCorrectly.Len()
	}
	if e.sess.CurrentCard != nil {
		c := e.sess.CurrentCard.Clone()
		v.CurrentCard = &c
	}
	if e.sess.Result != nil {
		r := *e.sess.Result
		v.Result = &r
	}
	return v
}

// publishLocked bumps the view sequence and fans the view out. A full
// subscriber channel has its stale view replaced.
func (e *Engine) publishLocked() {
	e.seq++
	if len(e.subs) == 0 {
		return
	}
	v := e.viewLocked()
	for _, ch := range e.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// detached returns a context for store writes that outlives ctx's
// cancellation but is bounded by the persist timeout.
func (e *Engine) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PersistTimeout)
}

func (e *Engine) cardIndexLocked(id uuid.UUID) int {
	for i := range e.cards {
		if e.cards[i].ID == id {
			return i
		}
	}
	return -1
}

// now is the engine's timestamp source. Stamped times match what a snapshot
// round trip reproduces.
func (e *Engine) now() time.Time {
	return domain.NormalizeTime(e.clock.Now())
}

// listDeck reads the deck with timestamps normalized like now.
func (e *Engine) listDeck(ctx context.Context) ([]domain.Card, error) {
	cards, err := e.deck.ListCards(ctx, e.deckID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	for i := range cards {
		cards[i] = cards[i].Normalized()
	}
	return cards, nil
}
