package domain

import (
	"time"

	"github.com/google/uuid"
)

// Presentation is the per-card sub-state. Only the fields of the active Mode
// are meaningful: ManualPhase/Countdown for MANUAL, AutoPhase/Progress for AUTOPLAY.
// Revealed reports whether the back side is visible in either mode.
type Presentation struct {
	Mode        PresentationMode `json:"mode"`
	ManualPhase ManualPhase      `json:"manual_phase,omitempty"`
	Countdown   int              `json:"countdown"`
	AutoPhase   AutoPhase        `json:"auto_phase,omitempty"`
	Progress    float64          `json:"progress"`
	Revealed    bool             `json:"revealed"`
}

// IdlePresentation is the presentation state before a session starts.
func IdlePresentation() Presentation {
	return Presentation{Mode: PresentationModeManual, ManualPhase: ManualPhaseIdle}
}

// Session is one pass over a deck that ends when every card has been
// answered correctly at least once.
type Session struct {
	ID                uuid.UUID
	DeckID            uuid.UUID
	Active            bool
	Completed         bool
	Queue             []Card
	AnsweredCorrectly IDSet
	SeenCards         IDSet
	TotalAsked        int
	CurrentCard       *Card
	Presentation      Presentation
	StartedAt         time.Time
	Result            *SessionResult
}

// NewIdleSession returns the pre-session default state for a deck.
func NewIdleSession(deckID uuid.UUID) Session {
	return Session{
		DeckID:       deckID,
		Presentation: IdlePresentation(),
	}
}

// Accuracy returns the share of distinct presented cards answered correctly, in percent.
// A session that presented nothing is defined as 100% accurate.
func (s *Session) Accuracy() float64 {
	if s.TotalAsked == 0 {
		return 100
	}
	return float64(s.AnsweredCorrectly.Len()) / float64(s.TotalAsked) * 100
}

// QueueIndex returns the position of the first queued copy of id, or -1.
func (s *Session) QueueIndex(id uuid.UUID) int {
	for i := range s.Queue {
		if s.Queue[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot captures the full session state for persistence.
func (s *Session) Snapshot(savedAt time.Time) SessionSnapshot {
	queue := make([]Card, len(s.Queue))
	for i := range s.Queue {
		queue[i] = s.Queue[i].Clone()
	}
	var current *Card
	if s.CurrentCard != nil {
		c := s.CurrentCard.Clone()
		current = &c
	}
	return SessionSnapshot{
		Version:           SnapshotVersion,
		SessionID:         s.ID,
		DeckID:            s.DeckID,
		Active:            s.Active,
		Completed:         s.Completed,
		Queue:             queue,
		AnsweredCorrectly: s.AnsweredCorrectly.Clone(),
		SeenCards:         s.SeenCards.Clone(),
		TotalAsked:        s.TotalAsked,
		CurrentCard:       current,
		Presentation:      s.Presentation,
		StartedAt:         s.StartedAt,
		SavedAt:           savedAt,
	}
}

// SnapshotVersion is bumped whenever the persisted layout changes incompatibly.
const SnapshotVersion = 1

// SessionSnapshot is the persisted form of a Session.
type SessionSnapshot struct {
	Version           int          `json:"version"`
	SessionID         uuid.UUID    `json:"session_id"`
	DeckID            uuid.UUID    `json:"deck_id"`
	Active            bool         `json:"active"`
	Completed         bool         `json:"completed"`
	Queue             []Card       `json:"queue"`
	AnsweredCorrectly IDSet        `json:"answered_correctly"`
	SeenCards         IDSet        `json:"seen_cards"`
	TotalAsked        int          `json:"total_asked"`
	CurrentCard       *Card        `json:"current_card"`
	Presentation      Presentation `json:"presentation"`
	StartedAt         time.Time    `json:"started_at"`
	SavedAt           time.Time    `json:"saved_at"`
}

// Session rebuilds the in-memory session from a snapshot.
func (s SessionSnapshot) Session() Session {
	queue := make([]Card, len(s.Queue))
	for i := range s.Queue {
		queue[i] = s.Queue[i].Clone()
	}
	var current *Card
	if s.CurrentCard != nil {
		c := s.CurrentCard.Clone()
		current = &c
	}
	return Session{
		ID:                s.SessionID,
		DeckID:            s.DeckID,
		Active:            s.Active,
		Completed:         s.Completed,
		Queue:             queue,
		AnsweredCorrectly: s.AnsweredCorrectly.Clone(),
		SeenCards:         s.SeenCards.Clone(),
		TotalAsked:        s.TotalAsked,
		CurrentCard:       current,
		Presentation:      s.Presentation,
		StartedAt:         s.StartedAt,
	}
}

// SessionResult is emitted once when a pass completes.
type SessionResult struct {
	SessionID      uuid.UUID     `json:"session_id"`
	DeckID         uuid.UUID     `json:"deck_id"`
	TotalCards     int           `json:"total_cards"`
	CorrectAnswers int           `json:"correct_answers"`
	Accuracy       float64       `json:"accuracy"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration"`
}

// SessionView is the read-only state handed to the rendering layer.
type SessionView struct {
	Seq               uint64         `json:"seq"`
	SessionID         uuid.UUID      `json:"session_id"`
	DeckID            uuid.UUID      `json:"deck_id"`
	Active            bool           `json:"active"`
	Completed         bool           `json:"completed"`
	AutoPlaying       bool           `json:"auto_playing"`
	DeckSize          int            `json:"deck_size"`
	QueueLength       int            `json:"queue_length"`
	Remaining         int            `json:"remaining"`
	AnsweredCorrectly int            `json:"answered_correctly"`
	TotalAsked        int            `json:"total_asked"`
	CurrentCard       *Card          `json:"current_card"`
	Presentation      Presentation   `json:"presentation"`
	Result            *SessionResult `json:"result,omitempty"`
}
