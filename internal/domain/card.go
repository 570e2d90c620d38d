package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card is a front/back text pair belonging to a deck.
// Answer statistics are written only by the learning engine.
type Card struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	FrontText      string     `json:"front_text"`
	BackText       string     `json:"back_text"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	LastAskedAt    *time.Time `json:"last_asked_at,omitempty"`
	NeedsReview    bool       `json:"needs_review"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RecordCorrect applies a correct answer at the given time.
func (c *Card) RecordCorrect(at time.Time) {
	c.CorrectCount++
	c.NeedsReview = false
	c.stamp(at)
}

// RecordIncorrect applies an incorrect answer at the given time.
func (c *Card) RecordIncorrect(at time.Time) {
	c.IncorrectCount++
	c.NeedsReview = true
	c.stamp(at)
}

func (c *Card) stamp(at time.Time) {
	t := at
	c.LastAskedAt = &t
	c.UpdatedAt = at
}

// Clone returns a copy that shares no pointers with c.
func (c Card) Clone() Card {
	out := c
	if c.LastAskedAt != nil {
		t := *c.LastAskedAt
		out.LastAskedAt = &t
	}
	return out
}

// Normalized returns a copy whose timestamps are in UTC and carry no
// monotonic reading, the form they have after a JSON round trip.
func (c Card) Normalized() Card {
	out := c.Clone()
	out.CreatedAt = NormalizeTime(c.CreatedAt)
	out.UpdatedAt = NormalizeTime(c.UpdatedAt)
	if out.LastAskedAt != nil {
		t := NormalizeTime(*out.LastAskedAt)
		out.LastAskedAt = &t
	}
	return out
}

// NormalizeTime drops the monotonic reading and location of t.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Round(0)
}
