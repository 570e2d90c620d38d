package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// DeckStore persists cards in the cards table.
type DeckStore struct {
	db *DB
}

// NewDeckStore creates a DeckStore on db.
func NewDeckStore(db *DB) *DeckStore {
	return &DeckStore{db: db}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const cardColumns = `id, deck_id, front_text, back_text, correct_count, incorrect_count,
       last_asked_at, needs_review, created_at, updated_at`

const listCardsSQL = `
SELECT ` + cardColumns + `
FROM cards
WHERE deck_id = ?
ORDER BY created_at, rowid`

const insertCardSQL = `
INSERT INTO cards (` + cardColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateCardSQL = `
UPDATE cards
SET front_text = ?, back_text = ?, correct_count = ?, incorrect_count = ?,
    last_asked_at = ?, needs_review = ?, updated_at = ?
WHERE id = ? AND deck_id = ?`

const deleteCardSQL = `
DELETE FROM cards WHERE id = ? AND deck_id = ?`

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// ListCards returns the deck's cards ordered by creation.
func (s *DeckStore) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	rows, err := s.db.db.QueryContext(ctx, listCardsSQL, deckID.String())
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]domain.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("list cards: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	return cards, nil
}

// CreateCard inserts a card.
// Returns domain.ErrAlreadyExists if the id is taken.
func (s *DeckStore) CreateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	_, err := s.db.db.ExecContext(ctx, insertCardSQL,
		card.ID.String(), card.DeckID.String(), card.FrontText, card.BackText,
		card.CorrectCount, card.IncorrectCount, nullTime(card),
		card.NeedsReview, formatTime(card.CreatedAt), formatTime(card.UpdatedAt),
	)
	if err != nil {
		return domain.Card{}, mapError(err, "card", card.ID.String())
	}
	return card, nil
}

// CreateCards inserts cards in one transaction and returns how many were written.
// Either every card is stored or none is.
func (s *DeckStore) CreateCards(ctx context.Context, cards []domain.Card) (int, error) {
	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertCardSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert card: %w", err)
	}
	defer stmt.Close()

	for _, card := range cards {
		if _, err := stmt.ExecContext(ctx,
			card.ID.String(), card.DeckID.String(), card.FrontText, card.BackText,
			card.CorrectCount, card.IncorrectCount, nullTime(card),
			card.NeedsReview, formatTime(card.CreatedAt), formatTime(card.UpdatedAt),
		); err != nil {
			return 0, mapError(err, "card", card.ID.String())
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(cards), nil
}

// UpdateCard writes every mutable field of a card.
// Returns domain.ErrNotFound if the card is not in its deck.
func (s *DeckStore) UpdateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	res, err := s.db.db.ExecContext(ctx, updateCardSQL,
		card.FrontText, card.BackText, card.CorrectCount, card.IncorrectCount,
		nullTime(card), card.NeedsReview, formatTime(card.UpdatedAt),
		card.ID.String(), card.DeckID.String(),
	)
	if err != nil {
		return domain.Card{}, mapError(err, "card", card.ID.String())
	}
	if err := requireAffected(res, card.ID); err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// DeleteCard removes a card.
// Returns domain.ErrNotFound if the card is not in the deck.
func (s *DeckStore) DeleteCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	res, err := s.db.db.ExecContext(ctx, deleteCardSQL, cardID.String(), deckID.String())
	if err != nil {
		return mapError(err, "card", cardID.String())
	}
	return requireAffected(res, cardID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("card %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullTime(c domain.Card) sql.NullString {
	if c.LastAskedAt == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*c.LastAskedAt), Valid: true}
}

func scanCard(rows *sql.Rows) (domain.Card, error) {
	var (
		c                    domain.Card
		id, deckID           string
		lastAsked            sql.NullString
		createdAt, updatedAt string
	)
	if err := rows.Scan(&id, &deckID, &c.FrontText, &c.BackText, &c.CorrectCount, &c.IncorrectCount,
		&lastAsked, &c.NeedsReview, &createdAt, &updatedAt); err != nil {
		return domain.Card{}, err
	}

	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return domain.Card{}, fmt.Errorf("parse id: %w", err)
	}
	if c.DeckID, err = uuid.Parse(deckID); err != nil {
		return domain.Card{}, fmt.Errorf("parse deck_id: %w", err)
	}
	if lastAsked.Valid {
		t, err := parseTime(lastAsked.String)
		if err != nil {
			return domain.Card{}, fmt.Errorf("parse last_asked_at: %w", err)
		}
		c.LastAskedAt = &t
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Card{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Card{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return c, nil
}
