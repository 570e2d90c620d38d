// Package card implements the deck store using PostgreSQL.
// Queries are built with squirrel and executed through the context querier,
// so every method joins a transaction started by postgres.TxManager.
package card

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/myenglish-session/internal/adapter/postgres"
	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// insertChunk bounds the rows of a single multi-row INSERT.
const insertChunk = 500

var columns = []string{
	"id", "deck_id", "front_text", "back_text", "correct_count", "incorrect_count",
	"last_asked_at", "needs_review", "created_at", "updated_at",
}

// Repo provides card persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
	psql squirrel.StatementBuilderType
}

// New creates a new card repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{
		pool: pool,
		tx:   postgres.NewTxManager(pool),
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListCards returns the deck's cards ordered by creation.
func (r *Repo) ListCards(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	query, args, err := r.psql.
		Select(columns...).
		From("cards").
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list cards query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
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

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// CreateCard inserts a card.
// Returns domain.ErrAlreadyExists if the id is taken.
func (r *Repo) CreateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	query, args, err := r.psql.
		Insert("cards").
		Columns(columns...).
		Values(values(card)...).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return domain.Card{}, fmt.Errorf("build insert card query: %w", err)
	}

	created, err := scanCard(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Card{}, postgres.MapError(err, "card", card.ID)
	}
	return created, nil
}

// CreateCards inserts cards in one transaction and returns how many were written.
// Either every card is stored or none is.
func (r *Repo) CreateCards(ctx context.Context, cards []domain.Card) (int, error) {
	total := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		for start := 0; start < len(cards); start += insertChunk {
			chunk := cards[start:min(start+insertChunk, len(cards))]

			b := r.psql.Insert("cards").Columns(columns...)
			for _, c := range chunk {
				b = b.Values(values(c)...)
			}
			query, args, err := b.ToSql()
			if err != nil {
				return fmt.Errorf("build insert cards query: %w", err)
			}

			tag, err := q.Exec(ctx, query, args...)
			if err != nil {
				return postgres.MapError(err, "card batch at", start)
			}
			total += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateCard writes every mutable field of a card.
// Returns domain.ErrNotFound if the card is not in its deck.
func (r *Repo) UpdateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	query, args, err := r.psql.
		Update("cards").
		SetMap(map[string]any{
			"front_text":      card.FrontText,
			"back_text":       card.BackText,
			"correct_count":   card.CorrectCount,
			"incorrect_count": card.IncorrectCount,
			"last_asked_at":   card.LastAskedAt,
			"needs_review":    card.NeedsReview,
			"updated_at":      card.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": card.ID, "deck_id": card.DeckID}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return domain.Card{}, fmt.Errorf("build update card query: %w", err)
	}

	updated, err := scanCard(postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Card{}, postgres.MapError(err, "card", card.ID)
	}
	return updated, nil
}

// DeleteCard removes a card.
// Returns domain.ErrNotFound if the card is not in the deck.
func (r *Repo) DeleteCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	query, args, err := r.psql.
		Delete("cards").
		Where(squirrel.Eq{"id": cardID, "deck_id": deckID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete card query: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "card", cardID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func values(c domain.Card) []any {
	return []any{
		c.ID, c.DeckID, c.FrontText, c.BackText, c.CorrectCount, c.IncorrectCount,
		c.LastAskedAt, c.NeedsReview, c.CreatedAt, c.UpdatedAt,
	}
}

func joinColumns() string {
	return strings.Join(columns, ", ")
}

func scanCard(row pgx.Row) (domain.Card, error) {
	var c domain.Card
	if err := row.Scan(&c.ID, &c.DeckID, &c.FrontText, &c.BackText, &c.CorrectCount, &c.IncorrectCount,
		&c.LastAskedAt, &c.NeedsReview, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Card{}, err
	}

	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	if c.LastAskedAt != nil {
		t := c.LastAskedAt.UTC()
		c.LastAskedAt = &t
	}
	return c, nil
}
