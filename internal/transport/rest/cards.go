package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/myenglish-session/internal/domain"
	"github.com/heartmarshall/myenglish-session/internal/service/learning"
)

// cardEngine is the deck editing part of the learning engine.
type cardEngine interface {
	ListCards(ctx context.Context) ([]domain.Card, error)
	AddCard(ctx context.Context, input learning.AddCardInput) (domain.Card, error)
	EditCard(ctx context.Context, input learning.EditCardInput) (domain.Card, error)
	DeleteCard(ctx context.Context, input learning.DeleteCardInput) error
}

// CardHandler serves the deck endpoints of the active session.
type CardHandler struct {
	engine cardEngine
	log    *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(engine cardEngine, logger *slog.Logger) *CardHandler {
	return &CardHandler{engine: engine, log: logger.With("handler", "cards")}
}

type cardRequest struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
}

type cardsResponse struct {
	Cards []domain.Card `json:"cards"`
}

// List handles GET /api/cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.engine.ListCards(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardsResponse{Cards: cards})
}

// Create handles POST /api/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	card, err := h.engine.AddCard(r.Context(), learning.AddCardInput{
		FrontText: req.FrontText,
		BackText:  req.BackText,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// Update handles PUT /api/cards/{id}.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	card, err := h.engine.EditCard(r.Context(), learning.EditCardInput{
		CardID:    id,
		FrontText: req.FrontText,
		BackText:  req.BackText,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete handles DELETE /api/cards/{id}.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	if err := h.engine.DeleteCard(r.Context(), learning.DeleteCardInput{CardID: id}); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
