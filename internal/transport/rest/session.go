package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// sessionEngine is the part of the learning engine driven over HTTP.
type sessionEngine interface {
	Start(ctx context.Context) (domain.SessionView, error)
	ManualReveal(ctx context.Context) (domain.SessionView, error)
	RecordAnswer(ctx context.Context, correct bool) (domain.SessionView, error)
	RepeatNarration(ctx context.Context) error
	Reset(ctx context.Context) (domain.SessionView, error)
	Restore(ctx context.Context) (bool, error)
	StartAutoPlay(ctx context.Context) (domain.SessionView, error)
	StopAutoPlay(ctx context.Context) (domain.SessionView, error)
	View() domain.SessionView
	Subscribe(buffer int) (<-chan domain.SessionView, func())
}

// SessionHandler serves the learning session endpoints.
type SessionHandler struct {
	engine    sessionEngine
	clock     clockwork.Clock
	keepalive time.Duration
	log       *slog.Logger
}

// NewSessionHandler creates a SessionHandler. Event streams send a comment
// line every keepalive so idle proxies keep the connection open.
func NewSessionHandler(engine sessionEngine, clock clockwork.Clock, keepalive time.Duration, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		engine:    engine,
		clock:     clock,
		keepalive: keepalive,
		log:       logger.With("handler", "session"),
	}
}

type answerRequest struct {
	Correct *bool `json:"correct"`
}

type restoreResponse struct {
	Restored bool               `json:"restored"`
	Session  domain.SessionView `json:"session"`
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.View())
}

// Start handles POST /api/session/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.engine.Start(r.Context()))
}

// Reveal handles POST /api/session/reveal.
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.engine.ManualReveal(r.Context()))
}

// Answer handles POST /api/session/answer with body {"correct": bool}.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	if req.Correct == nil {
		respondError(h.log, w, r, domain.NewValidationError("correct", "required"))
		return
	}

	h.respond(w, r)(h.engine.RecordAnswer(r.Context(), *req.Correct))
}

// Repeat handles POST /api/session/repeat.
func (h *SessionHandler) Repeat(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RepeatNarration(r.Context()); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/session/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.engine.Reset(r.Context()))
}

// Restore handles POST /api/session/restore.
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ok, err := h.engine.Restore(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restoreResponse{Restored: ok, Session: h.engine.View()})
}

// StartAutoPlay handles POST /api/session/autoplay/start.
func (h *SessionHandler) StartAutoPlay(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.engine.StartAutoPlay(r.Context()))
}

// StopAutoPlay handles POST /api/session/autoplay/stop.
func (h *SessionHandler) StopAutoPlay(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.engine.StopAutoPlay(r.Context()))
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request) func(domain.SessionView, error) {
	return func(view domain.SessionView, err error) {
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// ---------------------------------------------------------------------------
// Server-sent events
// ---------------------------------------------------------------------------

// Events handles GET /api/session/events. Every published view is sent as
// a "session" event; the stream starts with the current view and ends when
// the client disconnects or the engine shuts down.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	views, unsubscribe := h.engine.Subscribe(8)
	defer unsubscribe()

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := h.clock.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case view, ok := <-views:
			if !ok {
				return
			}
			if err := writeEvent(w, view); err != nil {
				h.log.DebugContext(r.Context(), "event stream closed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.Chan():
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, view domain.SessionView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: session\ndata: %s\n\n", view.Seq, data)
	return err
}
