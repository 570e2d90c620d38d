package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/myenglish-session/internal/transport/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Session *SessionHandler
	Cards   *CardHandler
	Health  *HealthHandler
}

// NewRouter mounts every endpoint. base wraps all routes, api wraps only
// the /api routes (rate limiting).
func NewRouter(h Handlers, base, api middleware.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(base)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(api)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session.Get)
			r.Get("/events", h.Session.Events)
			r.Post("/start", h.Session.Start)
			r.Post("/reveal", h.Session.Reveal)
			r.Post("/answer", h.Session.Answer)
			r.Post("/repeat", h.Session.Repeat)
			r.Post("/reset", h.Session.Reset)
			r.Post("/restore", h.Session.Restore)
			r.Post("/autoplay/start", h.Session.StartAutoPlay)
			r.Post("/autoplay/stop", h.Session.StopAutoPlay)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.Cards.List)
			r.Post("/", h.Cards.Create)
			r.Put("/{id}", h.Cards.Update)
			r.Delete("/{id}", h.Cards.Delete)
		})
	})

	return r
}
