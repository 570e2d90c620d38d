package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/heartmarshall/myenglish-session/internal/domain"
)

// pinger defines the minimal interface for storage health checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// viewer exposes the session state reported by /health.
type viewer interface {
	View() domain.SessionView
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	storage pinger
	session viewer
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(storage pinger, session viewer, version string) *HealthHandler {
	return &HealthHandler{storage: storage, session: session, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe. Pings storage: 200 if OK, 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.storage.Ping(ctx); err != nil {
		status, code = "down", http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
	})
}

// Health is the full health check: storage latency, session state and version.
// Only storage failures make the service unhealthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	components := make(map[string]CompStatus, 2)
	overall, code := "ok", http.StatusOK

	start := time.Now()
	if err := h.storage.Ping(ctx); err != nil {
		components["storage"] = CompStatus{Status: "down"}
		overall, code = "down", http.StatusServiceUnavailable
	} else {
		components["storage"] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}

	components["session"] = CompStatus{Status: sessionState(h.session.View())}

	writeJSON(w, code, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func sessionState(v domain.SessionView) string {
	switch {
	case v.AutoPlaying:
		return "auto_playing"
	case v.Completed:
		return "completed"
	case v.Active:
		return "active"
	default:
		return "idle"
	}
}
