package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"fraud-console/internal/errors"
	"fraud-console/internal/services"
)

const version = "1.0.0"

type APIHandlers struct {
	sessions    *services.SessionStore
	upstreamURL string
	started     time.Time
	logger      *slog.Logger
}

func NewAPIHandlers(sessions *services.SessionStore, upstreamURL string, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		sessions:    sessions,
		upstreamURL: upstreamURL,
		started:     time.Now(),
		logger:      logger,
	}
}

// HandleHealth reports the console's own liveness; it does not call the
// fraud service.
func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	}

	errors.WriteSuccess(w, healthData)
}

type adminStats struct {
	Sessions      int    `json:"sessions"`
	UpstreamURL   string `json:"upstream_url"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version"`
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, adminStats{
		Sessions:      h.sessions.Len(),
		UpstreamURL:   h.upstreamURL,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Version:       version,
	})
}

type dashboardSnapshot struct {
	services.DashboardState
	SystemStatus  services.StatusBadge `json:"system_status"`
	HealthWarning string               `json:"health_warning,omitempty"`
}

// HandleDashboard returns the caller's last dashboard state as JSON. It
// does not trigger a refresh.
func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := services.SessionFrom(r.Context())
	if !ok {
		errors.WriteError(w, r, h.logger, errors.Internal("no session attached to request"))
		return
	}

	state := sess.Dashboard.State()
	warning, _ := state.HealthWarning()

	errors.WriteSuccessWithHeaders(w, dashboardSnapshot{
		DashboardState: state,
		SystemStatus:   state.SystemStatus(),
		HealthWarning:  warning,
	}, map[string]string{"Cache-Control": "no-store"})
}
