package handlers

import (
	"net/http"

	"github.com/gatherline/server/internal/realtime"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Healthz is the liveness probe.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}

// Readyz is the readiness probe.
func Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ready"})
	})
}

type statusResponse struct {
	Message       string            `json:"message"`
	Version       string            `json:"version"`
	Endpoints     map[string]string `json:"endpoints"`
	WSConnections int               `json:"wsConnections"`
}

// Status serves the root informational payload with the live connection
// count.
func Status(version string, hub *realtime.Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{
			Message: "Event Management API is running",
			Version: version,
			Endpoints: map[string]string{
				"websocket": "/ws",
				"auth":      "/auth/*",
				"events":    "/events/*",
				"health":    "/healthz",
				"metrics":   "/metrics",
			},
			WSConnections: hub.Count(),
		})
	})
}
