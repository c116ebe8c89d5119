package api

import (
	"net/http"

	"github.com/gatherline/server/internal/api/handlers"
	"github.com/gatherline/server/internal/api/middleware"
	"github.com/gatherline/server/internal/auth"
	"github.com/gatherline/server/internal/config"
	"github.com/gatherline/server/internal/domain/events"
	"github.com/gatherline/server/internal/domain/rsvps"
	"github.com/gatherline/server/internal/domain/users"
	"github.com/gatherline/server/internal/metrics"
	"github.com/gatherline/server/internal/realtime"
	"github.com/rs/zerolog"
)

// Deps carries everything the router needs. Construction happens in the
// serve command so tests can wire fakes.
type Deps struct {
	Config  config.Config
	Logger  zerolog.Logger
	Version string

	JWT    *auth.JWTManager
	Users  *users.Service
	Events *events.Service
	RSVPs  *rsvps.Service
	Hub    *realtime.Hub
}

func NewRouter(deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Users)
	eventsHandler := handlers.NewEventsHandler(deps.Events)
	rsvpsHandler := handlers.NewRSVPsHandler(deps.RSVPs)
	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Logger)

	requireAuth := middleware.RequireAuth(deps.JWT)
	requireAdmin := middleware.RequireRole(auth.RoleAdmin)
	requireOrganizer := middleware.RequireRole(auth.RoleOrganizer, auth.RoleAdmin)

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", handlers.Status(deps.Version, deps.Hub))
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz())
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /ws", http.HandlerFunc(wsHandler.Serve))

	mux.Handle("POST /auth/signup", http.HandlerFunc(authHandler.Signup))
	mux.Handle("POST /auth/login", http.HandlerFunc(authHandler.Login))
	mux.Handle("GET /auth/profile", requireAuth(http.HandlerFunc(authHandler.Profile)))

	mux.Handle("GET /events", requireAuth(http.HandlerFunc(eventsHandler.List)))
	mux.Handle("GET /events/admin/all", requireAuth(requireAdmin(http.HandlerFunc(eventsHandler.ListAll))))
	mux.Handle("GET /events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Get)))
	mux.Handle("POST /events", requireAuth(requireOrganizer(http.HandlerFunc(eventsHandler.Create))))
	mux.Handle("PUT /events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Update)))
	mux.Handle("DELETE /events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Delete)))
	mux.Handle("PUT /events/{id}/approve", requireAuth(requireAdmin(http.HandlerFunc(eventsHandler.Approve))))

	mux.Handle("POST /events/{id}/rsvp", requireAuth(http.HandlerFunc(rsvpsHandler.Upsert)))
	mux.Handle("GET /events/{id}/rsvps", requireAuth(http.HandlerFunc(rsvpsHandler.ListForEvent)))
	mux.Handle("GET /events/user/rsvps", requireAuth(http.HandlerFunc(rsvpsHandler.ListForUser)))
	mux.Handle("DELETE /events/{id}/rsvp", requireAuth(http.HandlerFunc(rsvpsHandler.Delete)))

	// The limiter reads its tier from context, so login requests get their
	// tier tagged before the limiter runs.
	rateLimited := middleware.RateLimit(deps.Config.RateLimit)(mux)
	loginLimited := middleware.WithRateLimitTierHandler(middleware.TierLogin)(rateLimited)
	tiered := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/auth/login" {
			loginLimited.ServeHTTP(w, r)
			return
		}
		rateLimited.ServeHTTP(w, r)
	})

	// Outermost first: correlation, logging, CORS, body cap.
	var handler http.Handler = tiered
	handler = middleware.PublicRequestSize()(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}
