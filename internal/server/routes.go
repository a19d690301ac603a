package server

import (
	"log/slog"
	"net/http"

	"github.com/lumenframe/studio-api/internal/auth"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing. Mutating content
// routes require a bearer token; deletes additionally require the admin
// role.
func NewRouter(h *Handlers, verifier *auth.Service, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	authed := AuthMiddleware(verifier)
	admin := func(hf http.HandlerFunc) http.Handler {
		return authed(RequireAdmin(hf))
	}

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /ws/progress", h.ProgressSocket)

	// Homepage
	mux.HandleFunc("GET /api/homepage/elements", h.ListHomepageElements)
	mux.Handle("POST /api/homepage/elements", authed(http.HandlerFunc(h.CreateHomepageElement)))
	mux.Handle("PUT /api/homepage/elements/order", authed(http.HandlerFunc(h.ReorderHomepage)))
	mux.Handle("PUT /api/homepage/elements/{id}", authed(http.HandlerFunc(h.UpdateHomepageElement)))
	mux.Handle("DELETE /api/homepage/elements/{id}", admin(h.DeleteHomepageElement))

	// Portfolio
	mux.HandleFunc("GET /api/portfolio/categories", h.ListCategories)
	mux.Handle("POST /api/portfolio/categories", authed(http.HandlerFunc(h.CreateCategory)))
	mux.Handle("PUT /api/portfolio/categories/{id}", authed(http.HandlerFunc(h.UpdateCategory)))
	mux.Handle("DELETE /api/portfolio/categories/{id}", admin(h.DeleteCategory))

	mux.HandleFunc("GET /api/portfolio/projects", h.ListProjects)
	mux.HandleFunc("GET /api/portfolio/projects/{id}", h.GetProject)
	mux.Handle("POST /api/portfolio/projects", authed(http.HandlerFunc(h.CreateProject)))
	mux.Handle("DELETE /api/portfolio/projects/{id}", admin(h.DeleteProject))
	mux.Handle("POST /api/portfolio/projects/{id}/videos", authed(http.HandlerFunc(h.AddProjectVideos)))
	mux.Handle("DELETE /api/portfolio/videos/{id}", admin(h.DeleteProjectVideo))

	// Team
	mux.HandleFunc("GET /api/team", h.ListTeam)
	mux.Handle("POST /api/team", authed(http.HandlerFunc(h.CreateTeamMember)))
	mux.Handle("DELETE /api/team/{id}", admin(h.DeleteTeamMember))

	// Contact & feedback
	mux.HandleFunc("POST /api/contact", h.CreateContact)
	mux.Handle("GET /api/contact", authed(http.HandlerFunc(h.ListContacts)))
	mux.HandleFunc("POST /api/feedback", h.CreateFeedback)
	mux.HandleFunc("GET /api/feedback", h.ListFeedback)
	mux.Handle("GET /api/feedback/all", authed(http.HandlerFunc(h.ListAllFeedback)))
	mux.Handle("POST /api/feedback/{id}/approve", authed(http.HandlerFunc(h.ApproveFeedback)))
	mux.Handle("DELETE /api/feedback/{id}", admin(h.DeleteFeedback))

	// Instagram proxy
	mux.HandleFunc("GET /api/instagram/feed", h.InstagramFeed)

	// Media tooling
	mux.Handle("POST /api/media/compress-test", authed(http.HandlerFunc(h.CompressTest)))

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
