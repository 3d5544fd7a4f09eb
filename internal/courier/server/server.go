// Package server provides the HTTP server for the courier service. It
// implements the admin API for tenant session management along with version
// information and health check endpoints. The package supports CORS handling
// and middleware integration for logging and error handling.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/httpx"
	"github.com/bizline/bizline/internal/common/logtrace"
	"github.com/bizline/bizline/internal/common/middleware"
	"github.com/bizline/bizline/internal/courier/config"
	"github.com/bizline/bizline/internal/courier/session"
	"github.com/bizline/bizline/pkg/api"
)

// CourierServer provides the main HTTP server for the courier service.
// Manages routing, middleware, and endpoint handling for session operations.
type CourierServer struct {
	Router  *chi.Mux         // HTTP router for request handling
	Manager *session.Manager // tenant session registry
}

// CreateNewServer creates a new CourierServer around the given session
// manager. Returns the server instance and any error encountered during
// creation.
func CreateNewServer(mgr *session.Manager) (*CourierServer, error) {
	if mgr == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	s := &CourierServer{
		Router:  chi.NewRouter(),
		Manager: mgr,
	}
	return s, nil
}

// MountHandlers sets up all HTTP routes and middleware for the server.
// Configures logging, panic handling, CORS, and resource endpoints.
func (s *CourierServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if config.Config().HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.mountResourceHandlers(s.Router)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in courier router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

// mountResourceHandlers registers all resource endpoints on the router.
// Sets up tenant session routes and system endpoints.
func (s *CourierServer) mountResourceHandlers(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		session.Router(r, s.Manager, config.Config().APIToken)
	})
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
}

// getVersion handles version information requests.
// Returns server and API version information in JSON format.
func (s *CourierServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.VersionResponse{
		ServerVersion: "Bizline Courier Server: " + Version,
		APIVersion:    api.Version,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

// getReadiness handles health check requests.
// Returns readiness status for load balancer and monitoring systems.
func (s *CourierServer) getReadiness(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("Readiness check")

	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// HandleCORS allows the web UI to call the admin API cross-origin. The
// request id header is exposed so the UI can surface it in error reports.
func (s *CourierServer) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, //TODO: restrict to the UI origin once it is fixed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
