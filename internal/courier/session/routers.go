package session

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bizline/bizline/internal/common/httpx"
	"github.com/bizline/bizline/internal/common/middleware"
)

// requestTimeout bounds non-streaming session endpoints.
const requestTimeout = 30 * time.Second

// ResponseHandlerParam defines the configuration for HTTP route handlers.
// Contains HTTP method, path, and handler function for route registration.
type ResponseHandlerParam struct {
	Method  string               // HTTP method (GET, POST, etc.)
	Path    string               // URL path pattern
	Handler httpx.RequestHandler // handler function for the route
	Stream  bool                 // long-lived response, exempt from the request timeout
}

// Router sets up HTTP routes for tenant session management. Handlers resolve
// sessions through the given Manager; nothing is looked up globally.
func Router(r chi.Router, mgr *Manager, apiToken string) {
	h := &apiHandler{
		mgr:      mgr,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	handlers := []ResponseHandlerParam{
		{
			Method:  http.MethodGet,
			Path:    "/",
			Handler: h.listTenants,
		},
		{
			Method:  http.MethodPost,
			Path:    "/{tenantID}/session",
			Handler: h.startSession,
		},
		{
			Method:  http.MethodGet,
			Path:    "/{tenantID}/session",
			Handler: h.getSession,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/{tenantID}/session",
			Handler: h.stopSession,
		},
		{
			Method:  http.MethodDelete,
			Path:    "/{tenantID}",
			Handler: h.deleteTenant,
		},
		{
			Method:  http.MethodPost,
			Path:    "/{tenantID}/messages",
			Handler: h.sendMessage,
		},
		{
			Method:  http.MethodGet,
			Path:    "/{tenantID}/events",
			Handler: h.streamEvents,
			Stream:  true,
		},
	}

	r.Use(BearerAuthenticator(apiToken))
	withTimeout := r.With(middleware.SetTimeout(requestTimeout))
	for _, handler := range handlers {
		target := withTimeout
		if handler.Stream {
			target = r
		}
		target.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}

// BearerAuthenticator enforces the shared-secret bearer token on session
// endpoints. An empty token disables authentication.
func BearerAuthenticator(token string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" {
				got := []byte(r.Header.Get("Authorization"))
				if subtle.ConstantTimeCompare(got, expected) != 1 {
					httpx.ErrUnAuthorized("invalid or missing bearer token").Send(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
