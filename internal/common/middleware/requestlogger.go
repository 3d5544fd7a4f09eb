// Package middleware holds the HTTP middleware the courier server mounts on
// every route: request logging with request ids, panic recovery, and a
// per-request timeout.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/logtrace"
	"github.com/bizline/bizline/internal/common/uuid"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Bizline-Request-ID"

// RequestLogger assigns each request an id, stores it in the context and the
// response headers, and logs the request at start and completion. The
// context logger it installs carries the id on every line the handler emits.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := newRequestID()
		ctx := logtrace.WithRequestID(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		log.Ctx(ctx).Info().
			Str("url", fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Str("proto", r.Proto).
			Msg("incoming request")

		defer func() {
			log.Ctx(ctx).Info().
				Dur("duration", time.Since(start)).
				Msg("request completed")
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newRequestID falls back to a timestamp id when UUID generation fails, so a
// request is never left without an id.
func newRequestID() string {
	u, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return u.String()
}
