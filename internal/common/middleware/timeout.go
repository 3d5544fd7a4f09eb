package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/httpx"
)

// SetTimeout bounds request handling to the given duration. The handler runs
// on its own goroutine; when the deadline passes first, the client gets a
// timeout error unless the handler already wrote a response. The handler's
// context is canceled either way, so a well-behaved handler unwinds on its
// own.
func SetTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rw := httpx.NewResponseWriter(w)
			rw.Header().Set("X-Bizline-Timeout", timeout.String())

			done := make(chan struct{})
			go func() {
				defer func() {
					if v := recover(); v != nil {
						log.Ctx(ctx).Error().Msgf("panic in handler: %v", v)
					}
					close(done)
				}()
				next.ServeHTTP(rw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !rw.Written() {
					httpx.ErrRequestTimeout().Send(w)
				}
			}
		})
	}
}
