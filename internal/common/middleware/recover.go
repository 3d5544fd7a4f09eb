package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/httpx"
)

// PanicHandler recovers from panics in downstream handlers, logs the stack,
// and sends a generic 500 when nothing was written yet. It wraps the writer
// so later middleware can also check Written().
func PanicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := httpx.NewResponseWriter(w)
		defer func() {
			if v := recover(); v != nil {
				log.Ctx(r.Context()).Error().
					Str("panic", fmt.Sprintf("%v", v)).
					Str("stack_trace", string(debug.Stack())).
					Msg("panic occurred")
				if !rw.Written() {
					httpx.ErrApplicationError("unable to process request").Send(rw)
				}
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
