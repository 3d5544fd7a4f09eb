package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/logtrace"
)

// SendJsonRsp writes msg as a JSON response. A string or []byte that already
// holds valid JSON is written as-is; everything else is marshaled.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, msg any) {
	var body []byte
	switch m := msg.(type) {
	case string:
		if b := []byte(m); json.Valid(b) {
			body = b
		}
	case []byte:
		if json.Valid(m) {
			body = m
		}
	default:
		var err error
		body, err = json.Marshal(msg)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("unable to marshal json")
			ErrApplicationError("Id: " + logtrace.RequestIDFromContext(ctx)).Send(w)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
