// Package httpx carries the HTTP response plumbing shared by the courier
// API: handler wrapping, error translation, JSON responses, and the chunked
// path used by the event stream.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/bizline/bizline/internal/common/apperrors"
)

// GetRequestData decodes a JSON request body into data. Only POST and PUT
// carry bodies on this API.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

// WriteChunksFunc streams the response body. It owns the connection until it
// returns; the wrapper has already sent headers.
type WriteChunksFunc func(w http.ResponseWriter) error

// Response is what a wrapped handler returns. Chunked responses carry their
// body through WriteChunks; everything else is JSON-encoded from Response.
type Response struct {
	StatusCode  int
	Response    any
	ContentType string
	Chunked     bool
	WriteChunks WriteChunksFunc
}

// RequestHandler is the handler shape the route tables use.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHttpRsp adapts a RequestHandler to http.HandlerFunc, translating
// returned errors into the API's JSON error envelope.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			sendHandlerError(w, err)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.Chunked {
			writeChunked(w, r, rsp)
			return
		}
		SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response)
	}
}

// sendHandlerError maps a handler error to an HTTP error response. httpx
// errors pass through; apperrors carry their own status; anything else is a
// 500.
func sendHandlerError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *Error:
		e.Send(w)
	case apperrors.Error:
		SendError(w, e)
	default:
		ErrApplicationError(err.Error()).Send(w)
	}
}

func writeChunked(w http.ResponseWriter, r *http.Request, rsp *Response) {
	if rsp.WriteChunks == nil {
		ErrApplicationError("unable to write chunks").Send(w)
		return
	}
	w.Header().Set("Content-Type", rsp.ContentType)
	w.Header().Set("Transfer-Encoding", "chunked")
	w.WriteHeader(rsp.StatusCode)
	if err := rsp.WriteChunks(w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("error writing chunk")
	}
}
