package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/bizline/bizline/internal/common/apperrors"
)

// Error is an HTTP-level error: a client-facing description plus the status
// code it is sent with.
type Error struct {
	Description string `json:"description"`
	StatusCode  int    `json:"http_status_code"`
}

// Failure is the result code in the error envelope.
const Failure int = 0

type errorRsp struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

// Send writes the error envelope. A nil writer is tolerated so callers can
// Send unconditionally.
func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	body, err := json.Marshal(&errorRsp{Result: Failure, Error: e.Description})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Unable to parse error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	w.Write(body)
}

func (e *Error) Error() string {
	return e.Description
}

func (e Error) Is(other error) bool {
	return e.Error() == other.Error()
}

// SendError translates an application error into the HTTP error envelope.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	statusCode := err.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	(&Error{StatusCode: statusCode, Description: err.ErrorAll()}).Send(w)
}

func newError(statusCode int, fallback string, msg []string) *Error {
	description := fallback
	if len(msg) > 0 {
		description = msg[0]
	}
	return &Error{Description: description, StatusCode: statusCode}
}

func ErrReqMethodNotSupported() *Error {
	return newError(http.StatusMethodNotAllowed, "request method not supported", nil)
}

func ErrUnableToParseReqData() *Error {
	return newError(http.StatusBadRequest, "unable to parse request data", nil)
}

func ErrApplicationError(msg ...string) *Error {
	return newError(http.StatusInternalServerError, "unable to process request", msg)
}

func ErrUnAuthorized(msg ...string) *Error {
	return newError(http.StatusUnauthorized, "unable to authenticate request", msg)
}

func ErrInvalidRequest(msg ...string) *Error {
	return newError(http.StatusBadRequest, "invalid request data or empty request values", msg)
}

// ErrTenantNotFound covers both unknown tenants and tenants with no active
// session; the API does not distinguish the two.
func ErrTenantNotFound() *Error {
	return newError(http.StatusNotFound, "no session for tenant", nil)
}

func ErrRequestTimeout() *Error {
	return newError(http.StatusRequestTimeout, "request timed out", nil)
}
