package session

import (
	"net/http"

	"github.com/bizline/bizline/internal/common/apperrors"
)

var (
	// ErrSessionError is the base error for all session-related errors.
	// Occurs when there is a general error in session processing.
	ErrSessionError apperrors.Error = apperrors.New("error in processing session").SetStatusCode(http.StatusInternalServerError)

	// ErrInvalidTenant is returned when a tenant id is missing or malformed.
	ErrInvalidTenant apperrors.Error = ErrSessionError.New("invalid tenant id").SetStatusCode(http.StatusBadRequest)

	// ErrNoSession is returned when no session exists for the tenant.
	ErrNoSession apperrors.Error = ErrSessionError.New("no session for tenant").SetStatusCode(http.StatusNotFound)

	// ErrNotConnected is returned when an operation requires an open connection.
	// Occurs when the session exists but has not completed login.
	ErrNotConnected apperrors.Error = ErrSessionError.New("session is not connected").SetStatusCode(http.StatusConflict)

	// ErrBadRequest is returned for malformed or invalid requests.
	// Occurs when request parameters are invalid or missing required fields.
	ErrBadRequest apperrors.Error = ErrSessionError.New("bad request").SetStatusCode(http.StatusBadRequest)

	// ErrConnectFailed is returned when a protocol connection cannot be established.
	ErrConnectFailed apperrors.Error = ErrSessionError.New("unable to connect").SetStatusCode(http.StatusBadGateway)

	// ErrSendFailed is returned when an outbound send does not reach the network.
	ErrSendFailed apperrors.Error = ErrSessionError.New("unable to send message").SetStatusCode(http.StatusBadGateway)
)
