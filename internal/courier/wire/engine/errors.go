package engine

import (
	"net/http"

	"github.com/bizline/bizline/internal/common/apperrors"
)

var (
	// ErrEngineError is the base error for all protocol engine errors.
	ErrEngineError apperrors.Error = apperrors.New("error in protocol engine").SetStatusCode(http.StatusBadGateway)

	// ErrEngineStart is returned when the engine process cannot be started.
	ErrEngineStart apperrors.Error = ErrEngineError.New("unable to start engine")

	// ErrEngineClosed is returned when a command is issued on a closed engine.
	ErrEngineClosed apperrors.Error = ErrEngineError.New("engine connection closed")

	// ErrEngineCommand is returned when the engine rejects a command.
	ErrEngineCommand apperrors.Error = ErrEngineError.New("engine command failed")

	// ErrEngineProtocol is returned when the engine sends malformed data.
	ErrEngineProtocol apperrors.Error = ErrEngineError.New("engine protocol error")
)
