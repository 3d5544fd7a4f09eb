package brain

import (
	"net/http"

	"github.com/bizline/bizline/internal/common/apperrors"
)

var (
	// ErrBrainError is the base error for all brain client errors.
	ErrBrainError apperrors.Error = apperrors.New("error in brain service").SetStatusCode(http.StatusBadGateway)

	// ErrBrainRequest is returned when the brain rejects or mangles a request.
	ErrBrainRequest apperrors.Error = ErrBrainError.New("brain request failed")

	// ErrBrainUnreachable is returned when the brain cannot be reached or times out.
	ErrBrainUnreachable apperrors.Error = ErrBrainError.New("brain unreachable")
)
