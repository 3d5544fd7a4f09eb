package credstore

import (
	"net/http"

	"github.com/bizline/bizline/internal/common/apperrors"
)

var (
	// ErrStoreError is the base error for all credential store errors.
	ErrStoreError apperrors.Error = apperrors.New("error in credential store").SetStatusCode(http.StatusInternalServerError)

	// ErrStoreIO is returned when a filesystem operation on the store fails.
	ErrStoreIO apperrors.Error = ErrStoreError.New("credential store I/O failed")

	// ErrInvalidTenantID is returned when a tenant id cannot name a store directory.
	ErrInvalidTenantID apperrors.Error = ErrStoreError.New("invalid tenant id").SetStatusCode(http.StatusBadRequest)

	// ErrNoCredentials is returned when a tenant has no credential blob.
	ErrNoCredentials apperrors.Error = ErrStoreError.New("no credentials for tenant").SetStatusCode(http.StatusNotFound)

	// ErrCorruptCredentials is returned when a tenant's credential blob is not valid JSON.
	ErrCorruptCredentials apperrors.Error = ErrStoreError.New("credential blob is corrupt")
)
