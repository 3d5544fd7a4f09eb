// Package uuid wraps github.com/google/uuid with UUIDv7 as the default, so
// request ids and correlation ids sort by creation time.
package uuid

import "github.com/google/uuid"

// UUID aliases the underlying type.
type UUID = uuid.UUID

// New returns a UUIDv7, panicking when the system entropy source fails.
// Callers that need to survive that use NewRandom.
func New() UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}

// NewRandom returns a UUIDv7 or the generation error.
func NewRandom() (UUID, error) {
	return uuid.NewV7()
}

// Parse parses a UUID in its canonical text form.
func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}
