// Package types holds small value types shared across package boundaries.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
)

// NullableAny carries an optional JSON value without committing to a Go
// type. The zero value is null; a set value keeps its raw encoding so it
// round-trips through the wire unchanged.
type NullableAny struct {
	raw   json.RawMessage
	valid bool
}

// NullableAnyFrom encodes value into a NullableAny. A json.RawMessage or
// []byte already holding valid JSON is taken as-is.
func NullableAnyFrom(value any) (NullableAny, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return NullableAny{}, errors.New("value is not valid JSON")
		}
		return NullableAny{raw: v, valid: true}, nil
	case []byte:
		if json.Valid(v) {
			return NullableAny{raw: v, valid: true}, nil
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return NullableAny{}, err
	}
	return NullableAny{raw: raw, valid: true}, nil
}

// IsNil reports whether the value is null.
func (na NullableAny) IsNil() bool {
	return !na.valid
}

// GetAs unmarshals the carried value into v. Fails on a null value.
func (na NullableAny) GetAs(v any) error {
	if !na.valid {
		return errors.New("value is not set")
	}
	return json.Unmarshal(na.raw, v)
}

func (na NullableAny) MarshalJSON() ([]byte, error) {
	if !na.valid {
		return json.Marshal(nil)
	}
	return na.raw, nil
}

func (na *NullableAny) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*na = NullableAny{}
		return nil
	}
	if !json.Valid(data) {
		*na = NullableAny{}
		return errors.New("invalid JSON")
	}
	na.raw = data
	na.valid = true
	return nil
}

var _ json.Marshaler = NullableAny{}
var _ json.Unmarshaler = &NullableAny{}
