package apperrors

import (
	"errors"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndChaining(t *testing.T) {
	base := New("connection failed").SetStatusCode(http.StatusBadGateway)
	assert.Equal(t, "connection failed", base.Error())
	assert.Equal(t, http.StatusBadGateway, base.StatusCode())

	derived := base.New("dial timed out")
	assert.Equal(t, "dial timed out", derived.Error())
	assert.Equal(t, http.StatusBadGateway, derived.StatusCode())
	assert.True(t, errors.Is(derived, base))
}

func TestMsgWrapsOriginal(t *testing.T) {
	base := New("store error")
	wrapped := base.Msg("unable to read credential blob")
	assert.Equal(t, "unable to read credential blob", wrapped.Error())
	assert.True(t, errors.Is(wrapped, base))
	require.NotEmpty(t, wrapped.UnwrapAll())
}

func TestMsgErrAttachesExternalErrors(t *testing.T) {
	ioErr := pkgerrors.New("disk unplugged")
	base := New("store error")
	wrapped := base.MsgErr("write failed", ioErr)
	assert.True(t, errors.Is(wrapped, ioErr))
	assert.True(t, errors.Is(wrapped, base))
}

func TestErrorAllExpansion(t *testing.T) {
	inner := errors.New("timeout")
	base := New("request failed").Err(inner)
	assert.Equal(t, "request failed", base.ErrorAll())

	expanded := base.SetExpandError(true)
	assert.Contains(t, expanded.ErrorAll(), "request failed")
	assert.Contains(t, expanded.ErrorAll(), "timeout")
}

func TestSetStatusCodeDoesNotMutate(t *testing.T) {
	base := New("err")
	changed := base.SetStatusCode(http.StatusTeapot)
	assert.Equal(t, 0, base.StatusCode())
	assert.Equal(t, http.StatusTeapot, changed.StatusCode())
}
