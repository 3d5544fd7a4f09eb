package jsonrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructRequest(t *testing.T) {
	data, err := ConstructRequest("req-1", "message.send", map[string]string{"recipient": "1555"})
	require.NoError(t, err)

	req, err := ParseRequest(data)
	require.NoError(t, err)
	assert.Equal(t, Version, req.JSONRPC)
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, MethodType("message.send"), req.Method)
	assert.False(t, req.IsNotification())

	params := map[string]string{}
	require.NoError(t, req.Params.GetAs(&params))
	assert.Equal(t, "1555", params["recipient"])
}

func TestParseRequestRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"not json", "garbage"},
		{"wrong version", `{"jsonrpc":"1.0","method":"m"}`},
		{"missing method", `{"jsonrpc":"2.0","id":"1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tc.line))
			assert.Error(t, err)
		})
	}
}

func TestNotificationHasNoID(t *testing.T) {
	req, err := ParseRequest([]byte(`{"jsonrpc":"2.0","method":"session.opened","params":{"identity":"1555"}}`))
	require.NoError(t, err)
	assert.True(t, req.IsNotification())
}

func TestParseResponse(t *testing.T) {
	rsp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":"req-1","result":{"messageId":"m1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "req-1", rsp.ID)
	assert.Nil(t, rsp.Error)
	assert.JSONEq(t, `{"messageId":"m1"}`, string(rsp.Result))
}

func TestParseResponseError(t *testing.T) {
	rsp, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":"req-1","error":{"code":-32010,"message":"engine failed"}}`))
	require.NoError(t, err)
	require.NotNil(t, rsp.Error)
	assert.Equal(t, ErrCodeEngineFailure, rsp.Error.Code)
	assert.EqualError(t, rsp.Error, "engine failed")
}

func TestParseResponseResultAndErrorRejected(t *testing.T) {
	_, err := ParseResponse([]byte(`{"jsonrpc":"2.0","id":"1","result":{},"error":{"code":1,"message":"x"}}`))
	assert.Error(t, err)
}
