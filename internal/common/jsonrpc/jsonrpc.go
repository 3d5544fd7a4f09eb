// Package jsonrpc frames the JSON-RPC 2.0 traffic between courier and the
// protocol engine. The exchange is one-directional from courier's side:
// courier issues requests and consumes the engine's responses and
// notifications, so only that half of the protocol is implemented.
package jsonrpc

import (
	"encoding/json"
	"errors"

	"github.com/bizline/bizline/pkg/types"
)

// Version is the protocol version stamped on every message.
const Version = "2.0"

// MethodType names a JSON-RPC method.
type MethodType string

// Request is a request or, when ID is empty, a notification.
type Request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id,omitempty"`
	Method  MethodType        `json:"method"`
	Params  types.NullableAny `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return r.ID == ""
}

// Response carries either a result or an error, never both.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the JSON-RPC error payload. It satisfies the error
// interface so callers can hand it up a Go error chain directly.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return e.Message
}

// ConstructRequest encodes one request line for the engine's stdin.
func ConstructRequest(id string, method MethodType, params any) ([]byte, error) {
	p, err := types.NullableAnyFrom(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Request{
		JSONRPC: Version,
		ID:      id,
		Method:  method,
		Params:  p,
	})
}

// ParseRequest decodes a request or notification line from the engine.
func ParseRequest(data []byte) (*Request, error) {
	req := &Request{}
	if err := json.Unmarshal(data, req); err != nil {
		return nil, err
	}
	if req.JSONRPC != Version || req.Method == "" {
		return nil, errors.New("invalid JSON-RPC request")
	}
	return req, nil
}

// ParseResponse decodes a response line from the engine, enforcing the
// result-xor-error rule.
func ParseResponse(data []byte) (*Response, error) {
	rsp := &Response{}
	if err := json.Unmarshal(data, rsp); err != nil {
		return nil, err
	}
	if rsp.JSONRPC != Version {
		return nil, errors.New("invalid JSON-RPC response")
	}
	if rsp.Result != nil && rsp.Error != nil {
		return nil, errors.New("response must have either result or error")
	}
	return rsp, nil
}

// Error codes the engine is known to emit. The first five are the codes
// reserved by the JSON-RPC 2.0 specification.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
	ErrCodeEngineFailure  = -32010
)
