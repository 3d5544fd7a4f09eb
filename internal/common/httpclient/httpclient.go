// Package httpclient is the REST client for internal Bizline services. It
// handles bearer-token authentication, request building, and translating the
// standard error envelope into typed errors.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Configurator defines the interface for providing server configuration and
// authentication details to the client.
type Configurator interface {
	GetServerURL() string
	GetAPIToken() string
}

// ServerError represents an error response from the server with a result code and error message.
type ServerError struct {
	Result int    `json:"result"` // HTTP status code or result code from server
	Error  string `json:"error"`  // Error message from server
}

// HTTPError represents an error response from the server with HTTP status code and message.
type HTTPError struct {
	StatusCode int    // HTTP status code of the error
	Message    string // Error message or response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	return e.Message
}

// HTTPClient represents a client for making HTTP requests to a REST API server.
// It handles authentication, request building, and response processing.
type HTTPClient struct {
	config     Configurator
	httpClient *http.Client
}

// NewClient creates a new HTTP client using the provided configuration.
func NewClient(config Configurator) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{},
	}
}

// RequestOptions contains options for making HTTP requests.
// Method and Path are required; the rest are optional.
type RequestOptions struct {
	Method      string            // HTTP method (GET, POST, PUT, DELETE)
	Path        string            // API endpoint path
	QueryParams map[string]string // Optional query parameters
	Body        []byte            // Optional request body
	Timeout     time.Duration     // Optional per-request timeout
	Context     context.Context   // Optional request context
}

func (c *HTTPClient) newRequest(opts RequestOptions) (*http.Request, context.CancelFunc, error) {
	u, err := url.Parse(c.config.GetServerURL())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server URL: %v", err)
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bytes.NewBuffer(opts.Body))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if token := c.config.GetAPIToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, cancel, nil
}

// DoRequest makes an HTTP request with the given options and returns the
// response body. A status of 400 or above is returned as an *HTTPError.
func (c *HTTPClient) DoRequest(opts RequestOptions) ([]byte, error) {
	req, cancel, err := c.newRequest(opts)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	return body, nil
}

func errorFromResponse(statusCode int, body []byte) error {
	var serverErr ServerError
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
		return &HTTPError{
			StatusCode: statusCode,
			Message:    serverErr.Error,
		}
	}
	if statusCode == http.StatusNotFound {
		return &HTTPError{
			StatusCode: statusCode,
			Message:    "server doesn't implement this endpoint",
		}
	}
	return &HTTPError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}
