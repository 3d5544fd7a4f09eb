package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client communicates with the courier admin API over HTTP. It provides
// methods for session management, outbound sends, and event streaming.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	config     clientConfig
}

// ClientOption is a function type for configuring client behavior.
type ClientOption func(*clientConfig)

type clientConfig struct {
	requestTimeout time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// WithRequestTimeout sets the timeout applied to non-streaming requests.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.requestTimeout = timeout
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed requests.
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithRetryDelay sets the delay between retry attempts for failed requests.
func WithRetryDelay(delay time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.retryDelay = delay
	}
}

// NewClient creates a Client for the courier admin API at baseURL. The token
// is sent as a bearer token when non-empty.
func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	config := clientConfig{
		requestTimeout: 10 * time.Second,
		maxRetries:     3,
		retryDelay:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}

	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		config:     config,
	}, nil
}

// ListTenants returns a snapshot of all registered tenant sessions.
func (c *Client) ListTenants(ctx context.Context) ([]TenantStatus, error) {
	rsp := &ListTenantsResponse{}
	if err := c.doJSON(ctx, http.MethodGet, "/tenants", nil, rsp); err != nil {
		return nil, err
	}
	return rsp.Tenants, nil
}

// StartSession starts or resumes the tenant's session.
func (c *Client) StartSession(ctx context.Context, tenantID string) (*TenantStatus, error) {
	status := &TenantStatus{}
	path := "/tenants/" + tenantID + "/session"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetSession returns the tenant's session status.
func (c *Client) GetSession(ctx context.Context, tenantID string) (*TenantStatus, error) {
	status := &TenantStatus{}
	path := "/tenants/" + tenantID + "/session"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, status); err != nil {
		return nil, err
	}
	return status, nil
}

// StopSession stops the tenant's session, keeping credentials.
func (c *Client) StopSession(ctx context.Context, tenantID string) error {
	path := "/tenants/" + tenantID + "/session"
	return c.doJSON(ctx, http.MethodDelete, path, nil, &StopSessionResponse{})
}

// DeleteTenant stops the tenant's session and erases its credentials.
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tenants/"+tenantID, nil, &DeleteTenantResponse{})
}

// SendMessage delivers an outbound message through the tenant's open session.
func (c *Client) SendMessage(ctx context.Context, tenantID string, req *SendMessageRequest) error {
	path := "/tenants/" + tenantID + "/messages"
	return c.doJSON(ctx, http.MethodPost, path, req, &SendMessageResponse{})
}

// Version returns the server's version information.
func (c *Client) Version(ctx context.Context) (*VersionResponse, error) {
	rsp := &VersionResponse{}
	if err := c.doJSON(ctx, http.MethodGet, "/version", nil, rsp); err != nil {
		return nil, err
	}
	return rsp, nil
}

// WatchEvents streams the tenant's lifecycle and activity log events,
// invoking fn for each event. Blocks until the stream ends, the context is
// cancelled, or fn returns an error.
func (c *Client) WatchEvents(ctx context.Context, tenantID string, fn func(ev StreamEvent) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tenants/"+tenantID+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	c.setAuth(req)

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return c.responseError(rsp)
	}

	scanner := bufio.NewScanner(rsp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var ev StreamEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if ev.Event != "" || ev.Data != "" {
				if err := fn(ev); err != nil {
					return err
				}
				ev = StreamEvent{}
			}
		}
	}
	return scanner.Err()
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, rspBody any) error {
	var payload []byte
	if reqBody != nil {
		var err error
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.retryDelay):
			}
		}

		rctx, cancel := context.WithTimeout(ctx, c.config.requestTimeout)
		err := c.doOnce(rctx, method, path, payload, rspBody)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		// Only connection-level failures are worth retrying.
		if _, ok := err.(*RequestError); ok {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, rspBody any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return c.responseError(rsp)
	}
	if rspBody == nil {
		return nil
	}
	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, rspBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// RequestError is a non-2xx response from the admin API.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func (c *Client) responseError(rsp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(rsp.Body, 4096))
	msg := struct {
		Error string `json:"error"`
	}{}
	_ = json.Unmarshal(data, &msg)
	return &RequestError{
		StatusCode: rsp.StatusCode,
		Message:    msg.Error,
	}
}
