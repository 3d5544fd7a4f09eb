// Package brain provides the client for the Bizline brain service, the remote
// AI reasoning endpoint that turns inbound chat content into a reply. Text and
// media requests carry independent hard timeouts so a stuck brain call can
// never hang a tenant's dispatch loop.
package brain

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bizline/bizline/internal/common/apperrors"
	"github.com/bizline/bizline/internal/common/httpclient"
)

// Service is the brain surface the dispatcher depends on. Tests substitute a
// fake implementation.
type Service interface {
	// Reply requests a reply for a plain-text message.
	Reply(ctx context.Context, req *ReplyRequest) (string, apperrors.Error)

	// MediaReply requests a reply for a media message.
	MediaReply(ctx context.Context, req *MediaReplyRequest) (string, apperrors.Error)
}

// ReplyRequest is the text-path request contract.
type ReplyRequest struct {
	Message       string `json:"message"`
	SenderID      string `json:"senderId"`
	TenantID      string `json:"tenantId"`
	CorrelationID string `json:"correlationId"`
}

// MediaReplyRequest is the media-path request contract.
type MediaReplyRequest struct {
	MediaBase64   string `json:"mediaBase64"`
	MimeType      string `json:"mimeType"`
	Caption       string `json:"caption"`
	SenderID      string `json:"senderId"`
	TenantID      string `json:"tenantId"`
	CorrelationID string `json:"correlationId"`
}

// ReplyResponse is the brain's response contract for both paths.
type ReplyResponse struct {
	Reply string `json:"reply"`
}

// Config holds the brain client's connection settings.
type Config struct {
	URL          string        // brain service base URL
	APIToken     string        // optional bearer token
	TextTimeout  time.Duration // hard timeout for text requests
	MediaTimeout time.Duration // hard timeout for media requests
}

// GetServerURL implements httpclient.Configurator.
func (c *Config) GetServerURL() string {
	return c.URL
}

// GetAPIToken implements httpclient.Configurator.
func (c *Config) GetAPIToken() string {
	return c.APIToken
}

// Client is the HTTP implementation of Service.
type Client struct {
	config *Config
	http   *httpclient.HTTPClient
}

// New creates a brain client for the given configuration.
func New(config *Config) *Client {
	return &Client{
		config: config,
		http:   httpclient.NewClient(config),
	}
}

// Reply implements Service. A failed or timed-out call is reported as an
// error; the dispatcher owns the degradation policy.
func (c *Client) Reply(ctx context.Context, req *ReplyRequest) (string, apperrors.Error) {
	return c.post(ctx, "replies/text", req, c.config.TextTimeout)
}

// MediaReply implements Service.
func (c *Client) MediaReply(ctx context.Context, req *MediaReplyRequest) (string, apperrors.Error) {
	return c.post(ctx, "replies/media", req, c.config.MediaTimeout)
}

func (c *Client) post(ctx context.Context, path string, req any, timeout time.Duration) (string, apperrors.Error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", ErrBrainRequest.MsgErr("unable to encode request", err)
	}

	opts := httpclient.RequestOptions{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Timeout: timeout,
		Context: ctx,
	}

	rspBody, err := c.http.DoRequest(opts)
	if err != nil {
		if httpErr, ok := err.(*httpclient.HTTPError); ok {
			return "", ErrBrainRequest.Msg(httpErr.Message)
		}
		return "", ErrBrainUnreachable.MsgErr("request failed", err)
	}

	rsp := &ReplyResponse{}
	if err := json.Unmarshal(rspBody, rsp); err != nil {
		return "", ErrBrainRequest.MsgErr("unable to parse response", err)
	}
	if rsp.Reply == "" {
		return "", ErrBrainRequest.Msg("empty reply")
	}
	return rsp.Reply, nil
}

var _ Service = (*Client)(nil)
