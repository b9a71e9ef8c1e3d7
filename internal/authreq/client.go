// Package authreq issues a single authenticated GET and interprets the body
// as a JSON object.
package authreq

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/httpc"
)

// DefaultTimeout is longer than the 10s used for other calls because token
// introspection endpoints are slow.
const DefaultTimeout = 30 * time.Second

const (
	formContentType = "application/x-www-form-urlencoded"

	msgMalformed      = "No JSON object could be found using decrypted token."
	msgTimeoutFmt     = "Endpoint %s taking too long to respond"
	msgUnreachableFmt = "Endpoint %s could not be reached"
)

// Config is fixed at construction; the client holds no other state.
type Config struct {
	// Timeout for the whole request. Zero means DefaultTimeout.
	Timeout       time.Duration
	Insecure      bool
	MinTLSVersion string
	MaxTLSVersion string
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger routes diagnostics to l instead of the global logger.
func WithLogger(l *common.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.base = l
		}
	}
}

// Client performs authenticated GET requests. It is safe for concurrent use.
type Client struct {
	http    *resty.Client
	base    *common.Logger
	logger  *common.Logger
	timeout time.Duration
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{base: common.GetLogger(), timeout: cfg.Timeout}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.base.WithComponent("authreq")
	c.http = httpc.New(httpc.Options{
		Timeout:       c.timeout,
		Insecure:      cfg.Insecure,
		MinTLSVersion: cfg.MinTLSVersion,
		MaxTLSVersion: cfg.MaxTLSVersion,
		Logger:        c.base,
	})
	return c
}

// Timeout returns the effective request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Get sends `GET endpoint` with a bearer credential and decodes the body.
//
// Transport failures and non-object bodies are logged once and returned as
// *Error with a nil Payload. Usage mistakes (empty credential, endpoint that
// is not an absolute http(s) URL) return ErrEmptyCredential or
// ErrInvalidEndpoint without logging.
func (c *Client) Get(ctx context.Context, credential, endpoint string) (Payload, error) {
	doc, err := c.GetDocument(ctx, credential, endpoint)
	if err != nil {
		return nil, err
	}
	return doc.Payload, nil
}

// GetDocument is Get returning the raw body alongside the decoded payload.
func (c *Client) GetDocument(ctx context.Context, credential, endpoint string) (*Document, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrEmptyCredential
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	logger := c.logger.WithEndpoint(endpoint)
	logger.Debug("requesting user data", "timeout", c.timeout)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", formContentType).
		SetAuthToken(credential).
		Get(endpoint)
	if err != nil {
		rerr, ok := classifyTransport(endpoint, err)
		if !ok {
			return nil, err
		}
		if rerr.Timeout {
			logger.Warn(fmt.Sprintf(msgTimeoutFmt, endpoint))
		} else {
			logger.Warn(fmt.Sprintf(msgUnreachableFmt, endpoint), "error", err)
		}
		return nil, rerr
	}

	status := resp.StatusCode()
	body := resp.Body()
	logger.Debug("received response", "status_code", status, "response_size", len(body))

	doc, err := decodeDocument(body)
	if err != nil {
		logger.Warn(msgMalformed, "status_code", status)
		return nil, &Error{Kind: KindMalformedResponse, Endpoint: endpoint, StatusCode: status, Err: err}
	}
	return doc, nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
}

// Fetch is Get with every failure collapsed into the absent value (nil).
// Handled failures are already logged by Get; anything else is logged here.
func (c *Client) Fetch(ctx context.Context, credential, endpoint string) Payload {
	payload, err := c.Get(ctx, credential, endpoint)
	if err != nil {
		var rerr *Error
		if !errors.As(err, &rerr) {
			c.logger.Error("request not sent", "error", err)
		}
		return nil
	}
	return payload
}
