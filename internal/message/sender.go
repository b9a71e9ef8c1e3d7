package message

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/credential"
	"github.com/loykin/bizmsg/internal/httpc"
)

// DefaultTimeout applies to message posts.
const DefaultTimeout = 10 * time.Second

// SenderConfig holds the messaging server settings.
type SenderConfig struct {
	// ServerHost is the messaging server base URL; "/message" is appended.
	ServerHost    string
	Timeout       time.Duration
	Insecure      bool
	MinTLSVersion string
	MaxTLSVersion string
}

// StatusError reports a non-2xx answer from the messaging server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("message: server returned %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Sender posts messages to the messaging server.
type Sender struct {
	http     *resty.Client
	endpoint string
	creds    credential.Source
	logger   *common.Logger
}

// NewSender validates cfg and builds a Sender. creds is asked for a token on
// every Send.
func NewSender(cfg SenderConfig, creds credential.Source, logger *common.Logger) (*Sender, error) {
	host := strings.TrimRight(strings.TrimSpace(cfg.ServerHost), "/")
	if u, err := url.Parse(host); err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("message: server host must be an absolute URL, got %q", cfg.ServerHost)
	}
	if creds == nil {
		return nil, errors.New("message: credential source is required")
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sender{
		http: httpc.New(httpc.Options{
			Timeout:       timeout,
			Insecure:      cfg.Insecure,
			MinTLSVersion: cfg.MinTLSVersion,
			MaxTLSVersion: cfg.MaxTLSVersion,
			Logger:        logger,
		}),
		endpoint: host + "/message",
		creds:    creds,
		logger:   logger.WithComponent("message"),
	}, nil
}

// Endpoint returns the URL messages are posted to.
func (s *Sender) Endpoint() string { return s.endpoint }

// Send posts msg and returns the HTTP status code. A non-2xx status is
// returned together with a *StatusError.
func (s *Sender) Send(ctx context.Context, msg *Message) (int, error) {
	if msg == nil {
		return 0, errors.New("message: nil message")
	}
	token, err := credential.Acquire(ctx, s.creds)
	if err != nil {
		return 0, fmt.Errorf("message: acquire credential: %w", err)
	}

	logger := s.logger.With("message_id", msg.ID, "destination_id", msg.DestinationID)
	logger.Debug("posting message", "endpoint", s.endpoint, "type", msg.Type)

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token).
		SetHeader("id", msg.ID).
		SetHeader("Source-Id", msg.SourceID).
		SetHeader("Destination-Id", msg.DestinationID).
		SetHeader("include-data-ref", "true").
		SetBody(msg).
		Post(s.endpoint)
	if err != nil {
		logger.Error("message post failed", "endpoint", s.endpoint, "error", err)
		return 0, fmt.Errorf("message: post %s: %w", s.endpoint, err)
	}

	status := resp.StatusCode()
	logger.Info("message posted", "status_code", status)
	if status < 200 || status >= 300 {
		return status, &StatusError{StatusCode: status, Body: string(resp.Body())}
	}
	return status, nil
}
