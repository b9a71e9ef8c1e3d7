// Package bizmsg fetches user data from an authentication provider with a
// decrypted bearer token and sends interactive business chat messages.
package bizmsg

import (
	"context"
	"io"

	"github.com/loykin/bizmsg/internal/authreq"
	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/credential"
	"github.com/loykin/bizmsg/internal/message"
)

// Re-export commonly used types for public API

// Client performs authenticated GET requests and decodes JSON object bodies.
type Client = authreq.Client

// ClientConfig is the construction-time configuration of a Client.
type ClientConfig = authreq.Config

// ClientOption customizes a Client.
type ClientOption = authreq.Option

// Payload is a decoded JSON object; nil means absent.
type Payload = authreq.Payload

// Document is a payload together with the raw body it was decoded from.
type Document = authreq.Document

// RequestError is returned for transport failures and malformed bodies.
type RequestError = authreq.Error

type ErrorKind = authreq.Kind

const (
	KindTransport         = authreq.KindTransport
	KindMalformedResponse = authreq.KindMalformedResponse
)

// DefaultTimeout is the user data request timeout.
const DefaultTimeout = authreq.DefaultTimeout

var (
	ErrTransport         = authreq.ErrTransport
	ErrMalformedResponse = authreq.ErrMalformedResponse
	ErrEmptyCredential   = authreq.ErrEmptyCredential
	ErrInvalidEndpoint   = authreq.ErrInvalidEndpoint
)

// NewClient builds a Client.
func NewClient(cfg ClientConfig, opts ...ClientOption) *Client { return authreq.New(cfg, opts...) }

// WithLogger routes client diagnostics to l.
func WithLogger(l *Logger) ClientOption { return authreq.WithLogger(l) }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool { return authreq.IsTimeout(err) }

// GetUserData is a one-shot helper: it builds a client from cfg, issues the
// request and returns the payload or nil.
func GetUserData(ctx context.Context, cfg ClientConfig, token, endpoint string) Payload {
	return authreq.New(cfg).Fetch(ctx, token, endpoint)
}

// CredentialSource yields bearer tokens.
type CredentialSource = credential.Source

// CredentialSourceFunc adapts a function to CredentialSource.
type CredentialSourceFunc = credential.SourceFunc

type CredentialFactory = credential.Factory

type StaticCredential = credential.Static

type JWTCredential = credential.JWT

type ClientCredentials = credential.ClientCredentials

// RegisterCredentialProvider exposes custom credential provider registration for library users.
func RegisterCredentialProvider(typ string, f CredentialFactory) { credential.Register(typ, f) }

// CredentialFromSpec builds a source from a provider type and a loosely typed spec.
func CredentialFromSpec(typ string, spec map[string]interface{}) (CredentialSource, error) {
	return credential.FromSpec(typ, spec)
}

// Quick reply messaging
type (
	QuickReply      = message.QuickReply
	QuickReplyItem  = message.Item
	Message         = message.Message
	Sender          = message.Sender
	SenderConfig    = message.SenderConfig
	SendStatusError = message.StatusError
)

// BuildQuickReply assembles an interactive quick reply message.
func BuildQuickReply(sourceID, destinationID string, qr QuickReply) (*Message, error) {
	return message.BuildQuickReply(sourceID, destinationID, qr)
}

// NewSender builds a Sender posting to cfg.ServerHost.
func NewSender(cfg SenderConfig, creds CredentialSource, logger *Logger) (*Sender, error) {
	return message.NewSender(cfg, creds, logger)
}

// Logging

type Logger = common.Logger

type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

type LogFormat = common.Format

const (
	LogFormatText  = common.FormatText
	LogFormatJSON  = common.FormatJSON
	LogFormatColor = common.FormatColor
)

func NewLogger(level LogLevel) *Logger      { return common.NewLogger(level) }
func NewJSONLogger(level LogLevel) *Logger  { return common.NewJSONLogger(level) }
func NewColorLogger(level LogLevel) *Logger { return common.NewColorLogger(level) }

func NewLoggerWithWriter(w io.Writer, level LogLevel, format LogFormat) *Logger {
	return common.NewLoggerWithWriter(w, level, format)
}

// SetDefaultLogger replaces the logger used when none is passed explicitly.
func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

func GetLogger() *Logger { return common.GetLogger() }
