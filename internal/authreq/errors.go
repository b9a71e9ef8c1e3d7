package authreq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies the failures the client handles locally.
type Kind int

const (
	// KindTransport covers timeouts and network-level errors.
	KindTransport Kind = iota + 1
	// KindMalformedResponse means the body was not a JSON object.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

var (
	// ErrTransport matches any *Error of KindTransport via errors.Is.
	ErrTransport = errors.New("authreq: transport failure")
	// ErrMalformedResponse matches any *Error of KindMalformedResponse via errors.Is.
	ErrMalformedResponse = errors.New("authreq: malformed response")

	ErrEmptyCredential = errors.New("authreq: credential is required")
	ErrInvalidEndpoint = errors.New("authreq: endpoint must be an absolute http(s) URL")
)

// Error is returned by Client.Get for handled failures. Payload is always nil
// alongside it.
type Error struct {
	Kind     Kind
	Endpoint string
	// StatusCode is set for malformed responses; zero for transport failures.
	StatusCode int
	// Timeout reports whether a transport failure was the deadline expiring.
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindTransport && e.Timeout:
		return fmt.Sprintf("authreq: endpoint %s timed out: %v", e.Endpoint, e.Err)
	case e.Kind == KindTransport:
		return fmt.Sprintf("authreq: request to %s failed: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("authreq: no JSON object in response from %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

// IsTimeout reports whether err is a transport failure caused by a timeout.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport && e.Timeout
}

// classifyTransport narrows err to the transport failures the client handles.
// Anything else is returned as-is so unrelated bugs are not hidden.
func classifyTransport(endpoint string, err error) (*Error, bool) {
	var ne net.Error
	var ue *url.Error
	isNet := errors.As(err, &ne)
	timeout := errors.Is(err, context.DeadlineExceeded) || (isNet && ne.Timeout())
	if !timeout && !isNet && !errors.As(err, &ue) && !errors.Is(err, context.Canceled) {
		return nil, false
	}
	return &Error{Kind: KindTransport, Endpoint: endpoint, Timeout: timeout, Err: err}, true
}
