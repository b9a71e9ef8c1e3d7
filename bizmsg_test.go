package bizmsg

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGetUserData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"https://example.com/favorite_color": "blue"}`))
	}))
	defer srv.Close()

	p := GetUserData(context.Background(), ClientConfig{}, "tok", srv.URL)
	if p["https://example.com/favorite_color"] != "blue" {
		t.Fatalf("unexpected payload %#v", p)
	}
}

func TestNewClient_ErrorKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte("Service Unavailable"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	c := NewClient(ClientConfig{Timeout: 100 * time.Millisecond},
		WithLogger(NewLoggerWithWriter(&buf, LogLevelInfo, LogFormatText)))

	_, err := c.Get(context.Background(), "tok", srv.URL)
	var rerr *RequestError
	if !errors.As(err, &rerr) || rerr.Kind != KindMalformedResponse || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}

	_, err = c.Get(context.Background(), "tok", srv.URL+"/slow")
	if !errors.Is(err, ErrTransport) || !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if !strings.Contains(buf.String(), srv.URL+"/slow") {
		t.Fatalf("timeout diagnostic should name the endpoint: %q", buf.String())
	}
}

func TestCredentialFromSpec(t *testing.T) {
	src, err := CredentialFromSpec("static", map[string]interface{}{"token": "abc"})
	if err != nil {
		t.Fatal(err)
	}
	tok, err := src.Token(context.Background())
	if err != nil || tok != "abc" {
		t.Fatalf("Token = %q, %v", tok, err)
	}

	RegisterCredentialProvider("fixed", func(map[string]interface{}) (CredentialSource, error) {
		return &StaticCredential{Value: "fixed-token"}, nil
	})
	src, err = CredentialFromSpec("fixed", nil)
	if err != nil {
		t.Fatal(err)
	}
	if tok, _ := src.Token(context.Background()); tok != "fixed-token" {
		t.Fatalf("custom provider not used, got %q", tok)
	}
}

func TestSendQuickReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	msg, err := BuildQuickReply("biz", "dest", QuickReply{Items: []QuickReplyItem{{Identifier: "1", Title: "Yes"}}})
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSender(SenderConfig{ServerHost: srv.URL}, &StaticCredential{Value: "jwt"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	code, err := s.Send(context.Background(), msg)
	if err != nil || code != http.StatusAccepted {
		t.Fatalf("Send = %d, %v", code, err)
	}
}

func TestCredentialSourceFunc(t *testing.T) {
	var src CredentialSource = CredentialSourceFunc(func(context.Context) (string, error) { return "fn-token", nil })
	if tok, err := src.Token(context.Background()); err != nil || tok != "fn-token" {
		t.Fatalf("Token = %q, %v", tok, err)
	}
}
