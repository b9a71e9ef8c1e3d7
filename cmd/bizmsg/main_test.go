package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/message"
)

// runCLI executes a fresh root command and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := common.GetLogger()
	t.Cleanup(func() { common.SetDefaultLogger(prev) })

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestUserData_PrintsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer WL07-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"https://example.com/favorite_color": "blue"}`))
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "userdata", "--token", "WL07-token", "--endpoint", srv.URL+"/v2/me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"https://example.com/favorite_color": "blue"`) {
		t.Fatalf("payload not printed: %q", out)
	}
	if !strings.HasSuffix(out, "Our work is done for this routine.\n") {
		t.Fatalf("missing closing line: %q", out)
	}
}

func TestUserData_Fields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","profile":{"first":"Ada"}}`))
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "userdata", "--token", "t", "--endpoint", srv.URL,
		"--field", "profile.first", "--field", "email")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "profile.first: Ada\n") || !strings.Contains(out, "email: <missing>\n") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestUserData_MalformedPrintsEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Service Unavailable"))
	}))
	defer srv.Close()

	out, logs, err := runCLI(t, "userdata", "--token", "t", "--endpoint", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(out, "Empty response.\nOur work is done for this routine.\n") {
		t.Fatalf("unexpected stdout: %q", out)
	}
	diag := strings.Index(out, "No JSON object could be found using decrypted token.")
	if diag < 0 || diag > strings.Index(out, "Empty response.") {
		t.Fatalf("diagnostic should precede the result on stdout: %q", out)
	}
	if logs != "" {
		t.Fatalf("nothing should go to stderr by default, got %q", logs)
	}
}

func TestUserData_LogOutputStderr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Service Unavailable"))
	}))
	defer srv.Close()

	t.Setenv("BIZMSG_LOGGING_OUTPUT", "stderr")
	out, logs, err := runCLI(t, "userdata", "--token", "t", "--endpoint", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Empty response.\nOur work is done for this routine.\n" {
		t.Fatalf("stdout = %q", out)
	}
	if !strings.Contains(logs, "No JSON object could be found") {
		t.Fatalf("diagnostic missing from stderr: %q", logs)
	}
}

func TestUserData_OutOfRangeNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","score":1e400}`))
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "userdata", "--token", "t", "--endpoint", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"score": 1e400`) || !strings.HasSuffix(out, "Our work is done for this routine.\n") {
		t.Fatalf("unexpected stdout: %q", out)
	}

	out, _, err = runCLI(t, "userdata", "--token", "t", "--endpoint", srv.URL, "--field", "id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "id: u1\n") {
		t.Fatalf("present field reported missing: %q", out)
	}
}

func TestUserData_CredentialFromConfig(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "cid" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"cc-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"auth":"` + r.Header.Get("Authorization") + `"}`))
	}))
	defer apiSrv.Close()

	cfg := writeFile(t, "config.yaml", `
credential:
  type: client_credentials
  config:
    client_id: cid
    client_secret: csecret
    token_url: `+tokenSrv.URL+`
`)
	out, _, err := runCLI(t, "userdata", "--config", cfg, "--endpoint", apiSrv.URL, "--field", "auth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "auth: Bearer cc-token\n") {
		t.Fatalf("configured credential not used: %q", out)
	}
}

func TestUserData_TokenFromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"auth":"` + r.Header.Get("Authorization") + `"}`))
	}))
	defer srv.Close()

	t.Setenv("BIZMSG_TOKEN", "env-token")
	out, _, err := runCLI(t, "userdata", "--endpoint", srv.URL, "--field", "auth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "auth: Bearer env-token") {
		t.Fatalf("token from env not used: %q", out)
	}
}

func TestUserData_UsageErrors(t *testing.T) {
	if _, _, err := runCLI(t, "userdata", "--endpoint", "https://example.com"); err == nil {
		t.Fatal("expected error without token")
	}
	if _, _, err := runCLI(t, "userdata", "--token", "t", "--endpoint", "/v2/me"); err == nil {
		t.Fatal("expected error for relative endpoint")
	}
	if _, _, err := runCLI(t, "userdata", "--token", "t", "--config", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func quickReplyConfig(t *testing.T, host string) string {
	return writeFile(t, "config.yaml", `
business_id: biz-1
csp_id: csp-1
secret: c2VjcmV0
server_host: `+host+`
logging:
  level: warn
`)
}

func TestQuickReply_Sends(t *testing.T) {
	var got message.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message" || r.Header.Get("Destination-Id") != "dest-9" {
			t.Errorf("unexpected request %s dest=%q", r.URL.Path, r.Header.Get("Destination-Id"))
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ey") {
			t.Errorf("expected a JWT bearer, got %q", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
	}))
	defer srv.Close()

	items := writeFile(t, "items.yaml", "summary_text: Pick one\nitems:\n  - identifier: a\n    title: A\n")
	out, _, err := runCLI(t, "quick-reply", "--config", quickReplyConfig(t, srv.URL),
		"--destination", "dest-9", "--items", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Messages for Business server return code: 200\n" {
		t.Fatalf("stdout = %q", out)
	}
	if got.SourceID != "biz-1" || got.InteractiveData.Data.QuickReply.SummaryText != "Pick one" {
		t.Fatalf("unexpected posted message: %+v", got)
	}
}

func TestQuickReply_ServerRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out, _, err := runCLI(t, "quick-reply", "--config", quickReplyConfig(t, srv.URL), "--destination", "d")
	var se *message.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected StatusError 403, got %v", err)
	}
	if out != "Messages for Business server return code: 403\n" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestQuickReply_RequiresSettings(t *testing.T) {
	if _, _, err := runCLI(t, "quick-reply", "--destination", "d"); err == nil {
		t.Fatal("expected error without messaging settings")
	}
	cfg := quickReplyConfig(t, "https://mspgw.example.com")
	if _, _, err := runCLI(t, "quick-reply", "--config", cfg); err == nil {
		t.Fatal("expected error without destination")
	}
}

type recordingExit struct{ code int }

func (r *recordingExit) Exit(code int) { r.code = code }

func (r *recordingExit) LogFatalError(err error, msg string, keyvals ...any) {
	(&DefaultExitHandler{}).logOnly(err, msg, keyvals...)
	r.Exit(1)
}

func TestDefaultExitHandler_Logs(t *testing.T) {
	prev := common.GetLogger()
	t.Cleanup(func() { common.SetDefaultLogger(prev) })

	var buf bytes.Buffer
	common.SetDefaultLogger(common.NewLoggerWithWriter(&buf, common.LogLevelInfo, common.FormatText))

	h := &recordingExit{}
	h.LogFatalError(errors.New("boom"), "command execution failed", "command", "userdata")
	if h.code != 1 {
		t.Fatalf("exit code = %d", h.code)
	}
	out := buf.String()
	if !strings.Contains(out, "component=main") || !strings.Contains(out, "error=boom") || !strings.Contains(out, "command=userdata") {
		t.Fatalf("unexpected log: %q", out)
	}
}
