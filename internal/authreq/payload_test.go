package authreq

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestDocument_Lookup(t *testing.T) {
	d, err := decodeDocument([]byte(`{"https://example.com/favorite_color":"blue","id":7,"profile":{"localizedFirstName":"Ada"},"emails":["a@example.com"]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{`https://example\.com/favorite_color`, "blue", true},
		{"id", "7", true},
		{"profile.localizedFirstName", "Ada", true},
		{"emails.0", "a@example.com", true},
		{"emails.#", "1", true},
		{"missing", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Lookup(tt.path)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Lookup(%q) = %q,%v want %q,%v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDocument_LookupOnAbsent(t *testing.T) {
	var d *Document
	if _, ok := d.Lookup("id"); ok {
		t.Fatal("absent document must not resolve paths")
	}
	if d.Pretty() != nil {
		t.Fatal("absent document has nothing to print")
	}
}

func TestDecodeDocument_MatchesEncodingJSON(t *testing.T) {
	bodies := []string{
		`{"a":"x","a":"y"}`,
		`{"outer":{"k":1,"k":2},"list":[{"d":true,"d":false}]}`,
		`{"esc\"aped":"v\u00e9","empty":[],"obj":{},"n":null,"f":-1.5e3}`,
	}
	for _, body := range bodies {
		d, err := decodeDocument([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		var want map[string]any
		if err := json.Unmarshal([]byte(body), &want); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(map[string]any(d.Payload), want) {
			t.Errorf("%s:\n got  %#v\n want %#v", body, d.Payload, want)
		}
	}
}

func TestDecodeDocument_OutOfRangeNumber(t *testing.T) {
	body := `{"id":"u1","score":1e400}`
	d, err := decodeDocument([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score, _ := d.Payload["score"].(float64); !math.IsInf(score, 1) {
		t.Fatalf("expected +Inf score, got %#v", d.Payload["score"])
	}
	if id, ok := d.Lookup("id"); !ok || id != "u1" {
		t.Fatalf("Lookup(id) = %q,%v", id, ok)
	}
	if raw, ok := d.Lookup("score"); !ok || raw != "1e400" {
		t.Fatalf("Lookup(score) = %q,%v", raw, ok)
	}
	if out := string(d.Pretty()); !strings.Contains(out, `"score": 1e400`) {
		t.Fatalf("pretty output lost the raw number: %q", out)
	}
}

func TestDecodeDocument_CopiesBody(t *testing.T) {
	body := []byte(`{"a":1}`)
	d, err := decodeDocument(body)
	if err != nil {
		t.Fatal(err)
	}
	body[2] = 'b'
	if _, ok := d.Lookup("a"); !ok {
		t.Fatal("document must not alias the caller's buffer")
	}
}

// FuzzDecodeDocument checks that decoding never yields a partial structure:
// either a non-nil payload and no error, or nil and an error.
func FuzzDecodeDocument(f *testing.F) {
	f.Add([]byte(`{"a":1}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"a":1,"a":2}`))
	f.Add([]byte(`Service Unavailable`))
	f.Add([]byte(`[1,2]`))
	f.Add([]byte(`{"a":`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, b []byte) {
		d, err := decodeDocument(b)
		if (d == nil) == (err == nil) {
			t.Fatalf("invariant broken: document=%#v err=%v", d, err)
		}
		if d != nil && d.Payload == nil {
			t.Fatal("document without payload")
		}
	})
}
