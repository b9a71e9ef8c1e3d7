package authreq

import (
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Payload is a fully decoded JSON object. A nil Payload is the absent value.
type Payload map[string]any

// Document is a decoded JSON object together with the body it was decoded
// from. Path lookups and printing work on Raw, so values Payload cannot
// round-trip (for example numbers beyond float64 range) are kept verbatim.
type Document struct {
	Payload Payload
	Raw     []byte
}

var (
	errNotJSON   = errors.New("body is not valid JSON")
	errNotObject = errors.New("body is not a JSON object")
)

// decodeDocument validates body and decodes it only when the whole document
// is a JSON object, so callers never see a partial structure.
func decodeDocument(body []byte) (*Document, error) {
	if !gjson.ValidBytes(body) {
		return nil, errNotJSON
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, errNotObject
	}
	m, ok := decodeValue(res).(map[string]any)
	if !ok || m == nil {
		return nil, errNotObject
	}
	raw := make([]byte, len(body))
	copy(raw, body)
	return &Document{Payload: Payload(m), Raw: raw}, nil
}

// decodeValue converts a gjson result into the shapes encoding/json produces.
// Duplicate object keys resolve to the last occurrence.
func decodeValue(r gjson.Result) any {
	switch {
	case r.IsObject():
		m := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			m[k.Str] = decodeValue(v)
			return true
		})
		return m
	case r.IsArray():
		arr := []any{}
		r.ForEach(func(_, v gjson.Result) bool {
			arr = append(arr, decodeValue(v))
			return true
		})
		return arr
	}
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Num
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return nil
	}
}

// Lookup evaluates a gjson path against the raw body. Strings are returned
// unquoted; other values are returned as raw JSON. Dots inside keys must be
// escaped, e.g. `https://example\.com/favorite_color`.
func (d *Document) Lookup(path string) (string, bool) {
	if d == nil || d.Payload == nil || path == "" {
		return "", false
	}
	res := gjson.GetBytes(d.Raw, path)
	if !res.Exists() {
		return "", false
	}
	if res.Type == gjson.String {
		return res.Str, true
	}
	return res.Raw, true
}

// Pretty returns the body indented for display.
func (d *Document) Pretty() []byte {
	if d == nil {
		return nil
	}
	return pretty.Pretty(d.Raw)
}
