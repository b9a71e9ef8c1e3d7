package common

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
)

const maskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "bearer_token")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Attribute keys masked outright (case-insensitive)
}

// DefaultSensitivePatterns contains common patterns for sensitive information
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(access[_-]?token|auth[_-]?token|token)["'\s]*[:=]["'\s]*([^"',}\]\s&]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"token", "credential", "access_token", "auth_token", "jwt"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + maskedValue,
	},
	{
		Name: "authorization",
		// The scheme word is consumed so the credential after it is what gets replaced.
		Regex:       regexp.MustCompile(`(?i)(authorization)["'\s]*[:=]["'\s]*(?:(?:bearer|basic)\s+)?([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"authorization"},
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)(secret|client[_-]?secret)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"secret", "client_secret", "client-secret"},
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  atomic.Bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	m := &Masker{patterns: patterns}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) { m.enabled.Store(enabled) }

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool { return m.enabled.Load() }

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.IsEnabled() {
		return input
	}
	result := input
	for _, p := range m.patterns {
		if p.Regex != nil {
			result = p.Regex.ReplaceAllString(result, p.Replacement)
		}
	}
	return result
}

// sensitiveKey reports whether an attribute key is masked regardless of its value.
func (m *Masker) sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if lower == k {
				return true
			}
		}
	}
	return false
}

// MaskAttr masks an slog attribute by key, then by value content.
func (m *Masker) MaskAttr(a slog.Attr) slog.Attr {
	if !m.IsEnabled() {
		return a
	}
	if m.sensitiveKey(a.Key) {
		return slog.String(a.Key, maskedValue)
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, m.MaskString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		out := make([]any, 0, len(group))
		for _, ga := range group {
			out = append(out, m.MaskAttr(ga))
		}
		return slog.Group(a.Key, out...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return slog.String(a.Key, m.MaskString(err.Error()))
		}
	}
	return a
}

// maskingHandler applies a Masker to every record before delegating.
type maskingHandler struct {
	next   slog.Handler
	masker *Masker
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.masker.IsEnabled() {
		return h.next.Handle(ctx, r)
	}
	out := slog.NewRecord(r.Time, r.Level, h.masker.MaskString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.masker.MaskAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.masker.MaskAttr(a)
	}
	return &maskingHandler{next: h.next.WithAttrs(masked), masker: h.masker}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{next: h.next.WithGroup(name), masker: h.masker}
}
