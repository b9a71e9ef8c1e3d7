// Package credential acquires the bearer credentials used by the request
// clients. Nothing is cached: every Token call acquires afresh.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Provider type keys understood by the default registry.
const (
	TypeStatic = "static"
	TypeJWT    = "jwt"
	TypeOAuth2 = "oauth2"
)

// Source yields a bearer credential (without the "Bearer " scheme).
type Source interface {
	Token(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Factory builds a Source from a loosely typed spec map.
type Factory func(spec map[string]interface{}) (Source, error)

// Registry maps provider type keys to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry preloaded with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register(TypeStatic, decodeInto[Static])
	r.Register(TypeJWT, decodeInto[JWT])
	r.Register(TypeOAuth2, decodeInto[ClientCredentials])
	r.Register("client_credentials", decodeInto[ClientCredentials])
	return r
}

// decodeInto decodes spec into a zero T with mapstructure.
func decodeInto[T any, PT interface {
	*T
	Source
}](spec map[string]interface{}) (Source, error) {
	var c T
	if err := mapstructure.Decode(spec, &c); err != nil {
		return nil, err
	}
	return PT(&c), nil
}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register adds or replaces a factory. Empty keys and nil factories are ignored.
func (r *Registry) Register(typ string, f Factory) {
	key := normalizeKey(typ)
	if key == "" || f == nil {
		return
	}
	r.mu.Lock()
	r.factories[key] = f
	r.mu.Unlock()
}

// Types lists the registered provider keys in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FromSpec builds a Source for the given provider type.
func (r *Registry) FromSpec(typ string, spec map[string]interface{}) (Source, error) {
	r.mu.RLock()
	f, ok := r.factories[normalizeKey(typ)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New("credential: unsupported provider type: " + typ)
	}
	src, err := f(spec)
	if err != nil {
		return nil, fmt.Errorf("credential: %s spec: %w", normalizeKey(typ), err)
	}
	return src, nil
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(typ string, f Factory) { defaultRegistry.Register(typ, f) }

// FromSpec builds a Source from the default registry.
func FromSpec(typ string, spec map[string]interface{}) (Source, error) {
	return defaultRegistry.FromSpec(typ, spec)
}

// Acquire resolves a token from src, rejecting empty values.
func Acquire(ctx context.Context, src Source) (string, error) {
	if src == nil {
		return "", errors.New("credential: no source configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tok, err := src.Token(ctx)
	if err != nil {
		return "", err
	}
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", errors.New("credential: source returned an empty token")
	}
	return tok, nil
}
