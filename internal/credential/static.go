package credential

import (
	"context"
	"errors"
	"strings"
)

// Static is a credential obtained elsewhere, typically a token decrypted by
// the caller before the request is made.
type Static struct {
	Value string `mapstructure:"token"`
}

func (s *Static) Token(_ context.Context) (string, error) {
	v := strings.TrimSpace(s.Value)
	if v == "" {
		return "", errors.New("credential: static token is empty")
	}
	return v, nil
}
