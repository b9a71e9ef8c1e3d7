package credential

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultJWTTTL = 5 * time.Minute

// JWT issues HS256 tokens for the messaging server: the audience is the
// business ID and the issuer is the CSP ID. Secret is base64 encoded.
type JWT struct {
	BusinessID string `mapstructure:"business_id"`
	CSPID      string `mapstructure:"csp_id"`
	Secret     string `mapstructure:"secret"`
	TTLSeconds int64  `mapstructure:"ttl_seconds"`

	// now is overridden in tests.
	now func() time.Time
}

func (j *JWT) Token(_ context.Context) (string, error) {
	return j.Issue()
}

// Issue signs a fresh token.
func (j *JWT) Issue() (string, error) {
	aud := strings.TrimSpace(j.BusinessID)
	iss := strings.TrimSpace(j.CSPID)
	if aud == "" || iss == "" {
		return "", errors.New("credential: jwt requires business_id and csp_id")
	}
	key, err := j.signingKey()
	if err != nil {
		return "", err
	}

	now := time.Now
	if j.now != nil {
		now = j.now
	}
	ttl := defaultJWTTTL
	if j.TTLSeconds > 0 {
		ttl = time.Duration(j.TTLSeconds) * time.Second
	}
	issued := now()

	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{aud},
		Issuer:    iss,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("credential: sign jwt: %w", err)
	}
	return signed, nil
}

func (j *JWT) signingKey() ([]byte, error) {
	secret := strings.TrimSpace(j.Secret)
	if secret == "" {
		return nil, errors.New("credential: jwt secret is required")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("credential: jwt secret is not valid base64: %w", err)
	}
	if len(key) == 0 {
		return nil, errors.New("credential: jwt secret decodes to an empty key")
	}
	return key, nil
}
