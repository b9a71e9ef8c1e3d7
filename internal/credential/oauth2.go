package credential

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials acquires a token with the OAuth2 client credentials grant.
type ClientCredentials struct {
	ClientID  string   `mapstructure:"client_id"`
	ClientSec string   `mapstructure:"client_secret"`
	TokenURL  string   `mapstructure:"token_url"`
	Scopes    []string `mapstructure:"scopes"`

	// HTTPClient is used for the token exchange when set.
	HTTPClient *http.Client `mapstructure:"-"`
}

func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	clientID := strings.TrimSpace(c.ClientID)
	clientSecret := strings.TrimSpace(c.ClientSec)
	tokenURL := strings.TrimSpace(c.TokenURL)
	if tokenURL == "" {
		return "", errors.New("oauth2: token_url is required for client_credentials grant")
	}
	if clientID == "" || clientSecret == "" {
		return "", errors.New("oauth2: client_id and client_secret are required for client_credentials grant")
	}
	if c.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       c.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return "", err
	}
	if tok == nil || !tok.Valid() || strings.TrimSpace(tok.AccessToken) == "" {
		return "", errors.New("oauth2: received invalid token")
	}
	return tok.AccessToken, nil
}
