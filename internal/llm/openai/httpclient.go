package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// OAuthConfig enables client-credentials auth for an OpenAI-compatible gateway.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether enough is configured to request tokens.
func (o OAuthConfig) Enabled() bool {
	return strings.TrimSpace(o.TokenURL) != "" && strings.TrimSpace(o.ClientID) != ""
}

// NewHTTPClient returns the HTTP client used for provider calls. With OAuth
// configured, requests carry a bearer token that is refreshed automatically.
func NewHTTPClient(ctx context.Context, timeout time.Duration, oauth OAuthConfig) *http.Client {
	if !oauth.Enabled() {
		return &http.Client{Timeout: timeout}
	}
	cc := clientcredentials.Config{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		TokenURL:     oauth.TokenURL,
		Scopes:       oauth.Scopes,
	}
	client := cc.Client(ctx)
	client.Timeout = timeout
	return client
}
