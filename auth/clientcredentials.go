package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultExpirySkew is how long before its expiry a cached token is
// treated as stale and refreshed.
const DefaultExpirySkew = 60 * time.Second

// Config describes a client-credentials registration with the identity
// provider.
type Config struct {
	// TokenURL is the provider's token endpoint.
	TokenURL string
	// ClientID and ClientSecret identify the API app registration.
	ClientID     string
	ClientSecret string
	// Resource is the API's resource/application ID. When Scopes is
	// empty the requested scope is Resource + "/.default".
	Resource string
	// Scopes overrides the default resource scope.
	Scopes []string
	// ExpirySkew overrides DefaultExpirySkew.
	ExpirySkew time.Duration
	// HTTPClient overrides the HTTP client used for token requests.
	HTTPClient *http.Client
}

// ClientCredentials fetches and caches bearer tokens via the OAuth2
// client-credentials flow. Refresh is synchronous: a call to Token with
// a stale cached token blocks until the provider answers.
//
// The cached token is not guarded against concurrent refresh. Serialize
// access externally when sharing one instance across goroutines.
type ClientCredentials struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	skew       time.Duration
	current    Token
}

// NewClientCredentials builds a token source from cfg.
func NewClientCredentials(cfg Config) *ClientCredentials {
	scopes := cfg.Scopes
	if len(scopes) == 0 && cfg.Resource != "" {
		scopes = []string{cfg.Resource + "/.default"}
	}
	skew := cfg.ExpirySkew
	if skew <= 0 {
		skew = DefaultExpirySkew
	}
	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       scopes,
		},
		httpClient: cfg.HTTPClient,
		skew:       skew,
	}
}

// Token returns the cached token, refreshing it first when it is absent,
// expired, or within the expiry skew.
func (c *ClientCredentials) Token(ctx context.Context) (Token, error) {
	if c.current.Valid(c.skew) {
		return c.current, nil
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	issued, err := c.cfg.Token(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("auth: client credentials token request: %w", err)
	}
	c.current = Token{AccessToken: issued.AccessToken, Expiry: issued.Expiry}
	return c.current, nil
}
