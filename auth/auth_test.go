package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValid(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token Token
		skew  time.Duration
		want  bool
	}{
		{
			name: "empty token",
			want: false,
		},
		{
			name:  "no expiry",
			token: Token{AccessToken: "tok"},
			want:  true,
		},
		{
			name:  "well before expiry",
			token: Token{AccessToken: "tok", Expiry: now.Add(time.Hour)},
			skew:  time.Minute,
			want:  true,
		},
		{
			name:  "inside the skew window",
			token: Token{AccessToken: "tok", Expiry: now.Add(30 * time.Second)},
			skew:  time.Minute,
			want:  false,
		},
		{
			name:  "already expired",
			token: Token{AccessToken: "tok", Expiry: now.Add(-time.Second)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Valid(tt.skew))
		})
	}
}

func TestStaticTokenSource(t *testing.T) {
	source := NewStaticTokenSource("pre-issued")
	token, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pre-issued", token.AccessToken)
}

func newTokenEndpoint(t *testing.T, calls *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "resource-id/.default", r.FormValue("scope"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d}`, n, expiresIn)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientCredentialsCachesFreshToken(t *testing.T) {
	var calls atomic.Int32
	server := newTokenEndpoint(t, &calls, 3600)

	source := NewClientCredentials(Config{
		TokenURL:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Resource:     "resource-id",
	})

	ctx := context.Background()
	first, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first.AccessToken)
	assert.False(t, first.Expiry.IsZero(), "expiry must be tracked")

	second, err := source.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int32(1), calls.Load(), "fresh token must be served from cache")
}

func TestClientCredentialsRefreshesInsideSkew(t *testing.T) {
	var calls atomic.Int32
	// Tokens that expire inside the skew window are treated as stale.
	server := newTokenEndpoint(t, &calls, 30)

	source := NewClientCredentials(Config{
		TokenURL:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Resource:     "resource-id",
		ExpirySkew:   time.Minute,
	})

	ctx := context.Background()
	first, err := source.Token(ctx)
	require.NoError(t, err)
	second, err := source.Token(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.Equal(t, int32(2), calls.Load(), "stale token must be refreshed synchronously")
}

func TestClientCredentialsSurfacesProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	source := NewClientCredentials(Config{
		TokenURL:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "wrong",
		Resource:     "resource-id",
	})

	_, err := source.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client credentials token request")
}

func TestClientCredentialsScopeOverride(t *testing.T) {
	source := NewClientCredentials(Config{
		TokenURL:     "https://login.example.com/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       []string{"custom-scope"},
	})
	assert.Equal(t, []string{"custom-scope"}, source.cfg.Scopes)

	defaulted := NewClientCredentials(Config{
		TokenURL: "https://login.example.com/token",
		Resource: "resource-id",
	})
	assert.Equal(t, []string{"resource-id/.default"}, defaulted.cfg.Scopes)
}
