// Package auth supplies bearer tokens for the PlantSeries API client.
//
// The client consults a TokenSource before every outbound request.
// ClientCredentials implements the OAuth2 client-credentials flow
// against the tenant's identity provider; StaticTokenSource serves a
// pre-issued token and backs test doubles.
package auth

import (
	"context"
	"time"
)

// Token is an opaque bearer token with its expiry. A zero Expiry means
// the token never expires (or its lifetime is unknown).
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// Valid reports whether the token can still be attached to a request.
// A token within skew of its expiry counts as expired, so it is
// refreshed before the service would reject it.
func (t Token) Valid(skew time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(skew).Before(t.Expiry)
}

// TokenSource yields the bearer token to attach to one outbound request.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// StaticTokenSource returns the same token on every call.
type StaticTokenSource struct {
	token Token
}

// NewStaticTokenSource wraps a pre-issued bearer token.
func NewStaticTokenSource(accessToken string) *StaticTokenSource {
	return &StaticTokenSource{token: Token{AccessToken: accessToken}}
}

func (s *StaticTokenSource) Token(ctx context.Context) (Token, error) {
	return s.token, nil
}
