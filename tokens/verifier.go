// Package tokens verifies the bearer session tokens the identity provider
// issues to the web front end. Tokens are consumed here, never minted;
// expiry and revocation remain the provider's problem.
package tokens

import (
	"context"
	"errors"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the caller identity extracted from a verified session token.
type Claims struct {
	UserID string
	Email  string
}

// KeySource supplies the provider's current signing keys.
type KeySource func(ctx context.Context) (jwk.Set, error)

// CachedKeySource fetches the provider's JWKS through a refreshing cache.
// ctx bounds the cache's background refresh goroutine.
func CachedKeySource(ctx context.Context, jwksURL string) (KeySource, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL); err != nil {
		return nil, err
	}
	return func(ctx context.Context) (jwk.Set, error) {
		return cache.Get(ctx, jwksURL)
	}, nil
}

// StaticKeySource wraps an already-fetched key set.
func StaticKeySource(set jwk.Set) KeySource {
	return func(context.Context) (jwk.Set, error) { return set, nil }
}

// Verifier validates session tokens against issuer, audience, and keys.
type Verifier struct {
	issuer   string
	audience string
	keys     KeySource
}

func NewVerifier(issuer, audience string, keys KeySource) *Verifier {
	return &Verifier{issuer: issuer, audience: audience, keys: keys}
}

// Verify validates the raw token and extracts the caller's identity.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if v == nil || v.keys == nil {
		return nil, errors.New("tokens: verifier not configured")
	}
	set, err := v.keys(ctx)
	if err != nil {
		return nil, err
	}
	token, err := jwt.ParseString(
		raw,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	claims := &Claims{UserID: token.Subject()}
	if rawEmail, ok := token.Get("email"); ok {
		if email, ok := rawEmail.(string); ok {
			claims.Email = email
		}
	}
	if claims.UserID == "" {
		return nil, errors.New("tokens: token missing subject")
	}
	return claims, nil
}
