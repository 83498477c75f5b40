// Package testing provides a mock identity provider for tests: an HTTP
// server that serves JWKS and signs session tokens that validate against
// it, so handler and verifier tests never need the real provider.
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//	token := issuer.CreateToken("user-123", "student@example.com")
package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	jwtkit "github.com/open-rails/tutorkit/jwt"
)

// TestIssuer is a stand-in for the external identity provider. It serves
// JWKS at /.well-known/jwks.json and signs tokens with the matching key.
type TestIssuer struct {
	server   *httptest.Server
	signer   *jwtkit.RSASigner
	audience string
}

// NewTestIssuer creates a test issuer with the default audience.
func NewTestIssuer() *TestIssuer {
	return NewTestIssuerWithAudience("tutorkit")
}

// NewTestIssuerWithAudience creates a test issuer with a specific audience.
func NewTestIssuerWithAudience(audience string) *TestIssuer {
	signer, err := jwtkit.NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}
	ti := &TestIssuer{signer: signer, audience: audience}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)
	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the issuer's base URL; use it as the configured issuer.
func (ti *TestIssuer) URL() string { return ti.server.URL }

// JWKSURL returns the JWKS endpoint URL.
func (ti *TestIssuer) JWKSURL() string { return ti.server.URL + "/.well-known/jwks.json" }

// Audience returns the audience baked into issued tokens.
func (ti *TestIssuer) Audience() string { return ti.audience }

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

func (ti *TestIssuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	jwk := jwtkit.RSAPublicToJWK(ti.signer.PublicKey(), ti.signer.KID(), ti.signer.Algorithm())
	jwtkit.ServeJWKS(w, r, jwtkit.JWKS{Keys: []jwtkit.JWK{jwk}})
}

// CreateToken signs a session token for the given user.
func (ti *TestIssuer) CreateToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, nil)
}

// CreateTokenWithClaims signs a session token with extra claims merged over
// the standard ones (sub, email, iss, aud, exp, iat).
func (ti *TestIssuer) CreateTokenWithClaims(userID, email string, extra map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iss":   ti.URL(),
		"aud":   ti.audience,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateExpiredToken signs a token that has already expired, for testing
// expiry handling.
func (ti *TestIssuer) CreateExpiredToken(userID, email string) string {
	return ti.CreateTokenWithClaims(userID, email, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}
