// Package jwtkit holds the small amount of JWT/JWKS plumbing this module
// needs: an RSA signer for the test identity provider and JWKS encoding
// helpers. Production session tokens are issued elsewhere; here they are
// only verified.
package jwtkit

import (
	"context"
	"crypto/rand"
	"crypto/rsa"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Signer issues asymmetric JWTs.
type Signer interface {
	Algorithm() string
	KID() string
	Sign(ctx context.Context, claims jwt.MapClaims) (token string, err error)
}

// RSASigner is an in-memory RSA signer, suitable for tests and local
// development only.
type RSASigner struct {
	key *rsa.PrivateKey
	kid string
}

func NewRSASigner(bits int, kid string) (*RSASigner, error) {
	if bits == 0 {
		bits = 2048
	}
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return &RSASigner{key: k, kid: kid}, nil
}

func (s *RSASigner) Algorithm() string         { return jwt.SigningMethodRS256.Alg() }
func (s *RSASigner) KID() string               { return s.kid }
func (s *RSASigner) PublicKey() *rsa.PublicKey { return &s.key.PublicKey }

func (s *RSASigner) Sign(_ context.Context, claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid
	return token.SignedString(s.key)
}
