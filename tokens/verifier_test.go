package tokens

import (
	"context"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"

	authtest "github.com/open-rails/tutorkit/testing"
)

func fetchKeys(t *testing.T, url string) jwk.Set {
	t.Helper()
	set, err := jwk.Fetch(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestVerifyValidToken(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()

	v := NewVerifier(issuer.URL(), issuer.Audience(), StaticKeySource(fetchKeys(t, issuer.JWKSURL())))
	claims, err := v.Verify(context.Background(), issuer.CreateToken("user-1", "student@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-1" || claims.Email != "student@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()

	v := NewVerifier(issuer.URL(), issuer.Audience(), StaticKeySource(fetchKeys(t, issuer.JWKSURL())))
	if _, err := v.Verify(context.Background(), issuer.CreateExpiredToken("user-1", "a@b.c")); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyWrongAudience(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()

	v := NewVerifier(issuer.URL(), "some-other-app", StaticKeySource(fetchKeys(t, issuer.JWKSURL())))
	if _, err := v.Verify(context.Background(), issuer.CreateToken("user-1", "a@b.c")); err == nil {
		t.Fatal("token for a different audience accepted")
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()
	other := authtest.NewTestIssuer()
	defer other.Close()

	// Keys from one issuer, token from another.
	v := NewVerifier(issuer.URL(), issuer.Audience(), StaticKeySource(fetchKeys(t, issuer.JWKSURL())))
	if _, err := v.Verify(context.Background(), other.CreateToken("user-1", "a@b.c")); err == nil {
		t.Fatal("token from a different issuer accepted")
	}
}

func TestVerifyGarbage(t *testing.T) {
	issuer := authtest.NewTestIssuer()
	defer issuer.Close()

	v := NewVerifier(issuer.URL(), issuer.Audience(), StaticKeySource(fetchKeys(t, issuer.JWKSURL())))
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := v.Verify(context.Background(), raw); err == nil {
			t.Fatalf("garbage token %q accepted", raw)
		}
	}
}
