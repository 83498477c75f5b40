package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/open-rails/tutorkit/session"
)

func openTemp(t *testing.T) *SessionCache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoundTrip(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	e := session.Entry{
		Email:              "student@example.com",
		SubscriptionStatus: "team",
		UserID:             "user-9",
		AccessToken:        "tok-9",
		RefreshToken:       "ref-9",
	}
	if err := c.Write(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, st, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st != session.SignedIn || got != e {
		t.Fatalf("read back %+v (%v), want %+v", got, st, e)
	}
}

func TestOverwriteDropsStaleFields(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	withRefresh := session.Entry{Email: "a@x", SubscriptionStatus: "premium", UserID: "u1", AccessToken: "t1", RefreshToken: "r1"}
	withoutRefresh := session.Entry{Email: "b@x", SubscriptionStatus: "free", UserID: "u2", AccessToken: "t2"}

	_ = c.Write(ctx, withRefresh)
	_ = c.Write(ctx, withoutRefresh)

	got, _, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.RefreshToken != "" {
		t.Fatalf("refresh token from the previous session leaked into the new entry: %+v", got)
	}
	if got != withoutRefresh {
		t.Fatalf("read back %+v, want %+v", got, withoutRefresh)
	}
}

func TestClear(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()

	_ = c.Write(ctx, session.Entry{Email: "a@x", SubscriptionStatus: "premium", UserID: "u", AccessToken: "t"})
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	got, st, _ := c.Read(ctx)
	if st != session.SignedOut || got != (session.Entry{}) {
		t.Fatalf("after clear expected empty signed-out entry, got %+v (%v)", got, st)
	}
	// Clearing an already-empty cache is fine.
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
}
