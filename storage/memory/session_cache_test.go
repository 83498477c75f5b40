package memorystore

import (
	"context"
	"sync"
	"testing"

	"github.com/open-rails/tutorkit/session"
)

func TestWriteReadClear(t *testing.T) {
	c := NewSessionCache()
	ctx := context.Background()

	if _, st, _ := c.Read(ctx); st != session.SignedOut {
		t.Fatalf("fresh cache should read signed out, got %v", st)
	}

	e := session.Entry{
		Email:              "student@example.com",
		SubscriptionStatus: "premium",
		UserID:             "user-1",
		AccessToken:        "tok-1",
	}
	if err := c.Write(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, st, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st != session.SignedIn {
		t.Fatalf("expected signed in, got %v", st)
	}
	if got != e {
		t.Fatalf("read back %+v, want %+v", got, e)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	got, st, _ = c.Read(ctx)
	if st != session.SignedOut || got != (session.Entry{}) {
		t.Fatalf("after clear expected empty signed-out entry, got %+v (%v)", got, st)
	}
}

func TestIncompleteEntryReadsSignedOut(t *testing.T) {
	c := NewSessionCache()
	ctx := context.Background()
	// Missing access token: must not present as signed in.
	_ = c.Write(ctx, session.Entry{Email: "a@b.c", UserID: "u"})
	if _, st, _ := c.Read(ctx); st != session.SignedOut {
		t.Fatalf("partial entry should read signed out, got %v", st)
	}
}

// Two racing session stores must leave exactly one payload in full; a blend
// of fields from both users would be a corruption.
func TestConcurrentWritesNoFieldMixing(t *testing.T) {
	c := NewSessionCache()
	ctx := context.Background()

	a := session.Entry{Email: "a@example.com", SubscriptionStatus: "premium", UserID: "user-a", AccessToken: "tok-a"}
	b := session.Entry{Email: "b@example.com", SubscriptionStatus: "free", UserID: "user-b", AccessToken: "tok-b"}

	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _ = c.Write(ctx, a) }()
		go func() { defer wg.Done(); _ = c.Write(ctx, b) }()
		wg.Wait()

		got, _, err := c.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != a && got != b {
			t.Fatalf("cache holds a mixed entry: %+v", got)
		}
	}
}
