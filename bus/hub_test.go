package bus

import (
	"testing"
	"time"
)

func TestBroadcastFansOutByKind(t *testing.T) {
	h := NewHub(quietLogger())
	panel := h.Register(KindPanel)
	settings := h.Register(KindSettings)
	content := h.Register(KindContent)

	h.Broadcast(Envelope{Type: TypeSignedOut}, KindPanel, KindSettings)

	for _, c := range []*Client{panel, settings} {
		select {
		case <-c.Receive():
		case <-time.After(time.Second):
			t.Fatalf("%s did not receive broadcast", c.Kind())
		}
	}
	select {
	case <-content.Receive():
		t.Fatal("content received a panel/settings broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesReceive(t *testing.T) {
	h := NewHub(quietLogger())
	c := h.Register(KindPanel)
	h.Unregister(c)
	select {
	case _, ok := <-c.Receive():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("receive channel not closed")
	}
	// Double unregister is a no-op.
	h.Unregister(c)
	if n := h.ClientCount(); n != 0 {
		t.Fatalf("expected 0 clients, got %d", n)
	}
}

// A context that stops draining its channel is dropped instead of blocking
// the hub: delivery is at-most-once, never queued behind a stalled reader.
func TestSlowClientDropped(t *testing.T) {
	h := NewHub(quietLogger())
	h.Register(KindContent)

	delivered := 0
	for i := 0; i < 128; i++ {
		delivered += h.Broadcast(Envelope{Type: TypeToggleOverlay}, KindContent)
	}
	if delivered >= 128 {
		t.Fatalf("every broadcast claimed delivery despite a stalled reader")
	}
	if n := h.ClientCount(KindContent); n != 0 {
		t.Fatalf("stalled client still registered (%d)", n)
	}
}

func TestClientCountByKind(t *testing.T) {
	h := NewHub(quietLogger())
	h.Register(KindPanel)
	h.Register(KindContent)
	h.Register(KindContent)

	if n := h.ClientCount(); n != 3 {
		t.Fatalf("total = %d, want 3", n)
	}
	if n := h.ClientCount(KindContent); n != 2 {
		t.Fatalf("content = %d, want 2", n)
	}
	if n := h.ClientCount(KindSettings); n != 0 {
		t.Fatalf("settings = %d, want 0", n)
	}
}
