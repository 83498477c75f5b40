package bus

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client is one connected execution context. Delivery is through a buffered
// send channel; a client that cannot keep up is dropped rather than blocked
// on, which is the bus's at-most-once, best-effort contract.
type Client struct {
	id   string
	kind ContextKind
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// ID returns the client's hub-assigned id.
func (c *Client) ID() string { return c.id }

// Kind returns the execution context kind the client registered as.
func (c *Client) Kind() ContextKind { return c.kind }

// Receive exposes the delivery channel. The hub closes it on unregister.
func (c *Client) Receive() <-chan []byte { return c.send }

// trySend delivers without blocking. False means the client is gone or its
// buffer is full; either way the message is not retried.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// Hub tracks the connected contexts and fans broadcasts out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{clients: make(map[*Client]bool), log: log}
}

// Register adds a context connection of the given kind.
func (h *Hub) Register(kind ContextKind) *Client {
	c := &Client{
		id:   uuid.NewString(),
		kind: kind,
		send: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"client": c.id, "kind": kind}).Debug("context connected")
	return c
}

// Unregister removes the client and closes its delivery channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		h.log.WithFields(logrus.Fields{"client": c.id, "kind": c.kind}).Debug("context disconnected")
	}
}

// ClientCount reports connected contexts, optionally filtered by kind.
func (h *Hub) ClientCount(kinds ...ContextKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(kinds) == 0 {
		return len(h.clients)
	}
	n := 0
	for c := range h.clients {
		for _, k := range kinds {
			if c.kind == k {
				n++
				break
			}
		}
	}
	return n
}

// Broadcast sends env to every connected context of the given kinds (all
// kinds if none given) and reports how many received it. Best-effort:
// contexts with no live connection never see it, and a full send buffer
// drops the client.
func (h *Hub) Broadcast(env Envelope, kinds ...ContextKind) int {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.WithError(err).WithField("type", env.Type).Error("marshal broadcast")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if len(kinds) == 0 {
			targets = append(targets, c)
			continue
		}
		for _, k := range kinds {
			if c.kind == k {
				targets = append(targets, c)
				break
			}
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if !c.trySend(data) {
			h.log.WithFields(logrus.Fields{"client": c.id, "kind": c.kind}).Warn("send buffer full, dropping context")
			h.Unregister(c)
			continue
		}
		delivered++
	}
	return delivered
}
