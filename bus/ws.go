package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// checkOrigin guards the privileged internal upgrade. A browser dialer must
// be same-origin or on the configured allow-list; a client that sends no
// Origin header at all (the host process) is not a browser and passes.
// Arbitrary web content belongs on the external channel, never here.
func (c *Coordinator) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if c.allowedOrigins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeWS upgrades an internal context's connection and bridges it to the
// coordinator: requests are dispatched to HandleInternal with the reply
// written back on the same connection, broadcasts arrive via the hub.
func (c *Coordinator) ServeWS(w http.ResponseWriter, r *http.Request) {
	kind := ContextKind(r.URL.Query().Get("context"))
	switch kind {
	case KindPanel, KindSettings, KindContent:
	default:
		http.Error(w, "unknown context kind", http.StatusBadRequest)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     c.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := c.hub.Register(kind)
	go c.writePump(conn, client)
	go c.readPump(conn, client)
}

func (c *Coordinator) readPump(conn *websocket.Conn, client *Client) {
	defer func() {
		c.hub.Unregister(client)
		_ = conn.Close()
	}()
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).WithField("client", client.ID()).Debug("websocket read error")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.WithError(err).WithField("client", client.ID()).Warn("malformed bus message")
			continue
		}
		if reply := c.HandleInternal(context.Background(), env); reply != nil {
			out, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if !client.trySend(out) {
				// Same contract as broadcast: a stalled context is dropped.
				c.log.WithField("client", client.ID()).Warn("reply buffer full, dropping context")
				return
			}
		}
	}
}

func (c *Coordinator) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.Receive():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
