package fanout

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nguyentantai21042004/announce-flow/internal/events"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

type clientMessage struct {
	Type string `json:"type"`
}

func (h *implHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "Websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	h.logger.Debug(ctx, "Viewer %s connected (%d open)", c.id, count)

	go h.writePump(c)
	h.readPump(ctx, c)
}

func (h *implHub) HandleEvent(ctx context.Context, e events.Event) {
	if !e.Type.Public() {
		return
	}
	frame, err := json.Marshal(e)
	if err != nil {
		h.logger.Error(ctx, "Marshal %s event: %v", e.Type, err)
		return
	}
	h.broadcast(ctx, frame)
}

func (h *implHub) broadcast(ctx context.Context, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn(ctx, "Viewer %s is too slow, disconnecting", id)
			delete(h.clients, id)
			c.close()
		}
	}
}

func (h *implHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *implHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
}

func (h *implHub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	c.close()
}

// readPump consumes client frames. Pings need no reply; any read error ends the connection.
func (h *implHub) readPump(ctx context.Context, c *client) {
	defer h.remove(c)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			h.logger.Debug(ctx, "Viewer %s disconnected: %v", c.id, err)
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "ping" {
			h.logger.Debug(ctx, "Viewer %s sent unexpected frame", c.id)
		}
	}
}

func (h *implHub) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// close stops the write pump, which closes the connection
func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}
