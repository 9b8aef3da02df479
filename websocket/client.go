package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one authenticated socket.
type Client struct {
	ID     string
	Caller models.Caller

	conn     *websocket.Conn
	send     chan []byte
	channels map[string]bool // guarded by Hub.mu
}

func newClient(conn *websocket.Conn, caller models.Caller) *Client {
	return &Client{
		ID:       uuid.NewString(),
		Caller:   caller,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		channels: make(map[string]bool),
	}
}

// Inbound is a frame sent by a client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// readPump decodes inbound frames until the socket fails, then unregisters
// the client.
func (c *Client) readPump(hub *Hub, handle func(*Client, Inbound)) {
	defer func() {
		hub.disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] client %s read error: %v", c.ID, err)
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}
		handle(c, in)
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
