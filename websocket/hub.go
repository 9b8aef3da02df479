package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Notification is the frame sent to clients: {"event": ..., "data": ...}.
type Notification struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients and the channels they joined, and fans
// published events out to channel members. Registration happens under mu, so
// a client is joinable as soon as connect returns.
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool
	stopped  bool
	mu       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),
	}
}

// Run waits for ctx, then closes every client and refuses new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for client := range h.clients {
		h.dropLocked(client)
	}
}

// connect registers client. It reports false once the hub has stopped.
func (h *Hub) connect(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	h.clients[client] = true
	return true
}

func (h *Hub) disconnect(client *Client) {
	h.remove(client)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for channel := range client.channels {
		h.leaveLocked(client, channel)
	}
	close(client.send)
}

// Join adds client to channel. Joining twice is a no-op.
func (h *Hub) Join(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]bool)
		h.channels[channel] = members
	}
	members[client] = true
	client.channels[channel] = true
}

func (h *Hub) Leave(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, channel)
}

func (h *Hub) leaveLocked(client *Client, channel string) {
	delete(client.channels, channel)
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
}

// Publish delivers event to every member of channel on this instance. The
// frame is encoded once. A client whose buffer is full misses the frame.
func (h *Hub) Publish(channel, event string, payload interface{}) {
	frame, err := json.Marshal(Notification{Event: event, Data: payload})
	if err != nil {
		log.Printf("[ws] encode %s for %s: %v", event, channel, err)
		return
	}
	h.deliver(channel, frame)
}

func (h *Hub) deliver(channel string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.channels[channel] {
		select {
		case client.send <- frame:
		default:
			log.Printf("[ws] client %s is slow, dropped frame on %s", client.ID, channel)
		}
	}
}

// Members is the number of local clients in channel.
func (h *Hub) Members(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Connected is the number of registered clients.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
