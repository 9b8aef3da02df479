package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const gateTimeout = 5 * time.Second

// EventConnected is sent once after the handshake.
const EventConnected = "connected"

// Authenticator turns a bearer token into a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Caller, error)
}

// Gate decides which request channels a caller may join and relay into.
type Gate interface {
	CanJoinRequest(ctx context.Context, caller models.Caller, requestID string) bool
	CanRelayLocation(ctx context.Context, caller models.Caller, requestID string) bool
}

// Broadcaster publishes to a channel across every instance.
type Broadcaster interface {
	Publish(channel, event string, payload interface{})
}

type Handler struct {
	hub      *Hub
	auth     Authenticator
	gate     Gate
	bus      Broadcaster
	upgrader websocket.Upgrader
}

// NewHandler builds the socket endpoint. An empty allowedOrigin or "*"
// accepts any origin.
func NewHandler(hub *Hub, auth Authenticator, gate Gate, bus Broadcaster, allowedOrigin string) *Handler {
	return &Handler{
		hub:  hub,
		auth: auth,
		gate: gate,
		bus:  bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// ServeWS upgrades the connection and, when the handshake carries a valid
// token, joins a provider to its own channel. A connection without a valid
// token is still accepted but can pass none of the join gates.
func (h *Handler) ServeWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = bearerToken(c.Request().Header.Get("Authorization"))
	}
	var caller models.Caller
	if token != "" {
		resolved, err := h.auth.Authenticate(c.Request().Context(), token)
		if err != nil {
			log.Printf("[ws] handshake auth failed: %v", err)
		} else {
			caller = resolved
		}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return nil
	}

	client := newClient(conn, caller)
	if frame, err := json.Marshal(Notification{Event: EventConnected, Data: map[string]string{"clientId": client.ID}}); err == nil {
		client.send <- frame
	}
	if !h.hub.connect(client) {
		conn.Close()
		return nil
	}
	if caller.Role == models.RoleProvider {
		h.hub.Join(client, models.ProviderChannel(caller.UserID.Hex()))
	}

	go client.writePump()
	go client.readPump(h.hub, h.handle)
	return nil
}

func (h *Handler) handle(client *Client, in Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), gateTimeout)
	defer cancel()

	switch in.Event {
	case models.EventJoinProvider:
		var userID string
		if err := json.Unmarshal(in.Data, &userID); err != nil {
			return
		}
		// A provider may only listen on its own channel.
		if client.Caller.Role != models.RoleProvider || userID != client.Caller.UserID.Hex() {
			log.Printf("[ws] client %s refused join of provider channel %s", client.ID, userID)
			return
		}
		h.hub.Join(client, models.ProviderChannel(userID))

	case models.EventJoinRequest:
		var requestID string
		if err := json.Unmarshal(in.Data, &requestID); err != nil {
			return
		}
		if !h.gate.CanJoinRequest(ctx, client.Caller, requestID) {
			log.Printf("[ws] client %s refused join of request %s", client.ID, requestID)
			return
		}
		h.hub.Join(client, models.RequestChannel(requestID))

	case models.EventProviderLocationUpdate:
		var update models.LocationUpdate
		if err := json.Unmarshal(in.Data, &update); err != nil || update.RequestID == "" {
			return
		}
		if !h.gate.CanRelayLocation(ctx, client.Caller, update.RequestID) {
			return
		}
		h.bus.Publish(models.RequestChannel(update.RequestID), models.EventProviderLocationUpdate, update)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
