package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type staticAuth map[string]models.Caller

func (a staticAuth) Authenticate(_ context.Context, token string) (models.Caller, error) {
	c, ok := a[token]
	if !ok {
		return models.Caller{}, errors.New("unknown token")
	}
	return c, nil
}

type allowList struct {
	join  map[string]bool
	relay map[string]bool
}

func (g allowList) CanJoinRequest(_ context.Context, _ models.Caller, id string) bool {
	return g.join[id]
}

func (g allowList) CanRelayLocation(_ context.Context, _ models.Caller, id string) bool {
	return g.relay[id]
}

type captured struct {
	channel string
	event   string
	payload interface{}
}

type captureBus struct {
	mu   sync.Mutex
	sent []captured
}

func (b *captureBus) Publish(channel, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, captured{channel, event, payload})
}

func inbound(t *testing.T, event string, data interface{}) Inbound {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return Inbound{Event: event, Data: raw}
}

func TestHandler_JoinProviderOnlyOwnChannel(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	h := NewHandler(hub, staticAuth{}, allowList{}, &captureBus{}, "")

	provider := connectClient(t, hub, models.RoleProvider)
	customer := connectClient(t, hub, models.RoleCustomer)
	own := provider.Caller.UserID.Hex()

	h.handle(provider, inbound(t, models.EventJoinProvider, primitive.NewObjectID().Hex()))
	h.handle(customer, inbound(t, models.EventJoinProvider, customer.Caller.UserID.Hex()))
	if hub.Connected() != 2 || hub.Members(models.ProviderChannel(customer.Caller.UserID.Hex())) != 0 {
		t.Fatal("customer joined a provider channel")
	}

	h.handle(provider, inbound(t, models.EventJoinProvider, own))
	if hub.Members(models.ProviderChannel(own)) != 1 {
		t.Fatal("provider could not join its own channel")
	}
}

func TestHandler_JoinRequestIsGated(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	h := NewHandler(hub, staticAuth{}, allowList{join: map[string]bool{"r1": true}}, &captureBus{}, "")
	c := connectClient(t, hub, models.RoleCustomer)

	h.handle(c, inbound(t, models.EventJoinRequest, "r2"))
	h.handle(c, inbound(t, models.EventJoinRequest, "r1"))

	if hub.Members(models.RequestChannel("r2")) != 0 {
		t.Fatal("joined a request without permission")
	}
	if hub.Members(models.RequestChannel("r1")) != 1 {
		t.Fatal("permitted join was refused")
	}
}

func TestHandler_LocationRelayedVerbatimFromAssignedProvider(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	bus := &captureBus{}
	h := NewHandler(hub, staticAuth{}, allowList{relay: map[string]bool{"r1": true}}, bus, "")
	c := connectClient(t, hub, models.RoleProvider)

	coords := map[string]interface{}{"lat": 33.9, "lng": 35.5, "heading": 90}
	h.handle(c, inbound(t, models.EventProviderLocationUpdate, map[string]interface{}{"requestId": "r2", "coords": coords}))
	h.handle(c, inbound(t, models.EventProviderLocationUpdate, map[string]interface{}{"requestId": "r1", "coords": coords}))
	h.handle(c, Inbound{Event: models.EventProviderLocationUpdate, Data: json.RawMessage(`"garbage"`)})

	if len(bus.sent) != 1 {
		t.Fatalf("relayed %d updates, want 1", len(bus.sent))
	}
	got := bus.sent[0]
	if got.channel != models.RequestChannel("r1") || got.event != models.EventProviderLocationUpdate {
		t.Fatalf("relayed to %s/%s", got.channel, got.event)
	}
	update := got.payload.(models.LocationUpdate)
	var decoded map[string]interface{}
	if err := json.Unmarshal(update.Coords, &decoded); err != nil || decoded["heading"] != float64(90) {
		t.Fatalf("coords not passed through: %s", update.Coords)
	}
}

func dialWS(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello Notification
	if err := conn.ReadJSON(&hello); err != nil || hello.Event != EventConnected {
		t.Fatalf("hello = %+v (%v)", hello, err)
	}
	return conn
}

func TestServeWS_BadTokenConnectsWithoutAutoJoin(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	h := NewHandler(hub, staticAuth{}, allowList{join: map[string]bool{"r1": true}}, &captureBus{}, "")

	e := echo.New()
	e.GET("/api/ws", h.ServeWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn := dialWS(t, srv, "?token=nope", nil)
	defer conn.Close()
	if hub.Connected() != 1 {
		t.Fatalf("connected = %d, want 1", hub.Connected())
	}
	hub.mu.RLock()
	joined := len(hub.channels)
	hub.mu.RUnlock()
	if joined != 0 {
		t.Fatal("anonymous connection was auto-joined")
	}
}

func TestServeWS_ProviderReceivesOwnChannel(t *testing.T) {
	t.Parallel()
	hub := startHub(t)
	provider := models.Caller{UserID: primitive.NewObjectID(), Role: models.RoleProvider}
	h := NewHandler(hub, staticAuth{"good": provider}, allowList{}, &captureBus{}, "")

	e := echo.New()
	e.GET("/api/ws", h.ServeWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer good")
	conn := dialWS(t, srv, "", header)
	defer conn.Close()

	// The hello frame is written only after registration and auto-join.
	channel := models.ProviderChannel(provider.UserID.Hex())
	if hub.Members(channel) != 1 {
		t.Fatalf("members of %s = %d, want 1", channel, hub.Members(channel))
	}
	hub.Publish(channel, models.EventRequestTaken, models.RequestTaken{RequestID: "r9"})

	var frame struct {
		Event string              `json:"event"`
		Data  models.RequestTaken `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame.Event != models.EventRequestTaken || frame.Data.RequestID != "r9" {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  xyz": "xyz",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
