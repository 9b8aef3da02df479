package models

import (
	"encoding/json"
	"time"
)

// Real-time event kinds
const (
	EventRequestNew             = "request:new"
	EventRequestTaken           = "request:taken"
	EventRequestAccepted        = "request:accepted"
	EventRequestStatusUpdate    = "request:statusUpdate"
	EventProviderLocationUpdate = "provider:locationUpdate"
)

// Inbound websocket events
const (
	EventJoinProvider = "join:provider"
	EventJoinRequest  = "join:request"
)

// RequestChannel is the channel of everyone following one request.
func RequestChannel(requestID string) string { return "request_" + requestID }

// ProviderChannel is the channel of every session of one provider owner.
func ProviderChannel(ownerUserID string) string { return "provider_" + ownerUserID }

type RequestOffer struct {
	RequestID        string   `json:"requestId"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	CustomerLocation GeoPoint `json:"customerLocation"`
}

type RequestTaken struct {
	RequestID string `json:"requestId"`
}

type RequestAccepted struct {
	RequestID  string `json:"requestId"`
	ProviderID string `json:"providerId"`
}

type StatusChanged struct {
	RequestID string        `json:"requestId"`
	Status    RequestStatus `json:"status"`
}

// LocationUpdate is relayed as received; Coords is never inspected.
type LocationUpdate struct {
	RequestID string          `json:"requestId"`
	Coords    json.RawMessage `json:"coords"`
}

// LifecycleEvent is the audit record written for every committed change.
type LifecycleEvent struct {
	RequestID  string        `json:"requestId"`
	Status     RequestStatus `json:"status"`
	ActorID    string        `json:"actorId,omitempty"`
	ActorRole  Role          `json:"actorRole,omitempty"`
	ProviderID string        `json:"providerId,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
