package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the lifecycle position of a service request. The order of
// statusPath is the only direction a request may move in.
type RequestStatus string

const (
	StatusRequestSent         RequestStatus = "REQUEST_SENT"
	StatusAccepted            RequestStatus = "ACCEPTED"
	StatusOnTheWay            RequestStatus = "ON_THE_WAY"
	StatusArrived             RequestStatus = "ARRIVED"
	StatusWorkStarted         RequestStatus = "WORK_STARTED"
	StatusCompletionRequested RequestStatus = "COMPLETION_REQUESTED"
	StatusCompleted           RequestStatus = "COMPLETED"
	StatusPaymentConfirmed    RequestStatus = "PAYMENT_CONFIRMED"
)

var statusPath = []RequestStatus{
	StatusRequestSent,
	StatusAccepted,
	StatusOnTheWay,
	StatusArrived,
	StatusWorkStarted,
	StatusCompletionRequested,
	StatusCompleted,
	StatusPaymentConfirmed,
}

// ProviderSettableStatuses are the targets the assigned provider may set
// directly.
var ProviderSettableStatuses = []RequestStatus{
	StatusOnTheWay,
	StatusArrived,
	StatusWorkStarted,
	StatusCompletionRequested,
}

// Rank is the position on the lifecycle path, -1 for unknown values.
func (s RequestStatus) Rank() int {
	for i, st := range statusPath {
		if st == s {
			return i
		}
	}
	return -1
}

func (s RequestStatus) Valid() bool { return s.Rank() >= 0 }

// IsAssigned reports whether a request in this status must carry an
// assigned provider.
func (s RequestStatus) IsAssigned() bool { return s.Rank() >= StatusAccepted.Rank() }

// ProviderSettable reports whether the assigned provider may set s directly.
func (s RequestStatus) ProviderSettable() bool {
	for _, st := range ProviderSettableStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// StatusesUpTo lists every status from ACCEPTED up to and including s.
func StatusesUpTo(s RequestStatus) []RequestStatus {
	var out []RequestStatus
	for _, st := range statusPath[StatusAccepted.Rank():] {
		if st.Rank() > s.Rank() {
			break
		}
		out = append(out, st)
	}
	return out
}

// ServiceRequest is a customer's job from creation to payment confirmation.
// AssignedProviderID holds the provider profile id; NotifiedProviderIDs holds
// the owner user ids the offer went to and is never rewritten.
type ServiceRequest struct {
	ID                  primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerID          primitive.ObjectID  `json:"customerId" bson:"customerId"`
	Category            string              `json:"category" bson:"category"`
	Description         string              `json:"description" bson:"description"`
	CustomerLocation    GeoPoint            `json:"customerLocation" bson:"customerLocation"`
	Status              RequestStatus       `json:"status" bson:"status"`
	AssignedProviderID  *primitive.ObjectID `json:"assignedProviderId" bson:"assignedProviderId"`
	NotifiedProviderIDs []string            `json:"notifiedProviderIds" bson:"notifiedProviderUserIds"`
	CreatedAt           time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (r *ServiceRequest) IsAssigned() bool { return r.AssignedProviderID != nil }

// WasNotified reports whether ownerID was offered the request at creation.
func (r *ServiceRequest) WasNotified(ownerID string) bool {
	for _, id := range r.NotifiedProviderIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

// ServiceRequestCreate is the body of POST /requests
type ServiceRequestCreate struct {
	Category    string   `json:"category" validate:"required,max=64"`
	Description string   `json:"description" validate:"max=2000"`
	Lng         *float64 `json:"lng" validate:"required,longitude"`
	Lat         *float64 `json:"lat" validate:"required,latitude"`
}

// StatusUpdateRequest is the body of POST /requests/:id/status
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// ServiceRequestCreated is returned from request creation
type ServiceRequestCreated struct {
	Request               *ServiceRequest `json:"request"`
	NotifiedProviderCount int             `json:"notifiedProviderCount"`
}
